package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseUintParam 解析路径参数为 uint，失败时写入 400 响应并返回 false。
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(value), true
}
