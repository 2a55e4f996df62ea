package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// StatsHandler 封装了运营统计相关的 HTTP 处理逻辑
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler 创建 StatsHandler 实例
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Today 返回当天的统计行 (不存在时现场重算一次)
func (h *StatsHandler) Today(c *gin.Context) {
	stats, err := h.stats.GetForDate(c.Request.Context(), time.Now())
	if err == nil {
		SuccessResponse(c, http.StatusOK, stats)
		return
	}
	stats, rerr := h.stats.RecalculateToday(c.Request.Context())
	if rerr != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, stats)
}

// ForDate 返回指定日期 (YYYY-MM-DD) 的统计行
func (h *StatsHandler) ForDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	stats, err := h.stats.GetForDate(c.Request.Context(), date)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, stats)
}
