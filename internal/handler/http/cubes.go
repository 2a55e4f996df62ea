package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// CubeHandler 封装了与方块经济相关的 HTTP 处理逻辑
type CubeHandler struct {
	economy *service.EconomyService
}

// NewCubeHandler 创建 CubeHandler 实例
func NewCubeHandler(economy *service.EconomyService) *CubeHandler {
	return &CubeHandler{economy: economy}
}

// PurchaseRequest 定义购买方块请求的结构体
type PurchaseRequest struct {
	GoldSpent int `json:"gold_spent" binding:"required,min=10"`
}

// Purchase 处理金币购买方块请求 (10 金币换 1 方块，向下取整)
func (h *CubeHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Purchase: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: gold_spent (min 10) required")
		return
	}

	userID := c.GetUint("user_id")
	user, err := h.economy.PurchaseCubes(c.Request.Context(), userID, req.GoldSpent)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"message":      "Cubes purchased successfully",
		"cube_balance": user.CubeBalance,
	})
}

// ClaimDailyReward 处理每日奖励领取请求 (24 小时滑动窗口)
func (h *CubeHandler) ClaimDailyReward(c *gin.Context) {
	userID := c.GetUint("user_id")
	user, err := h.economy.ClaimDailyReward(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"message":      "Daily reward claimed",
		"cube_balance": user.CubeBalance,
	})
}

// ListTransactions 返回当前用户的方块流水
func (h *CubeHandler) ListTransactions(c *gin.Context) {
	userID := c.GetUint("user_id")
	txs, err := h.economy.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, txs)
}
