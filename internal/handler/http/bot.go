package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/supervisor"
)

// BotHandler 封装了机器人进程生命周期相关的 HTTP 处理逻辑
type BotHandler struct {
	supervisor *supervisor.Supervisor
}

// NewBotHandler 创建 BotHandler 实例
func NewBotHandler(sup *supervisor.Supervisor) *BotHandler {
	return &BotHandler{supervisor: sup}
}

// StartRequest 定义启动机器人请求的结构体
type StartRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

// Start 为指定房间启动机器人进程
func (h *BotHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.BotStart: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room_id required")
		return
	}

	if err := h.supervisor.Start(c.Request.Context(), req.RoomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Bot started", "room_id": req.RoomID})
}

// Stop 停止指定房间的机器人进程
func (h *BotHandler) Stop(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.BotStop: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room_id required")
		return
	}

	if err := h.supervisor.Stop(req.RoomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Bot stopped", "room_id": req.RoomID})
}

// Restart 重启指定房间的机器人进程
func (h *BotHandler) Restart(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.BotRestart: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room_id required")
		return
	}

	if err := h.supervisor.Restart(c.Request.Context(), req.RoomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Bot restarted", "room_id": req.RoomID})
}

// Status 返回全部机器人进程的状态快照
func (h *BotHandler) Status(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.supervisor.Status())
}
