package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// BotConfigHandler 封装了机器人配置相关的 HTTP 处理逻辑
type BotConfigHandler struct {
	configService *service.BotConfigService
}

// NewBotConfigHandler 创建 BotConfigHandler 实例
func NewBotConfigHandler(configService *service.BotConfigService) *BotConfigHandler {
	return &BotConfigHandler{configService: configService}
}

// Upsert 创建或更新房间的机器人配置
func (h *BotConfigHandler) Upsert(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var input service.BotConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("Handler.ConfigUpsert: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid bot configuration payload")
		return
	}

	config, err := h.configService.Upsert(c.Request.Context(), roomID, input)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, config)
}

// Get 返回房间的机器人配置 (凭证已脱敏)
func (h *BotConfigHandler) Get(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	config, err := h.configService.Get(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, config)
}

// List 返回所有活跃的机器人配置
func (h *BotConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, configs)
}

// Delete 软删除房间的机器人配置
func (h *BotConfigHandler) Delete(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.configService.Delete(c.Request.Context(), roomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Bot configuration deleted"})
}
