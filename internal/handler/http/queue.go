package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// QueueHandler 封装了与点歌队列相关的 HTTP 处理逻辑
type QueueHandler struct {
	economy *service.EconomyService
}

// NewQueueHandler 创建 QueueHandler 实例
func NewQueueHandler(economy *service.EconomyService) *QueueHandler {
	return &QueueHandler{economy: economy}
}

// Enqueue 处理点歌请求 (扣费并追加到队列尾部)
func (h *QueueHandler) Enqueue(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req service.SongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Enqueue: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: song_title, platform and platform_url required")
		return
	}

	userID := c.GetUint("user_id")
	item, err := h.economy.Enqueue(c.Request.Context(), userID, roomID, req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, item)
}

// ListQueue 返回房间的播放队列
func (h *QueueHandler) ListQueue(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	items, err := h.economy.ListQueue(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, items)
}

// ListAllQueues 返回所有房间的队列 (仪表盘总览)
func (h *QueueHandler) ListAllQueues(c *gin.Context) {
	items, err := h.economy.ListAllQueues(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, items)
}

// Dequeue 从队列中移除一个条目 (花掉的方块不退还)
func (h *QueueHandler) Dequeue(c *gin.Context) {
	itemID, ok := parseUintParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.economy.Dequeue(c.Request.Context(), itemID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Queue item removed"})
}

// Like 为队列条目点赞 (幂等)
func (h *QueueHandler) Like(c *gin.Context) {
	itemID, ok := parseUintParam(c, "itemId")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	if err := h.economy.Like(c.Request.Context(), userID, itemID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Song liked"})
}

// Unlike 撤销点赞 (幂等)
func (h *QueueHandler) Unlike(c *gin.Context) {
	itemID, ok := parseUintParam(c, "itemId")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	if err := h.economy.Unlike(c.Request.Context(), userID, itemID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Like removed"})
}

// MarkPlaying 把条目标记为正在播放
func (h *QueueHandler) MarkPlaying(c *gin.Context) {
	itemID, ok := parseUintParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.economy.MarkPlaying(c.Request.Context(), itemID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Queue item marked as playing"})
}
