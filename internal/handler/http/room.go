package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
	urlService  *service.URLService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService, urlService *service.URLService) *RoomHandler {
	return &RoomHandler{roomService: roomService, urlService: urlService}
}

// CreateRoomRequest 定义创建房间请求的结构体
type CreateRoomRequest struct {
	HighriseRoomID string `json:"highrise_room_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
}

// CreateRoom 处理创建房间请求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateRoom: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: highrise_room_id and name required")
		return
	}

	userID := c.GetUint("user_id")
	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.HighriseRoomID, req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, room)
}

// ListRooms 返回所有活跃房间
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rooms)
}

// GetRoom 返回单个房间的信息
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	room, err := h.roomService.FindRoomByID(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

// DeactivateRoom 软删除房间
func (h *RoomHandler) DeactivateRoom(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.DeactivateRoom(c.Request.Context(), roomID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room deactivated"})
}

// CreateShortLink 为房间生成一条分享短链
func (h *RoomHandler) CreateShortLink(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	mapping, err := h.urlService.CreateShortLink(c.Request.Context(), roomID, userID, nil)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, mapping)
}

// ResolveShortLink 解析短码并返回目标房间
func (h *RoomHandler) ResolveShortLink(c *gin.Context) {
	shortCode := c.Param("code")
	if shortCode == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid short code")
		return
	}
	room, err := h.urlService.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}
