package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// CompetitionHandler 封装了点歌比赛相关的 HTTP 处理逻辑
type CompetitionHandler struct {
	competitions *service.CompetitionService
}

// NewCompetitionHandler 创建 CompetitionHandler 实例
func NewCompetitionHandler(competitions *service.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitions: competitions}
}

// StartCompetitionRequest 定义开启比赛请求的结构体
type StartCompetitionRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Prize           string `json:"prize"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// Start 在房间内开启一场比赛
func (h *CompetitionHandler) Start(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req StartCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CompetitionStart: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: name and duration_minutes required")
		return
	}

	comp, err := h.competitions.Start(c.Request.Context(), roomID, req.Name, req.Description, req.Prize,
		time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, comp)
}

// EndCompetitionRequest 定义结束比赛请求的结构体
type EndCompetitionRequest struct {
	WinnerID *uint `json:"winner_id"`
}

// End 结束比赛并记录胜者
func (h *CompetitionHandler) End(c *gin.Context) {
	compID, ok := parseUintParam(c, "competitionId")
	if !ok {
		return
	}

	var req EndCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CompetitionEnd: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid competition end payload")
		return
	}

	if err := h.competitions.End(c.Request.Context(), compID, req.WinnerID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Competition ended"})
}

// ListActive 返回房间内进行中的比赛
func (h *CompetitionHandler) ListActive(c *gin.Context) {
	roomID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	comps, err := h.competitions.ListActive(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, comps)
}
