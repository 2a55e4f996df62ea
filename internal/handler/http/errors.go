package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
	"github.com/Keknotocrack/hr-music-bot/internal/supervisor"
)

// HandleServiceError 把 Service/Supervisor 层的业务错误映射为 HTTP 状态码。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrQueueFull):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientCubes),
		errors.Is(err, service.ErrRewardAlreadyClaimed):
		// 仪表盘前端约定余额类错误返回 400
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrQueueItemNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, service.ErrCompetitionNotFound),
		errors.Is(err, service.ErrShortLinkNotFound),
		errors.Is(err, service.ErrStatsNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, supervisor.ErrNotRunning),
		errors.Is(err, supervisor.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, supervisor.ErrConfigMissing),
		errors.Is(err, supervisor.ErrCredentialMissing):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
