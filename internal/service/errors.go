package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrQueueItemNotFound    = errors.New("queue item not found")
	ErrConfigNotFound       = errors.New("bot configuration not found")
	ErrCompetitionNotFound  = errors.New("competition not found")
	ErrShortLinkNotFound    = errors.New("short link not found")
	ErrStatsNotFound        = errors.New("statistics not found for date")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")
	ErrInsufficientCubes    = errors.New("insufficient cube balance")
	ErrRewardAlreadyClaimed = errors.New("daily reward already claimed")
	ErrQueueFull            = errors.New("queue is full")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("operation not permitted")
	ErrInternalServer       = errors.New("internal server error")
)
