package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// URLService 负责房间分享短链的业务逻辑。
type URLService struct {
	urls  repository.URLRepository
	rooms repository.RoomRepository
}

// NewURLService 创建 URLService 实例。
func NewURLService(urls repository.URLRepository, rooms repository.RoomRepository) *URLService {
	if urls == nil {
		panic("URLRepository cannot be nil for URLService")
	}
	if rooms == nil {
		panic("RoomRepository cannot be nil for URLService")
	}
	return &URLService{urls: urls, rooms: rooms}
}

// CreateShortLink 为房间生成一条短链。短码随机生成并保证全局唯一。
func (s *URLService) CreateShortLink(ctx context.Context, roomID, createdBy uint, expiresAt *time.Time) (*domain.URLMapping, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "created_by": createdBy})

	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Short link creation rejected: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for short link")
		return nil, ErrInternalServer
	}

	shortCode, err := s.generateUniqueShortCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique short code")
		return nil, ErrInternalServer
	}

	mapping := &domain.URLMapping{
		ShortCode: shortCode,
		RoomID:    roomID,
		CreatedBy: createdBy,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.urls.Insert(ctx, mapping); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 唯一性检查和插入之间被并发占用，视为内部错误
			logCtx.WithError(err).Error("Short code collided after uniqueness check")
			return nil, ErrInternalServer
		}
		logCtx.WithError(err).Error("Database error creating short link")
		return nil, ErrInternalServer
	}

	logCtx.WithField("short_code", mapping.ShortCode).Info("Short link created")
	return mapping, nil
}

// Resolve 解析短码并累加点击计数。过期或停用的短链视为不存在。
func (s *URLService) Resolve(ctx context.Context, shortCode string) (*domain.Room, error) {
	logCtx := logrus.WithField("short_code", shortCode)

	mapping, err := s.urls.FindByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Debug("Short link not found")
			return nil, ErrShortLinkNotFound
		}
		logCtx.WithError(err).Error("Database error resolving short link")
		return nil, ErrInternalServer
	}
	if !mapping.IsActive || (mapping.ExpiresAt != nil && time.Now().After(*mapping.ExpiresAt)) {
		logCtx.Debug("Short link inactive or expired")
		return nil, ErrShortLinkNotFound
	}

	room, err := s.rooms.FindByID(ctx, mapping.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Short link points to a missing room")
			return nil, ErrShortLinkNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for short link")
		return nil, ErrInternalServer
	}

	// 计数是尽力而为的，失败不影响跳转
	if err := s.urls.IncrementClicks(ctx, shortCode); err != nil {
		logCtx.WithError(err).Warn("Failed to increment short link click count")
	}
	return room, nil
}

// --- 私有辅助函数 ---

// generateUniqueShortCode 生成全局唯一的短码
func (s *URLService) generateUniqueShortCode(ctx context.Context) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const codeLength = 8
	const maxAttempts = 10

	b := make([]byte, codeLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for i := range b {
			b[i] = letters[int(b[i])%len(letters)]
		}
		code := string(b)

		exists, err := s.urls.IsShortCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("database error checking short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique short code after %d attempts", maxAttempts)
}
