package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// MaskedToken 是对外展示 API token 时的固定占位串。
// 真实凭证只进入 worker 进程的环境，绝不回显给客户端。
const MaskedToken = "••••••••••••"

// BotConfigInput 是创建或更新机器人配置的入参。
type BotConfigInput struct {
	APIToken           string `json:"api_token"`
	AutoStart          *bool  `json:"auto_start"`
	WelcomeMessage     string `json:"welcome_message"`
	MaxQueueSize       int    `json:"max_queue_size"`
	SongCost           int    `json:"song_cost"`
	EnableCompetitions *bool  `json:"enable_competitions"`
	PlatformPreference string `json:"platform_preference"`
}

// BotConfigService 负责每房间机器人配置的业务逻辑。
type BotConfigService struct {
	configs repository.BotConfigRepository
	rooms   repository.RoomRepository
	events  Publisher
}

// NewBotConfigService 创建 BotConfigService 实例。
func NewBotConfigService(configs repository.BotConfigRepository, rooms repository.RoomRepository, events Publisher) *BotConfigService {
	if configs == nil {
		panic("BotConfigRepository cannot be nil for BotConfigService")
	}
	if rooms == nil {
		panic("RoomRepository cannot be nil for BotConfigService")
	}
	if events == nil {
		panic("Publisher cannot be nil for BotConfigService")
	}
	return &BotConfigService{configs: configs, rooms: rooms, events: events}
}

// Upsert 创建或更新房间的机器人配置。每个房间最多一份，
// 已存在时为更新。更新时留空的 APIToken 表示保留旧凭证。
func (s *BotConfigService) Upsert(ctx context.Context, roomID uint, input BotConfigInput) (*domain.BotConfiguration, error) {
	logCtx := logrus.WithField("room_id", roomID)

	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Config upsert rejected: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for config upsert")
		return nil, ErrInternalServer
	}

	config, err := s.configs.FindByRoomID(ctx, roomID)
	created := false
	if err != nil {
		if !errors.Is(err, repository.ErrConfigNotFound) {
			logCtx.WithError(err).Error("Database error loading bot configuration")
			return nil, ErrInternalServer
		}
		if input.APIToken == "" {
			// 新建配置必须带凭证
			return nil, ErrInvalidInput
		}
		created = true
		config = &domain.BotConfiguration{
			RoomID:             roomID,
			AutoStart:          true,
			MaxQueueSize:       50,
			SongCost:           DefaultSongCost,
			EnableCompetitions: true,
			PlatformPreference: "all",
			IsActive:           true,
		}
	}

	if input.APIToken != "" {
		config.APIToken = input.APIToken
	}
	if input.AutoStart != nil {
		config.AutoStart = *input.AutoStart
	}
	if input.WelcomeMessage != "" {
		config.WelcomeMessage = input.WelcomeMessage
	}
	if input.MaxQueueSize > 0 {
		config.MaxQueueSize = input.MaxQueueSize
	}
	if input.SongCost > 0 {
		config.SongCost = input.SongCost
	}
	if input.EnableCompetitions != nil {
		config.EnableCompetitions = *input.EnableCompetitions
	}
	if input.PlatformPreference != "" {
		config.PlatformPreference = input.PlatformPreference
	}
	config.IsActive = true

	if err := s.configs.Save(ctx, config); err != nil {
		logCtx.WithError(err).Error("Database error saving bot configuration")
		return nil, ErrInternalServer
	}

	eventType := hub.EventBotConfigUpdated
	if created {
		eventType = hub.EventBotConfigCreated
	}
	logCtx.WithField("config_id", config.ID).Info("Bot configuration saved")
	s.events.Publish(hub.Event{Type: eventType, Data: Sanitize(config)})
	return Sanitize(config), nil
}

// Get 返回房间的配置 (凭证已脱敏)。
func (s *BotConfigService) Get(ctx context.Context, roomID uint) (*domain.BotConfiguration, error) {
	config, err := s.configs.FindByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return nil, ErrConfigNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error loading bot configuration")
		return nil, ErrInternalServer
	}
	return Sanitize(config), nil
}

// List 返回所有活跃配置 (凭证已脱敏)。
func (s *BotConfigService) List(ctx context.Context) ([]domain.BotConfiguration, error) {
	configs, err := s.configs.FindAllActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("Database error listing bot configurations")
		return nil, ErrInternalServer
	}
	sanitized := make([]domain.BotConfiguration, 0, len(configs))
	for _, config := range configs {
		sanitized = append(sanitized, *Sanitize(&config))
	}
	return sanitized, nil
}

// Delete 软删除房间配置。流水式历史数据不受影响。
func (s *BotConfigService) Delete(ctx context.Context, roomID uint) error {
	logCtx := logrus.WithField("room_id", roomID)

	if err := s.configs.SoftDelete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			logCtx.Warn("Config delete rejected: configuration not found")
			return ErrConfigNotFound
		}
		logCtx.WithError(err).Error("Database error deleting bot configuration")
		return ErrInternalServer
	}

	logCtx.Info("Bot configuration deleted")
	s.events.Publish(hub.Event{Type: hub.EventBotConfigDeleted, Data: map[string]interface{}{"roomId": roomID}})
	return nil
}

// Sanitize 返回凭证已脱敏的配置副本，原值不受影响。
func Sanitize(config *domain.BotConfiguration) *domain.BotConfiguration {
	sanitized := *config
	if sanitized.APIToken != "" {
		sanitized.APIToken = MaskedToken
	}
	return &sanitized
}
