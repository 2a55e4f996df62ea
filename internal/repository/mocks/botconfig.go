package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// BotConfigRepository 是 repository.BotConfigRepository 的 Mock 实现
type BotConfigRepository struct {
	mock.Mock
}

func (m *BotConfigRepository) FindByRoomID(ctx context.Context, roomID uint) (*domain.BotConfiguration, error) {
	args := m.Called(ctx, roomID)
	var config *domain.BotConfiguration
	if args.Get(0) != nil {
		config = args.Get(0).(*domain.BotConfiguration)
	}
	return config, args.Error(1)
}

func (m *BotConfigRepository) FindAllActive(ctx context.Context) ([]domain.BotConfiguration, error) {
	args := m.Called(ctx)
	var configs []domain.BotConfiguration
	if args.Get(0) != nil {
		configs = args.Get(0).([]domain.BotConfiguration)
	}
	return configs, args.Error(1)
}

func (m *BotConfigRepository) Save(ctx context.Context, config *domain.BotConfiguration) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *BotConfigRepository) SoftDelete(ctx context.Context, roomID uint) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *BotConfigRepository) SetLastStarted(ctx context.Context, roomID uint, ts time.Time) error {
	args := m.Called(ctx, roomID, ts)
	return args.Error(0)
}
