package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
	"github.com/Keknotocrack/hr-music-bot/internal/repository/mocks"
	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

func newBotConfigFixture() (*service.BotConfigService, *mocks.BotConfigRepository, *mocks.RoomRepository, *eventRecorder) {
	mockConfigs := new(mocks.BotConfigRepository)
	mockRooms := new(mocks.RoomRepository)
	events := &eventRecorder{}
	return service.NewBotConfigService(mockConfigs, mockRooms, events), mockConfigs, mockRooms, events
}

func TestBotConfig_Upsert_CreatesWithDefaults(t *testing.T) {
	svc, mockConfigs, mockRooms, events := newBotConfigFixture()
	ctx := context.Background()

	mockRooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	mockConfigs.On("FindByRoomID", ctx, uint(2)).Return(nil, repository.ErrConfigNotFound)
	mockConfigs.On("Save", ctx, mock.MatchedBy(func(config *domain.BotConfiguration) bool {
		// 持久化的是真实凭证和默认参数
		return config.APIToken == "hr-token-1" &&
			config.SongCost == service.DefaultSongCost &&
			config.MaxQueueSize == 50 &&
			config.IsActive
	})).Return(nil)

	config, err := svc.Upsert(ctx, 2, service.BotConfigInput{APIToken: "hr-token-1"})

	require.NoError(t, err)
	assert.Equal(t, service.MaskedToken, config.APIToken, "返回的配置凭证应被脱敏")
	assert.Contains(t, events.types(), hub.EventBotConfigCreated)
}

func TestBotConfig_Upsert_CreateRequiresToken(t *testing.T) {
	svc, mockConfigs, mockRooms, _ := newBotConfigFixture()
	ctx := context.Background()

	mockRooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	mockConfigs.On("FindByRoomID", ctx, uint(2)).Return(nil, repository.ErrConfigNotFound)

	_, err := svc.Upsert(ctx, 2, service.BotConfigInput{SongCost: 20})

	require.ErrorIs(t, err, service.ErrInvalidInput)
	mockConfigs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBotConfig_Upsert_UpdateKeepsOldToken(t *testing.T) {
	svc, mockConfigs, mockRooms, events := newBotConfigFixture()
	ctx := context.Background()

	mockRooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	mockConfigs.On("FindByRoomID", ctx, uint(2)).
		Return(&domain.BotConfiguration{ID: 1, RoomID: 2, APIToken: "old-token", SongCost: 10}, nil)
	mockConfigs.On("Save", ctx, mock.MatchedBy(func(config *domain.BotConfiguration) bool {
		return config.APIToken == "old-token" && config.SongCost == 25
	})).Return(nil)

	_, err := svc.Upsert(ctx, 2, service.BotConfigInput{SongCost: 25})

	require.NoError(t, err, "更新时留空凭证表示保留旧值")
	assert.Contains(t, events.types(), hub.EventBotConfigUpdated)
}

func TestBotConfig_Get_MasksToken(t *testing.T) {
	svc, mockConfigs, _, _ := newBotConfigFixture()
	ctx := context.Background()

	stored := &domain.BotConfiguration{ID: 1, RoomID: 2, APIToken: "real-secret"}
	mockConfigs.On("FindByRoomID", ctx, uint(2)).Return(stored, nil)

	config, err := svc.Get(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, service.MaskedToken, config.APIToken)
	assert.Equal(t, "real-secret", stored.APIToken, "脱敏不应修改存储中的凭证")
}

func TestBotConfig_Delete_PublishesEvent(t *testing.T) {
	svc, mockConfigs, _, events := newBotConfigFixture()
	ctx := context.Background()

	mockConfigs.On("SoftDelete", ctx, uint(2)).Return(nil)

	require.NoError(t, svc.Delete(ctx, 2))
	assert.Contains(t, events.types(), hub.EventBotConfigDeleted)
}
