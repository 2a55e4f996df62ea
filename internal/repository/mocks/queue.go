package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// QueueRepository 是 repository.QueueRepository 的 Mock 实现
type QueueRepository struct {
	mock.Mock
}

func (m *QueueRepository) FindByID(ctx context.Context, id uint) (*domain.QueueItem, error) {
	args := m.Called(ctx, id)
	var item *domain.QueueItem
	if args.Get(0) != nil {
		item = args.Get(0).(*domain.QueueItem)
	}
	return item, args.Error(1)
}

func (m *QueueRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.QueueItem, error) {
	args := m.Called(ctx, roomID)
	var items []domain.QueueItem
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.QueueItem)
	}
	return items, args.Error(1)
}

func (m *QueueRepository) ListAll(ctx context.Context) ([]domain.QueueItem, error) {
	args := m.Called(ctx)
	var items []domain.QueueItem
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.QueueItem)
	}
	return items, args.Error(1)
}

func (m *QueueRepository) Insert(ctx context.Context, item *domain.QueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *QueueRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *QueueRepository) MaxPosition(ctx context.Context, roomID uint) (int, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Error(1)
}

func (m *QueueRepository) ShiftPositionsAfter(ctx context.Context, roomID uint, position int) error {
	args := m.Called(ctx, roomID, position)
	return args.Error(0)
}

func (m *QueueRepository) AdjustLikes(ctx context.Context, id uint, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *QueueRepository) ClearPlaying(ctx context.Context, roomID uint) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *QueueRepository) SetPlaying(ctx context.Context, id uint, playing bool) error {
	args := m.Called(ctx, id, playing)
	return args.Error(0)
}

// LikeRepository 是 repository.LikeRepository 的 Mock 实现
type LikeRepository struct {
	mock.Mock
}

func (m *LikeRepository) Insert(ctx context.Context, like *domain.SongLike) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *LikeRepository) Delete(ctx context.Context, userID, queueItemID uint) (bool, error) {
	args := m.Called(ctx, userID, queueItemID)
	return args.Bool(0), args.Error(1)
}
