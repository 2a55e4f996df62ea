package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// RoomRepository 是 repository.RoomRepository 的 Mock 实现
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindByHighriseID(ctx context.Context, highriseRoomID string) (*domain.Room, error) {
	args := m.Called(ctx, highriseRoomID)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindAllActive(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	var rooms []domain.Room
	if args.Get(0) != nil {
		rooms = args.Get(0).([]domain.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) UpdateCurrentSong(ctx context.Context, roomID uint, songJSON string) error {
	args := m.Called(ctx, roomID, songJSON)
	return args.Error(0)
}

func (m *RoomRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
