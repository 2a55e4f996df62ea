package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// RoomService 负责房间管理相关的业务逻辑。
type RoomService struct {
	roomRepo repository.RoomRepository
	events   Publisher
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, events Publisher) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if events == nil {
		panic("Publisher cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo: roomRepo,
		events:   events,
	}
}

// CreateRoom 注册一个新房间。外部平台房间 ID 全局唯一。
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uint, highriseRoomID, name string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "highrise_room_id": highriseRoomID})

	if highriseRoomID == "" || name == "" {
		return nil, ErrInvalidInput
	}

	room := &domain.Room{
		HighriseRoomID: highriseRoomID,
		Name:           name,
		OwnerID:        ownerID,
		IsActive:       true,
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("Room creation failed: highrise room ID already registered")
			return nil, ErrInvalidInput
		}
		logCtx.WithError(err).Error("Failed to save new room to database")
		return nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	s.events.Publish(hub.Event{Type: hub.EventRoomCreated, Data: room})
	return room, nil
}

// ListRooms 返回所有活跃房间。
func (s *RoomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindAllActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("Database error listing rooms")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// FindRoomByID 根据内部 ID 查找房间。
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	logCtx := logrus.WithField("room_id", roomID)
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("FindRoomByID: Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("FindRoomByID: Repository error")
		return nil, ErrInternalServer
	}
	if room == nil {
		logCtx.Warn("FindRoomByID: Repository returned nil room without error")
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// FindRoomByHighriseID 根据外部平台房间 ID 查找房间。
func (s *RoomService) FindRoomByHighriseID(ctx context.Context, highriseRoomID string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByHighriseID(ctx, highriseRoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("highrise_room_id", highriseRoomID).Error("Database error finding room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// DeactivateRoom 软删除房间。历史队列和流水保持可查。
func (s *RoomService) DeactivateRoom(ctx context.Context, roomID uint) error {
	logCtx := logrus.WithField("room_id", roomID)

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Deactivate rejected: room not found")
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for deactivation")
		return ErrInternalServer
	}

	room.IsActive = false
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Database error deactivating room")
		return ErrInternalServer
	}
	logCtx.Info("Room deactivated")
	return nil
}
