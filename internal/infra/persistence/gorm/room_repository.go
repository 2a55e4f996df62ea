package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID 实现根据内部 ID 查找房间
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

// FindByHighriseID 实现根据外部房间 ID 查找房间
func (r *GormRoomRepository) FindByHighriseID(ctx context.Context, highriseRoomID string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("highrise_room_id = ?", highriseRoomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by highrise id '%s': %w", highriseRoomID, err)
	}
	return &room, nil
}

// FindAllActive 返回所有活跃房间
func (r *GormRoomRepository) FindAllActive(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active rooms: %w", err)
	}
	return rooms, nil
}

// Save 实现保存房间信息（创建或更新）
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, highrise: %s): %w", room.ID, room.HighriseRoomID, err)
	}
	return nil
}

// UpdateCurrentSong 更新当前歌曲快照
func (r *GormRoomRepository) UpdateCurrentSong(ctx context.Context, roomID uint, songJSON string) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", roomID).Update("current_song", songJSON)
	if result.Error != nil {
		return fmt.Errorf("gorm: update current song for room %d: %w", roomID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}

// CountActive 返回活跃房间数
func (r *GormRoomRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("is_active = ?", true).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count active rooms: %w", err)
	}
	return count, nil
}
