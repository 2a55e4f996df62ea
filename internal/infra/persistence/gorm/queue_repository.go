package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormQueueRepository 是 QueueRepository 接口的 GORM 实现
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository 创建 GormQueueRepository 实例
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	if db == nil {
		panic("database connection cannot be nil for GormQueueRepository")
	}
	return &GormQueueRepository{db: db}
}

// FindByID 实现根据 ID 查找队列条目
func (r *GormQueueRepository) FindByID(ctx context.Context, id uint) (*domain.QueueItem, error) {
	var item domain.QueueItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrQueueItemNotFound
		}
		return nil, fmt.Errorf("gorm: find queue item by id %d: %w", id, err)
	}
	return &item, nil
}

// ListByRoom 返回房间队列，按位置升序
func (r *GormQueueRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("position ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list queue for room %d: %w", roomID, err)
	}
	return items, nil
}

// ListAll 返回所有房间的队列条目
func (r *GormQueueRepository) ListAll(ctx context.Context) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := r.db.WithContext(ctx).Order("room_id ASC, position ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list all queue items: %w", err)
	}
	return items, nil
}

// Insert 插入队列条目
func (r *GormQueueRepository) Insert(ctx context.Context, item *domain.QueueItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("gorm: insert queue item (room %d, title %s): %w", item.RoomID, item.SongTitle, err)
	}
	return nil
}

// Delete 删除队列条目
func (r *GormQueueRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.QueueItem{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete queue item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrQueueItemNotFound
	}
	return nil
}

// MaxPosition 返回房间当前最大位置，空队列返回 0
func (r *GormQueueRepository) MaxPosition(ctx context.Context, roomID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(MAX(position), 0)").Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: max position for room %d: %w", roomID, err)
	}
	return max, nil
}

// ShiftPositionsAfter 将 position 之后的条目整体前移一位
func (r *GormQueueRepository) ShiftPositionsAfter(ctx context.Context, roomID uint, position int) error {
	err := r.db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("room_id = ? AND position > ?", roomID, position).
		Update("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("gorm: shift positions after %d in room %d: %w", position, roomID, err)
	}
	return nil
}

// AdjustLikes 调整点赞计数，下限为 0
func (r *GormQueueRepository) AdjustLikes(ctx context.Context, id uint, delta int) error {
	result := r.db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("id = ?", id).
		Update("likes", gorm.Expr("GREATEST(likes + ?, 0)", delta))
	if result.Error != nil {
		return fmt.Errorf("gorm: adjust likes for queue item %d by %d: %w", id, delta, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrQueueItemNotFound
	}
	return nil
}

// ClearPlaying 清除房间内所有播放标记
func (r *GormQueueRepository) ClearPlaying(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("room_id = ? AND is_playing = ?", roomID, true).
		Update("is_playing", false).Error
	if err != nil {
		return fmt.Errorf("gorm: clear playing flags in room %d: %w", roomID, err)
	}
	return nil
}

// SetPlaying 设置单个条目的播放标记
func (r *GormQueueRepository) SetPlaying(ctx context.Context, id uint, playing bool) error {
	result := r.db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("id = ?", id).Update("is_playing", playing)
	if result.Error != nil {
		return fmt.Errorf("gorm: set playing=%t for queue item %d: %w", playing, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrQueueItemNotFound
	}
	return nil
}

// GormLikeRepository 是 LikeRepository 接口的 GORM 实现
type GormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository 创建 GormLikeRepository 实例
func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	if db == nil {
		panic("database connection cannot be nil for GormLikeRepository")
	}
	return &GormLikeRepository{db: db}
}

// Insert 插入点赞关系
func (r *GormLikeRepository) Insert(ctx context.Context, like *domain.SongLike) error {
	err := r.db.WithContext(ctx).Create(like).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: insert like (user %d, item %d): %w", like.UserID, like.QueueItemID, err)
	}
	return nil
}

// Delete 删除点赞关系，返回是否确实删除了记录
func (r *GormLikeRepository) Delete(ctx context.Context, userID, queueItemID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND queue_item_id = ?", userID, queueItemID).
		Delete(&domain.SongLike{})
	if result.Error != nil {
		return false, fmt.Errorf("gorm: delete like (user %d, item %d): %w", userID, queueItemID, result.Error)
	}
	return result.RowsAffected > 0, nil
}
