package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormBotConfigRepository 是 BotConfigRepository 接口的 GORM 实现
type GormBotConfigRepository struct {
	db *gorm.DB
}

// NewGormBotConfigRepository 创建 GormBotConfigRepository 实例
func NewGormBotConfigRepository(db *gorm.DB) *GormBotConfigRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBotConfigRepository")
	}
	return &GormBotConfigRepository{db: db}
}

// FindByRoomID 查找房间配置，软删除的视同不存在
func (r *GormBotConfigRepository) FindByRoomID(ctx context.Context, roomID uint) (*domain.BotConfiguration, error) {
	var config domain.BotConfiguration
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConfigNotFound
		}
		return nil, fmt.Errorf("gorm: find bot config for room %d: %w", roomID, err)
	}
	return &config, nil
}

// FindAllActive 返回所有活跃配置
func (r *GormBotConfigRepository) FindAllActive(ctx context.Context) ([]domain.BotConfiguration, error) {
	var configs []domain.BotConfiguration
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active bot configs: %w", err)
	}
	return configs, nil
}

// Save 保存配置（创建或更新）
func (r *GormBotConfigRepository) Save(ctx context.Context, config *domain.BotConfiguration) error {
	err := r.db.WithContext(ctx).Save(config).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save bot config (id: %d, room: %d): %w", config.ID, config.RoomID, err)
	}
	return nil
}

// SoftDelete 将配置标记为不活跃
func (r *GormBotConfigRepository) SoftDelete(ctx context.Context, roomID uint) error {
	result := r.db.WithContext(ctx).Model(&domain.BotConfiguration{}).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("gorm: soft delete bot config for room %d: %w", roomID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrConfigNotFound
	}
	return nil
}

// SetLastStarted 记录最近启动时间
func (r *GormBotConfigRepository) SetLastStarted(ctx context.Context, roomID uint, ts time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.BotConfiguration{}).
		Where("room_id = ?", roomID).
		Update("last_started", ts).Error
	if err != nil {
		return fmt.Errorf("gorm: set last started for room %d: %w", roomID, err)
	}
	return nil
}
