package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormURLRepository 是 URLRepository 接口的 GORM 实现
type GormURLRepository struct {
	db *gorm.DB
}

// NewGormURLRepository 创建 GormURLRepository 实例
func NewGormURLRepository(db *gorm.DB) *GormURLRepository {
	if db == nil {
		panic("database connection cannot be nil for GormURLRepository")
	}
	return &GormURLRepository{db: db}
}

// FindByShortCode 根据短码查找映射
func (r *GormURLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error) {
	var mapping domain.URLMapping
	err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find url mapping by short code '%s': %w", shortCode, err)
	}
	return &mapping, nil
}

// Insert 创建短链映射
func (r *GormURLRepository) Insert(ctx context.Context, mapping *domain.URLMapping) error {
	err := r.db.WithContext(ctx).Create(mapping).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: insert url mapping (code %s, room %d): %w", mapping.ShortCode, mapping.RoomID, err)
	}
	return nil
}

// IsShortCodeExists 检查短码是否已占用
func (r *GormURLRepository) IsShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.URLMapping{}).
		Where("short_code = ?", shortCode).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check short code '%s' exists: %w", shortCode, err)
	}
	return count > 0, nil
}

// IncrementClicks 累加点击计数
func (r *GormURLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	result := r.db.WithContext(ctx).Model(&domain.URLMapping{}).
		Where("short_code = ?", shortCode).
		Update("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("gorm: increment clicks for '%s': %w", shortCode, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
