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

// GormCompetitionRepository 是 CompetitionRepository 接口的 GORM 实现
type GormCompetitionRepository struct {
	db *gorm.DB
}

// NewGormCompetitionRepository 创建 GormCompetitionRepository 实例
func NewGormCompetitionRepository(db *gorm.DB) *GormCompetitionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCompetitionRepository")
	}
	return &GormCompetitionRepository{db: db}
}

// FindByID 根据 ID 查找比赛
func (r *GormCompetitionRepository) FindByID(ctx context.Context, id uint) (*domain.Competition, error) {
	var comp domain.Competition
	err := r.db.WithContext(ctx).First(&comp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find competition by id %d: %w", id, err)
	}
	return &comp, nil
}

// FindActiveByRoom 返回房间内进行中的比赛
func (r *GormCompetitionRepository) FindActiveByRoom(ctx context.Context, roomID uint) ([]domain.Competition, error) {
	var comps []domain.Competition
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Find(&comps).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active competitions for room %d: %w", roomID, err)
	}
	return comps, nil
}

// FindExpiredActive 返回所有已过结束时间但仍标记为进行中的比赛
func (r *GormCompetitionRepository) FindExpiredActive(ctx context.Context, before time.Time) ([]domain.Competition, error) {
	var comps []domain.Competition
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND end_time <= ?", true, before).
		Find(&comps).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find expired active competitions: %w", err)
	}
	return comps, nil
}

// Insert 创建比赛
func (r *GormCompetitionRepository) Insert(ctx context.Context, comp *domain.Competition) error {
	if err := r.db.WithContext(ctx).Create(comp).Error; err != nil {
		return fmt.Errorf("gorm: insert competition (room %d, name %s): %w", comp.RoomID, comp.Name, err)
	}
	return nil
}

// End 结束比赛并记录胜者
func (r *GormCompetitionRepository) End(ctx context.Context, id uint, winnerID *uint) error {
	result := r.db.WithContext(ctx).Model(&domain.Competition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "winner_id": winnerID})
	if result.Error != nil {
		return fmt.Errorf("gorm: end competition %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
