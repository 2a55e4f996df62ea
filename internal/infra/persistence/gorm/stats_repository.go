package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormStatsRepository 是 StatsRepository 接口的 GORM 实现
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository 创建 GormStatsRepository 实例
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	if db == nil {
		panic("database connection cannot be nil for GormStatsRepository")
	}
	return &GormStatsRepository{db: db}
}

// UpsertForDate 按日期写入统计行，冲突时覆盖计数列
func (r *GormStatsRepository) UpsertForDate(ctx context.Context, stats *domain.BotStatistics) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_users", "total_songs_played", "total_cubes_circulating", "active_rooms",
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert statistics for %s: %w", stats.Date.Format("2006-01-02"), err)
	}
	return nil
}

// FindByDate 查找某天的统计行
func (r *GormStatsRepository) FindByDate(ctx context.Context, date time.Time) (*domain.BotStatistics, error) {
	var stats domain.BotStatistics
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find statistics for %s: %w", date.Format("2006-01-02"), err)
	}
	return &stats, nil
}
