package repository

import (
	"context"
	"time"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// StatsRepository 定义了按天统计行的存储操作。
type StatsRepository interface {
	// UpsertForDate 写入某天的统计行，已存在则覆盖。
	// date 应已截断到天。
	UpsertForDate(ctx context.Context, stats *domain.BotStatistics) error

	// FindByDate 查找某天的统计行。不存在时返回 repository.ErrNotFound。
	FindByDate(ctx context.Context, date time.Time) (*domain.BotStatistics, error)
}
