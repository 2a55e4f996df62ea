package repository

import (
	"context"
	"time"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// CompetitionRepository 定义了比赛活动的存储操作。
type CompetitionRepository interface {
	// FindByID 根据 ID 查找比赛。不存在时返回 repository.ErrNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Competition, error)

	// FindActiveByRoom 返回房间内进行中的比赛。
	FindActiveByRoom(ctx context.Context, roomID uint) ([]domain.Competition, error)

	// FindExpiredActive 返回已过结束时间但仍标记为进行中的比赛 (清扫任务使用)。
	FindExpiredActive(ctx context.Context, before time.Time) ([]domain.Competition, error)

	// Insert 创建一场比赛。
	Insert(ctx context.Context, comp *domain.Competition) error

	// End 结束比赛并记录胜者 (可为 nil)。
	End(ctx context.Context, id uint, winnerID *uint) error
}
