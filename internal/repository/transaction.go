package repository

import (
	"context"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// TransactionRepository 定义了方块流水的存储操作。流水只追加。
type TransactionRepository interface {
	// Insert 追加一条流水记录。
	Insert(ctx context.Context, tx *domain.CubeTransaction) error

	// ListByUser 返回用户的全部流水，按创建时间倒序。
	ListByUser(ctx context.Context, userID uint) ([]domain.CubeTransaction, error)

	// SumByUser 返回用户全部流水金额之和 (审计用，应等于当前余额)。
	SumByUser(ctx context.Context, userID uint) (int64, error)

	// CountByType 返回某类型流水的条数 (统计任务使用)。
	CountByType(ctx context.Context, txType string) (int64, error)
}
