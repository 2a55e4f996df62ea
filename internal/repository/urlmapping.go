package repository

import (
	"context"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// URLRepository 定义了房间短链的存储操作。
type URLRepository interface {
	// FindByShortCode 根据短码查找映射。不存在时返回 repository.ErrNotFound。
	FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error)

	// Insert 创建一条短链映射。短码冲突时返回 repository.ErrDuplicateEntry。
	Insert(ctx context.Context, mapping *domain.URLMapping) error

	// IsShortCodeExists 检查短码是否已被占用。
	IsShortCodeExists(ctx context.Context, shortCode string) (bool, error)

	// IncrementClicks 原子地累加点击计数。
	IncrementClicks(ctx context.Context, shortCode string) error
}
