package repository

import (
	"context"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// QueueRepository 定义了房间播放队列的存储操作。
// 位置连续性等跨行不变式由 Service 层在事务内维护，
// 这里只提供单步原语。
type QueueRepository interface {
	// FindByID 根据条目 ID 查找队列条目。
	// 如果不存在，返回 repository.ErrQueueItemNotFound。
	FindByID(ctx context.Context, id uint) (*domain.QueueItem, error)

	// ListByRoom 返回房间的全部队列条目，按 Position 升序。
	ListByRoom(ctx context.Context, roomID uint) ([]domain.QueueItem, error)

	// ListAll 返回所有房间的队列条目 (仪表盘总览)。
	ListAll(ctx context.Context) ([]domain.QueueItem, error)

	// Insert 插入一条新的队列条目。
	Insert(ctx context.Context, item *domain.QueueItem) error

	// Delete 删除一条队列条目。
	Delete(ctx context.Context, id uint) error

	// MaxPosition 返回房间当前最大的 Position，队列为空时返回 0。
	MaxPosition(ctx context.Context, roomID uint) (int, error)

	// ShiftPositionsAfter 将房间内 Position 大于 position 的条目整体减一，
	// 保持相对顺序不变 (删除后的连续性修复)。
	ShiftPositionsAfter(ctx context.Context, roomID uint, position int) error

	// AdjustLikes 按增量调整点赞计数，SQL 层下限为 0。
	AdjustLikes(ctx context.Context, id uint, delta int) error

	// ClearPlaying 清除房间内所有条目的播放标记。
	ClearPlaying(ctx context.Context, roomID uint) error

	// SetPlaying 设置单个条目的播放标记。
	SetPlaying(ctx context.Context, id uint, playing bool) error
}

// LikeRepository 定义了 (用户, 队列条目) 点赞关系的存储操作。
type LikeRepository interface {
	// Insert 插入点赞关系。违反唯一约束时返回 repository.ErrDuplicateEntry。
	Insert(ctx context.Context, like *domain.SongLike) error

	// Delete 删除点赞关系，返回是否确实删除了记录。
	Delete(ctx context.Context, userID, queueItemID uint) (bool, error)
}
