package repository

import (
	"context"
	"time"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// BotConfigRepository 定义了机器人配置的存储操作。每个房间最多一份。
type BotConfigRepository interface {
	// FindByRoomID 查找房间的配置。
	// 不存在或已被软删除时返回 repository.ErrConfigNotFound。
	FindByRoomID(ctx context.Context, roomID uint) (*domain.BotConfiguration, error)

	// FindAllActive 返回所有未被软删除的配置。
	FindAllActive(ctx context.Context) ([]domain.BotConfiguration, error)

	// Save 保存配置。ID 为零值时创建，否则更新。
	Save(ctx context.Context, config *domain.BotConfiguration) error

	// SoftDelete 将房间配置标记为不活跃。
	SoftDelete(ctx context.Context, roomID uint) error

	// SetLastStarted 记录该配置对应机器人最近一次启动时间。
	SetLastStarted(ctx context.Context, roomID uint, ts time.Time) error
}
