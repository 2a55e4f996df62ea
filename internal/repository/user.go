package repository

import (
	"context"
	"time"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，返回 repository.ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername 根据用户名查找用户。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Save 保存用户信息。ID 为零值时创建，否则更新。
	Save(ctx context.Context, user *domain.User) error

	// AdjustBalance 按带符号增量原子地调整用户余额
	// (SQL 层 cube_balance = cube_balance + delta)。
	// delta 为正时同时累加 total_cubes_earned。
	// 余额不能为负的业务校验由调用方在写入前完成。
	AdjustBalance(ctx context.Context, userID uint, delta int) error

	// UpdateRole 修改用户角色。
	UpdateRole(ctx context.Context, userID uint, role string) error

	// SetLastDailyReward 更新每日奖励领取时间戳。
	SetLastDailyReward(ctx context.Context, userID uint, ts time.Time) error

	// Count 返回用户总数 (统计任务使用)。
	Count(ctx context.Context) (int64, error)

	// SumBalances 返回全体用户余额之和 (统计任务使用)。
	SumBalances(ctx context.Context) (int64, error)
}
