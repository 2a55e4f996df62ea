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

// GormUserRepository 是 UserRepository 接口的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GormUserRepository 实例
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

// FindByID 实现根据用户 ID 查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &user, nil
}

// FindByUsername 实现根据用户名查找用户
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by username '%s': %w", username, err)
	}
	return &user, nil
}

// Save 实现保存用户信息（创建或更新）
func (r *GormUserRepository) Save(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save user (id: %d, username: %s): %w", user.ID, user.Username, err)
	}
	return nil
}

// AdjustBalance 在 SQL 层以增量方式调整余额，避免读-改-写竞态。
// 正增量同时累加 total_cubes_earned。
func (r *GormUserRepository) AdjustBalance(ctx context.Context, userID uint, delta int) error {
	updates := map[string]interface{}{
		"cube_balance": gorm.Expr("cube_balance + ?", delta),
	}
	if delta > 0 {
		updates["total_cubes_earned"] = gorm.Expr("total_cubes_earned + ?", delta)
	}
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gorm: adjust balance for user %d by %d: %w", userID, delta, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// UpdateRole 实现修改用户角色
func (r *GormUserRepository) UpdateRole(ctx context.Context, userID uint, role string) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("gorm: update role for user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// SetLastDailyReward 实现更新每日奖励时间戳
func (r *GormUserRepository) SetLastDailyReward(ctx context.Context, userID uint, ts time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("last_daily_reward", ts)
	if result.Error != nil {
		return fmt.Errorf("gorm: set last daily reward for user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// Count 返回用户总数
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: count users: %w", err)
	}
	return count, nil
}

// SumBalances 返回全体用户余额之和
func (r *GormUserRepository) SumBalances(ctx context.Context) (int64, error) {
	var sum int64
	// COALESCE 处理空表时 SUM 返回 NULL 的情况
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("COALESCE(SUM(cube_balance), 0)").Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: sum user balances: %w", err)
	}
	return sum, nil
}
