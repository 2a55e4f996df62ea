package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// GormTransactionRepository 是 TransactionRepository 接口的 GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository 创建 GormTransactionRepository 实例
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormTransactionRepository")
	}
	return &GormTransactionRepository{db: db}
}

// Insert 追加流水记录
func (r *GormTransactionRepository) Insert(ctx context.Context, tx *domain.CubeTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("gorm: insert cube transaction (user %d, type %s): %w", tx.UserID, tx.Type, err)
	}
	return nil
}

// ListByUser 返回用户流水，按时间倒序
func (r *GormTransactionRepository) ListByUser(ctx context.Context, userID uint) ([]domain.CubeTransaction, error) {
	var txs []domain.CubeTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}

// SumByUser 返回用户流水金额之和
func (r *GormTransactionRepository) SumByUser(ctx context.Context, userID uint) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&domain.CubeTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: sum transactions for user %d: %w", userID, err)
	}
	return sum, nil
}

// CountByType 返回某类型流水条数
func (r *GormTransactionRepository) CountByType(ctx context.Context, txType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.CubeTransaction{}).
		Where("type = ?", txType).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count transactions of type %s: %w", txType, err)
	}
	return count, nil
}
