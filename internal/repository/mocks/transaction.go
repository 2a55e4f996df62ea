package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// TransactionRepository 是 repository.TransactionRepository 的 Mock 实现
type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) Insert(ctx context.Context, tx *domain.CubeTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *TransactionRepository) ListByUser(ctx context.Context, userID uint) ([]domain.CubeTransaction, error) {
	args := m.Called(ctx, userID)
	var txs []domain.CubeTransaction
	if args.Get(0) != nil {
		txs = args.Get(0).([]domain.CubeTransaction)
	}
	return txs, args.Error(1)
}

func (m *TransactionRepository) SumByUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransactionRepository) CountByType(ctx context.Context, txType string) (int64, error) {
	args := m.Called(ctx, txType)
	return args.Get(0).(int64), args.Error(1)
}

// Transactor 是 repository.Transactor 的测试替身。
// 不真正开事务，直接以预先配置的仓库集合执行回调，
// 让 Service 测试能够透过事务边界设置 Mock 预期。
type Transactor struct {
	Repos repository.TxRepositories
}

func (m *Transactor) InTransaction(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	return fn(m.Repos)
}
