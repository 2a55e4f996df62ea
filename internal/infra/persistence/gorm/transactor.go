package gormpersistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// GormTransactor 是 Transactor 接口的 GORM 实现。
// 它把回调包在 db.Transaction 里，并把绑定到事务连接的
// 仓库集合交给回调，保证跨行写入的原子性。
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor 创建 GormTransactor 实例
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	if db == nil {
		panic("database connection cannot be nil for GormTransactor")
	}
	return &GormTransactor{db: db}
}

// InTransaction 在单个数据库事务内执行 fn。
// fn 返回错误时 GORM 回滚事务并把错误原样抛出。
func (t *GormTransactor) InTransaction(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.TxRepositories{
			Users:        NewGormUserRepository(tx),
			Rooms:        NewGormRoomRepository(tx),
			Queue:        NewGormQueueRepository(tx),
			Likes:        NewGormLikeRepository(tx),
			Transactions: NewGormTransactionRepository(tx),
		})
	})
}
