package repository

import "context"

// TxRepositories 是绑定到同一个数据库事务的仓库集合。
// 回调内通过它完成的所有写入要么全部提交，要么全部回滚。
type TxRepositories struct {
	Users        UserRepository
	Rooms        RoomRepository
	Queue        QueueRepository
	Likes        LikeRepository
	Transactions TransactionRepository
}

// Transactor 提供跨行原子写入的事务边界。
// 扣费+入队、点赞+计数这类跨多行的逻辑单元必须在同一个
// InTransaction 回调内完成，避免部分应用。
type Transactor interface {
	// InTransaction 在单个存储事务内执行 fn。
	// fn 返回非 nil 错误时整个事务回滚，并原样返回该错误。
	InTransaction(ctx context.Context, fn func(repos TxRepositories) error) error
}
