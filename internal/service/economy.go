package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/kmutex"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// 经济系统常量。
const (
	// GoldPerCube 是金币到方块的兑换比率，向下取整，余数不退还。
	GoldPerCube = 10
	// DailyRewardCubes 是每日奖励发放的方块数。
	DailyRewardCubes = 50
	// DailyRewardWindow 是两次领取之间的最小间隔 (滑动窗口，非自然日)。
	DailyRewardWindow = 24 // 小时
	// DefaultSongCost 是房间未配置 SongCost 时的点歌价格。
	DefaultSongCost = 10
)

// SongRequest 是一次点歌请求的歌曲信息。
type SongRequest struct {
	Title       string `json:"song_title" binding:"required"`
	Artist      string `json:"song_artist"`
	Platform    string `json:"platform" binding:"required"`
	PlatformURL string `json:"platform_url" binding:"required"`
}

// Publisher 是 Service 层对事件广播方的依赖。
type Publisher interface {
	Publish(event hub.Event) bool
}

// EconomyService 负责方块经济与点歌队列的业务逻辑。
// 余额只通过带符号的流水记录变动；扣费+入队、点赞+计数这类
// 逻辑单元都在单个存储事务内完成。同一用户/房间上的
// read-modify-write 序列由按键互斥锁串行化，锁的获取顺序
// 固定为先用户后房间，避免死锁。
type EconomyService struct {
	users      repository.UserRepository
	rooms      repository.RoomRepository
	queue      repository.QueueRepository
	likes      repository.LikeRepository
	txRepo     repository.TransactionRepository
	configs    repository.BotConfigRepository
	transactor repository.Transactor
	events     Publisher

	locks *kmutex.KeyedMutex
}

// NewEconomyService 创建 EconomyService 实例。
func NewEconomyService(
	users repository.UserRepository,
	rooms repository.RoomRepository,
	queue repository.QueueRepository,
	likes repository.LikeRepository,
	txRepo repository.TransactionRepository,
	configs repository.BotConfigRepository,
	transactor repository.Transactor,
	events Publisher,
) *EconomyService {
	if users == nil || rooms == nil || queue == nil || likes == nil || txRepo == nil || configs == nil {
		panic("repositories cannot be nil for EconomyService")
	}
	if transactor == nil {
		panic("Transactor cannot be nil for EconomyService")
	}
	if events == nil {
		panic("Publisher cannot be nil for EconomyService")
	}
	return &EconomyService{
		users:      users,
		rooms:      rooms,
		queue:      queue,
		likes:      likes,
		txRepo:     txRepo,
		configs:    configs,
		transactor: transactor,
		events:     events,
		locks:      kmutex.New(),
	}
}

// Enqueue 处理一次点歌：校验余额、扣费并把歌曲追加到队列尾部。
// owner 和 vip 角色免扣方块。扣费和入队在同一事务内完成，
// 余额不足时直接拒绝，不产生任何写入。
func (s *EconomyService) Enqueue(ctx context.Context, userID, roomID uint, req SongRequest) (*domain.QueueItem, error) {
	if req.Title == "" || req.PlatformURL == "" {
		return nil, ErrInvalidInput
	}

	// 固定的加锁顺序：先用户后房间
	userKey := fmt.Sprintf("user:%d", userID)
	roomKey := fmt.Sprintf("room:%d", roomID)
	s.locks.Lock(userKey)
	defer s.locks.Unlock(userKey)
	s.locks.Lock(roomKey)
	defer s.locks.Unlock(roomKey)

	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID, "song": req.Title})

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Enqueue rejected: user not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error loading user for enqueue")
		return nil, ErrInternalServer
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Enqueue rejected: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for enqueue")
		return nil, ErrInternalServer
	}

	cost := DefaultSongCost
	maxQueue := 0
	if config, err := s.configs.FindByRoomID(ctx, room.ID); err == nil {
		cost = config.SongCost
		maxQueue = config.MaxQueueSize
	} else if !errors.Is(err, repository.ErrConfigNotFound) {
		logCtx.WithError(err).Error("Database error loading bot configuration for enqueue")
		return nil, ErrInternalServer
	}

	waived := user.IsPrivileged()
	if !waived && user.CubeBalance < cost {
		logCtx.WithFields(logrus.Fields{"balance": user.CubeBalance, "cost": cost}).Warn("Enqueue rejected: insufficient cube balance")
		return nil, ErrInsufficientCubes
	}

	var item *domain.QueueItem
	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		maxPos, err := repos.Queue.MaxPosition(ctx, room.ID)
		if err != nil {
			return err
		}
		if maxQueue > 0 && maxPos >= maxQueue {
			return ErrQueueFull
		}

		spent := 0
		if !waived {
			spent = cost
			if err := repos.Users.AdjustBalance(ctx, user.ID, -cost); err != nil {
				return err
			}
			if err := repos.Transactions.Insert(ctx, &domain.CubeTransaction{
				UserID:      user.ID,
				Type:        domain.TxTypeSpend,
				Amount:      -cost,
				Description: fmt.Sprintf("Song request: %s", req.Title),
			}); err != nil {
				return err
			}
		}

		item = &domain.QueueItem{
			RoomID:      room.ID,
			UserID:      user.ID,
			SongTitle:   req.Title,
			SongArtist:  req.Artist,
			Platform:    req.Platform,
			PlatformURL: req.PlatformURL,
			CubesSpent:  spent,
			Position:    maxPos + 1,
		}
		return repos.Queue.Insert(ctx, item)
	})
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			logCtx.Warn("Enqueue rejected: queue is full")
			return nil, ErrQueueFull
		}
		logCtx.WithError(err).Error("Transaction failed during enqueue")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"item_id": item.ID, "position": item.Position, "cubes_spent": item.CubesSpent}).Info("Song enqueued")
	s.events.Publish(hub.Event{Type: hub.EventQueueUpdated, Data: item})
	return item, nil
}

// Dequeue 从队列中移除一个条目并修复其后条目的位置连续性。
// 无论播放完成还是管理员跳过，花掉的方块都不退还。
func (s *EconomyService) Dequeue(ctx context.Context, itemID uint) error {
	logCtx := logrus.WithField("item_id", itemID)

	item, err := s.queue.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrQueueItemNotFound) {
			logCtx.Warn("Dequeue rejected: queue item not found")
			return ErrQueueItemNotFound
		}
		logCtx.WithError(err).Error("Database error loading queue item for dequeue")
		return ErrInternalServer
	}

	roomKey := fmt.Sprintf("room:%d", item.RoomID)
	s.locks.Lock(roomKey)
	defer s.locks.Unlock(roomKey)

	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		// 锁获取前读到的 Position 可能已被并发出队改写，
		// 位移必须基于事务内的新鲜值
		current, err := repos.Queue.FindByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if err := repos.Queue.Delete(ctx, current.ID); err != nil {
			return err
		}
		// 后面的条目整体前移，保持 1..N 连续
		return repos.Queue.ShiftPositionsAfter(ctx, current.RoomID, current.Position)
	})
	if err != nil {
		if errors.Is(err, repository.ErrQueueItemNotFound) {
			// 并发删除，锁获取之前已被其他请求移除
			logCtx.Warn("Dequeue rejected: queue item already removed")
			return ErrQueueItemNotFound
		}
		logCtx.WithError(err).Error("Transaction failed during dequeue")
		return ErrInternalServer
	}

	logCtx.WithField("room_id", item.RoomID).Info("Queue item removed")
	s.events.Publish(hub.Event{Type: hub.EventQueueItemRemoved, Data: map[string]interface{}{
		"id":     item.ID,
		"roomId": item.RoomID,
	}})
	return nil
}

// Like 为队列条目点赞。每个用户对同一条目最多一票，
// 重复点赞是无副作用的幂等操作。
func (s *EconomyService) Like(ctx context.Context, userID, itemID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID})

	item, err := s.queue.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrQueueItemNotFound) {
			logCtx.Warn("Like rejected: queue item not found")
			return ErrQueueItemNotFound
		}
		logCtx.WithError(err).Error("Database error loading queue item for like")
		return ErrInternalServer
	}

	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Likes.Insert(ctx, &domain.SongLike{UserID: userID, QueueItemID: item.ID}); err != nil {
			return err
		}
		return repos.Queue.AdjustLikes(ctx, item.ID, 1)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 已点过赞，幂等返回
			logCtx.Debug("Like is a no-op: already liked")
			return nil
		}
		logCtx.WithError(err).Error("Transaction failed during like")
		return ErrInternalServer
	}

	logCtx.Info("Song liked")
	s.events.Publish(hub.Event{Type: hub.EventSongLiked, Data: map[string]interface{}{
		"id":     item.ID,
		"roomId": item.RoomID,
		"userId": userID,
	}})
	return nil
}

// Unlike 撤销点赞。用户未点过赞时是无副作用的幂等操作。
func (s *EconomyService) Unlike(ctx context.Context, userID, itemID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID})

	err := s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		removed, err := repos.Likes.Delete(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		// SQL 层保证计数不会降到 0 以下
		return repos.Queue.AdjustLikes(ctx, itemID, -1)
	})
	if err != nil {
		logCtx.WithError(err).Error("Transaction failed during unlike")
		return ErrInternalServer
	}
	return nil
}

// MarkPlaying 把一个条目标记为正在播放，同时清除同房间内
// 其他条目的播放标记，并刷新房间的当前歌曲快照。
func (s *EconomyService) MarkPlaying(ctx context.Context, itemID uint) error {
	logCtx := logrus.WithField("item_id", itemID)

	item, err := s.queue.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrQueueItemNotFound) {
			logCtx.Warn("MarkPlaying rejected: queue item not found")
			return ErrQueueItemNotFound
		}
		logCtx.WithError(err).Error("Database error loading queue item for mark playing")
		return ErrInternalServer
	}

	roomKey := fmt.Sprintf("room:%d", item.RoomID)
	s.locks.Lock(roomKey)
	defer s.locks.Unlock(roomKey)

	// 快照在事务内从新鲜条目生成，播放标记置位后再序列化
	var current *domain.QueueItem
	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		fresh, err := repos.Queue.FindByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if err := repos.Queue.ClearPlaying(ctx, fresh.RoomID); err != nil {
			return err
		}
		if err := repos.Queue.SetPlaying(ctx, fresh.ID, true); err != nil {
			return err
		}
		fresh.IsPlaying = true
		songJSON, err := json.Marshal(fresh)
		if err != nil {
			return err
		}
		current = fresh
		return repos.Rooms.UpdateCurrentSong(ctx, fresh.RoomID, string(songJSON))
	})
	if err != nil {
		if errors.Is(err, repository.ErrQueueItemNotFound) {
			logCtx.Warn("MarkPlaying rejected: queue item already removed")
			return ErrQueueItemNotFound
		}
		logCtx.WithError(err).Error("Transaction failed during mark playing")
		return ErrInternalServer
	}

	logCtx.WithField("room_id", current.RoomID).Info("Queue item marked as playing")
	s.events.Publish(hub.Event{Type: hub.EventQueueUpdated, Data: current})
	return nil
}

// ListQueue 返回房间的播放队列，按位置升序。
func (s *EconomyService) ListQueue(ctx context.Context, roomID uint) ([]domain.QueueItem, error) {
	items, err := s.queue.ListByRoom(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error listing room queue")
		return nil, ErrInternalServer
	}
	return items, nil
}

// ListAllQueues 返回所有房间的队列条目 (仪表盘总览)。
func (s *EconomyService) ListAllQueues(ctx context.Context) ([]domain.QueueItem, error) {
	items, err := s.queue.ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Database error listing all queues")
		return nil, ErrInternalServer
	}
	return items, nil
}

// PurchaseCubes 用金币购买方块，兑换率 10 金币换 1 方块，
// 向下取整，余数不退还也不结转。
func (s *EconomyService) PurchaseCubes(ctx context.Context, userID uint, goldSpent int) (*domain.User, error) {
	if goldSpent < GoldPerCube {
		return nil, ErrInvalidInput
	}
	cubes := goldSpent / GoldPerCube

	userKey := fmt.Sprintf("user:%d", userID)
	s.locks.Lock(userKey)
	defer s.locks.Unlock(userKey)

	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "gold_spent": goldSpent, "cubes": cubes})

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Purchase rejected: user not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error loading user for purchase")
		return nil, ErrInternalServer
	}

	err := s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Users.AdjustBalance(ctx, userID, cubes); err != nil {
			return err
		}
		return repos.Transactions.Insert(ctx, &domain.CubeTransaction{
			UserID:      userID,
			Type:        domain.TxTypePurchase,
			Amount:      cubes,
			GoldSpent:   goldSpent,
			Description: fmt.Sprintf("Purchased %d cubes for %d gold", cubes, goldSpent),
		})
	})
	if err != nil {
		logCtx.WithError(err).Error("Transaction failed during cube purchase")
		return nil, ErrInternalServer
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logCtx.WithError(err).Error("Database error reloading user after purchase")
		return nil, ErrInternalServer
	}

	logCtx.WithField("balance", user.CubeBalance).Info("Cubes purchased")
	s.events.Publish(hub.Event{Type: hub.EventCubesPurchased, Data: map[string]interface{}{
		"userId":  user.ID,
		"cubes":   cubes,
		"balance": user.CubeBalance,
	}})
	return user, nil
}

// ClaimDailyReward 发放每日奖励。窗口是上次领取起 24 小时的
// 滑动窗口，而不是自然日；窗口未过时拒绝且不产生写入。
func (s *EconomyService) ClaimDailyReward(ctx context.Context, userID uint) (*domain.User, error) {
	userKey := fmt.Sprintf("user:%d", userID)
	s.locks.Lock(userKey)
	defer s.locks.Unlock(userKey)

	logCtx := logrus.WithField("user_id", userID)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Daily reward rejected: user not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error loading user for daily reward")
		return nil, ErrInternalServer
	}

	now := time.Now()
	if user.LastDailyReward != nil && now.Sub(*user.LastDailyReward).Hours() < DailyRewardWindow {
		logCtx.WithField("last_claimed", user.LastDailyReward).Warn("Daily reward rejected: window not elapsed")
		return nil, ErrRewardAlreadyClaimed
	}

	err = s.transactor.InTransaction(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Users.AdjustBalance(ctx, userID, DailyRewardCubes); err != nil {
			return err
		}
		if err := repos.Users.SetLastDailyReward(ctx, userID, now); err != nil {
			return err
		}
		return repos.Transactions.Insert(ctx, &domain.CubeTransaction{
			UserID:      userID,
			Type:        domain.TxTypeDailyReward,
			Amount:      DailyRewardCubes,
			Description: "Daily login reward",
		})
	})
	if err != nil {
		logCtx.WithError(err).Error("Transaction failed during daily reward claim")
		return nil, ErrInternalServer
	}

	user, err = s.users.FindByID(ctx, userID)
	if err != nil {
		logCtx.WithError(err).Error("Database error reloading user after daily reward")
		return nil, ErrInternalServer
	}
	logCtx.WithField("balance", user.CubeBalance).Info("Daily reward claimed")
	return user, nil
}

// ListTransactions 返回用户的方块流水，按时间倒序。
func (s *EconomyService) ListTransactions(ctx context.Context, userID uint) ([]domain.CubeTransaction, error) {
	txs, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Database error listing transactions")
		return nil, ErrInternalServer
	}
	return txs, nil
}
