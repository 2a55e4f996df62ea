package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
	"github.com/Keknotocrack/hr-music-bot/internal/repository/mocks"
	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// eventRecorder 收集 Service 发布的事件
type eventRecorder struct {
	mu     sync.Mutex
	events []hub.Event
}

func (r *eventRecorder) Publish(event hub.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return true
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

// economyFixture 组装 EconomyService 及其全部 Mock 依赖
type economyFixture struct {
	users   *mocks.UserRepository
	rooms   *mocks.RoomRepository
	queue   *mocks.QueueRepository
	likes   *mocks.LikeRepository
	txRepo  *mocks.TransactionRepository
	configs *mocks.BotConfigRepository
	events  *eventRecorder
	svc     *service.EconomyService
}

func newEconomyFixture() *economyFixture {
	f := &economyFixture{
		users:   new(mocks.UserRepository),
		rooms:   new(mocks.RoomRepository),
		queue:   new(mocks.QueueRepository),
		likes:   new(mocks.LikeRepository),
		txRepo:  new(mocks.TransactionRepository),
		configs: new(mocks.BotConfigRepository),
		events:  &eventRecorder{},
	}
	transactor := &mocks.Transactor{Repos: repository.TxRepositories{
		Users:        f.users,
		Rooms:        f.rooms,
		Queue:        f.queue,
		Likes:        f.likes,
		Transactions: f.txRepo,
	}}
	f.svc = service.NewEconomyService(f.users, f.rooms, f.queue, f.likes, f.txRepo, f.configs, transactor, f.events)
	return f
}

var testSong = service.SongRequest{
	Title:       "Bohemian Rhapsody",
	Artist:      "Queen",
	Platform:    "youtube",
	PlatformURL: "https://youtu.be/fJ9rUzIMcZQ",
}

// --- Enqueue ---

func TestEconomy_Enqueue_InsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, Role: domain.RoleRegular, CubeBalance: 5}, nil)
	f.rooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	f.configs.On("FindByRoomID", ctx, uint(2)).Return(nil, repository.ErrConfigNotFound)

	_, err := f.svc.Enqueue(ctx, 1, 2, testSong)

	require.ErrorIs(t, err, service.ErrInsufficientCubes)
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.txRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.types(), "被拒绝的点歌不应广播事件")
}

func TestEconomy_Enqueue_OwnerWaivedAtPositionOne(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, Role: domain.RoleOwner, CubeBalance: 0}, nil)
	f.rooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	f.configs.On("FindByRoomID", ctx, uint(2)).Return(nil, repository.ErrConfigNotFound)
	f.queue.On("MaxPosition", ctx, uint(2)).Return(0, nil)
	f.queue.On("Insert", ctx, mock.MatchedBy(func(item *domain.QueueItem) bool {
		return item.Position == 1 && item.CubesSpent == 0
	})).Return(nil)

	item, err := f.svc.Enqueue(ctx, 1, 2, testSong)

	require.NoError(t, err)
	assert.Equal(t, 1, item.Position, "空队列的第一条应排在位置 1")
	assert.Zero(t, item.CubesSpent, "owner 点歌免扣方块")
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	f.txRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Contains(t, f.events.types(), hub.EventQueueUpdated)
}

func TestEconomy_Enqueue_ChargesAndAppendsToTail(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, Role: domain.RoleRegular, CubeBalance: 50}, nil)
	f.rooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	f.configs.On("FindByRoomID", ctx, uint(2)).
		Return(&domain.BotConfiguration{RoomID: 2, SongCost: 15, MaxQueueSize: 50}, nil)
	f.queue.On("MaxPosition", ctx, uint(2)).Return(3, nil)
	f.users.On("AdjustBalance", ctx, uint(1), -15).Return(nil)
	f.txRepo.On("Insert", ctx, mock.MatchedBy(func(tx *domain.CubeTransaction) bool {
		return tx.Type == domain.TxTypeSpend && tx.Amount == -15
	})).Return(nil)
	f.queue.On("Insert", ctx, mock.MatchedBy(func(item *domain.QueueItem) bool {
		return item.Position == 4 && item.CubesSpent == 15
	})).Return(nil)

	item, err := f.svc.Enqueue(ctx, 1, 2, testSong)

	require.NoError(t, err)
	assert.Equal(t, 4, item.Position, "新条目应追加到队列尾部")
	f.users.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestEconomy_Enqueue_RejectsWhenQueueFull(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, Role: domain.RoleRegular, CubeBalance: 100}, nil)
	f.rooms.On("FindByID", ctx, uint(2)).Return(&domain.Room{ID: 2}, nil)
	f.configs.On("FindByRoomID", ctx, uint(2)).
		Return(&domain.BotConfiguration{RoomID: 2, SongCost: 10, MaxQueueSize: 3}, nil)
	f.queue.On("MaxPosition", ctx, uint(2)).Return(3, nil)

	_, err := f.svc.Enqueue(ctx, 1, 2, testSong)

	require.ErrorIs(t, err, service.ErrQueueFull)
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

// --- Dequeue ---

func TestEconomy_Dequeue_ClosesPositionGap(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, Position: 2, CubesSpent: 10}, nil)
	f.queue.On("Delete", ctx, uint(20)).Return(nil)
	f.queue.On("ShiftPositionsAfter", ctx, uint(2), 2).Return(nil)

	err := f.svc.Dequeue(ctx, 20)

	require.NoError(t, err)
	f.queue.AssertExpectations(t)
	// 任何形式的出队都不退还方块
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	f.txRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Contains(t, f.events.types(), hub.EventQueueItemRemoved)
}

func TestEconomy_Dequeue_NotFound(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrQueueItemNotFound)

	err := f.svc.Dequeue(ctx, 99)
	assert.ErrorIs(t, err, service.ErrQueueItemNotFound)
}

func TestEconomy_Dequeue_ShiftsFromRereadPosition(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	// 等锁期间另一条目出队，本条目已从位置 3 前移到 2。
	// 位移必须基于事务内重读的位置，否则留下空洞
	f.queue.On("FindByID", ctx, uint(30)).
		Return(&domain.QueueItem{ID: 30, RoomID: 2, Position: 3}, nil).Once()
	f.queue.On("FindByID", ctx, uint(30)).
		Return(&domain.QueueItem{ID: 30, RoomID: 2, Position: 2}, nil).Once()
	f.queue.On("Delete", ctx, uint(30)).Return(nil)
	f.queue.On("ShiftPositionsAfter", ctx, uint(2), 2).Return(nil)

	require.NoError(t, f.svc.Dequeue(ctx, 30))
	f.queue.AssertExpectations(t)
	f.queue.AssertNotCalled(t, "ShiftPositionsAfter", ctx, uint(2), 3)
}

func TestEconomy_Dequeue_RemovedWhileWaitingForLock(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(30)).
		Return(&domain.QueueItem{ID: 30, RoomID: 2, Position: 1}, nil).Once()
	f.queue.On("FindByID", ctx, uint(30)).
		Return(nil, repository.ErrQueueItemNotFound).Once()

	err := f.svc.Dequeue(ctx, 30)

	require.ErrorIs(t, err, service.ErrQueueItemNotFound)
	f.queue.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "ShiftPositionsAfter", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.events.types(), "未删除任何条目时不应广播事件")
}

// --- Like / Unlike ---

func TestEconomy_Like_IncrementsOncePerUser(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, Likes: 0}, nil)
	f.likes.On("Insert", ctx, mock.MatchedBy(func(like *domain.SongLike) bool {
		return like.UserID == 1 && like.QueueItemID == 20
	})).Return(nil)
	f.queue.On("AdjustLikes", ctx, uint(20), 1).Return(nil)

	require.NoError(t, f.svc.Like(ctx, 1, 20))
	f.likes.AssertExpectations(t)
	f.queue.AssertExpectations(t)
	assert.Contains(t, f.events.types(), hub.EventSongLiked)
}

func TestEconomy_Like_DuplicateIsNoOp(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, Likes: 1}, nil)
	f.likes.On("Insert", ctx, mock.Anything).Return(repository.ErrDuplicateEntry)

	require.NoError(t, f.svc.Like(ctx, 1, 20), "重复点赞应是无副作用的幂等操作")
	f.queue.AssertNotCalled(t, "AdjustLikes", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.events.types())
}

func TestEconomy_Unlike_WithoutPriorLikeIsNoOp(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.likes.On("Delete", ctx, uint(1), uint(20)).Return(false, nil)

	require.NoError(t, f.svc.Unlike(ctx, 1, 20))
	f.queue.AssertNotCalled(t, "AdjustLikes", mock.Anything, mock.Anything, mock.Anything)
}

func TestEconomy_Unlike_DecrementsAfterLike(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.likes.On("Delete", ctx, uint(1), uint(20)).Return(true, nil)
	f.queue.On("AdjustLikes", ctx, uint(20), -1).Return(nil)

	require.NoError(t, f.svc.Unlike(ctx, 1, 20))
	f.queue.AssertExpectations(t)
}

// --- MarkPlaying ---

func TestEconomy_MarkPlaying_IsExclusivePerRoom(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, SongTitle: "Song A"}, nil)
	f.queue.On("ClearPlaying", ctx, uint(2)).Return(nil)
	f.queue.On("SetPlaying", ctx, uint(20), true).Return(nil)
	f.rooms.On("UpdateCurrentSong", ctx, uint(2), mock.MatchedBy(func(songJSON string) bool {
		return songJSON != ""
	})).Return(nil)

	require.NoError(t, f.svc.MarkPlaying(ctx, 20))
	f.queue.AssertExpectations(t)
	f.rooms.AssertExpectations(t)
	assert.Contains(t, f.events.types(), hub.EventQueueUpdated)
}

func TestEconomy_MarkPlaying_SnapshotReflectsFreshState(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	// 等锁期间前面有条目出队，本条目的位置已从 3 变成 2
	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, SongTitle: "Song A", Position: 3}, nil).Once()
	f.queue.On("FindByID", ctx, uint(20)).
		Return(&domain.QueueItem{ID: 20, RoomID: 2, SongTitle: "Song A", Position: 2}, nil).Once()
	f.queue.On("ClearPlaying", ctx, uint(2)).Return(nil)
	f.queue.On("SetPlaying", ctx, uint(20), true).Return(nil)
	f.rooms.On("UpdateCurrentSong", ctx, uint(2), mock.MatchedBy(func(songJSON string) bool {
		// 快照带播放标记和事务内的最新位置
		return strings.Contains(songJSON, `"is_playing":true`) &&
			strings.Contains(songJSON, `"position":2`)
	})).Return(nil)

	require.NoError(t, f.svc.MarkPlaying(ctx, 20))
	f.rooms.AssertExpectations(t)
}

// --- PurchaseCubes ---

func TestEconomy_Purchase_FloorsConversion(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	user := &domain.User{ID: 1, CubeBalance: 9}
	f.users.On("FindByID", ctx, uint(1)).Return(user, nil)
	// 99 金币只换 9 方块，余数不结转
	f.users.On("AdjustBalance", ctx, uint(1), 9).Return(nil)
	f.txRepo.On("Insert", ctx, mock.MatchedBy(func(tx *domain.CubeTransaction) bool {
		return tx.Type == domain.TxTypePurchase && tx.Amount == 9 && tx.GoldSpent == 99
	})).Return(nil)

	_, err := f.svc.PurchaseCubes(ctx, 1, 99)

	require.NoError(t, err)
	f.users.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
	assert.Contains(t, f.events.types(), hub.EventCubesPurchased)
}

func TestEconomy_Purchase_RejectsBelowMinimum(t *testing.T) {
	f := newEconomyFixture()

	_, err := f.svc.PurchaseCubes(context.Background(), 1, 5)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

// --- ClaimDailyReward ---

func TestEconomy_DailyReward_GrantsAfterWindow(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	lastClaim := time.Now().Add(-25 * time.Hour)
	user := &domain.User{ID: 1, CubeBalance: 10, LastDailyReward: &lastClaim}
	f.users.On("FindByID", ctx, uint(1)).Return(user, nil)
	f.users.On("AdjustBalance", ctx, uint(1), service.DailyRewardCubes).Return(nil)
	f.users.On("SetLastDailyReward", ctx, uint(1), mock.Anything).Return(nil)
	f.txRepo.On("Insert", ctx, mock.MatchedBy(func(tx *domain.CubeTransaction) bool {
		return tx.Type == domain.TxTypeDailyReward && tx.Amount == service.DailyRewardCubes
	})).Return(nil)

	_, err := f.svc.ClaimDailyReward(ctx, 1)

	require.NoError(t, err)
	f.users.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestEconomy_DailyReward_RejectsWithinWindow(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	lastClaim := time.Now().Add(-1 * time.Hour)
	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, CubeBalance: 60, LastDailyReward: &lastClaim}, nil)

	_, err := f.svc.ClaimDailyReward(ctx, 1)

	require.ErrorIs(t, err, service.ErrRewardAlreadyClaimed)
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "SetLastDailyReward", mock.Anything, mock.Anything, mock.Anything)
	f.txRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestEconomy_DailyReward_FirstClaimSucceeds(t *testing.T) {
	f := newEconomyFixture()
	ctx := context.Background()

	f.users.On("FindByID", ctx, uint(1)).
		Return(&domain.User{ID: 1, CubeBalance: 0, LastDailyReward: nil}, nil)
	f.users.On("AdjustBalance", ctx, uint(1), service.DailyRewardCubes).Return(nil)
	f.users.On("SetLastDailyReward", ctx, uint(1), mock.Anything).Return(nil)
	f.txRepo.On("Insert", ctx, mock.Anything).Return(nil)

	_, err := f.svc.ClaimDailyReward(ctx, 1)
	require.NoError(t, err)
}
