// Package supervisor 管理每个房间一个的外部 worker 进程的生命周期。
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/kmutex"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// Publisher 是 Supervisor 对事件广播方的依赖。
type Publisher interface {
	Publish(event hub.Event) bool
}

// Handle 是 Supervisor 为一个运行中 (或已死但未清理) 的 worker
// 保存的内存记录。不持久化，进程被 stop 或被新的 start 替换时销毁。
// 同一外部房间 ID 任意时刻最多存在一个 Handle。
type Handle struct {
	roomID    string
	proc      Process
	online    bool // 由 Supervisor.mu 保护
	startedAt time.Time
	exited    chan struct{} // 进程退出后关闭
}

// RoomStatus 是单个房间的状态快照。Uptime 读取时计算，不存储。
type RoomStatus struct {
	RoomID    string    `json:"roomId"`
	IsOnline  bool      `json:"isOnline"`
	StartTime time.Time `json:"startTime"`
	Uptime    int64     `json:"uptime"` // 毫秒
}

// Status 是 /api/bot/status 返回的整体快照。
type Status struct {
	TotalBots  int          `json:"totalBots"`
	OnlineBots int          `json:"onlineBots"`
	Rooms      []RoomStatus `json:"rooms"`
}

// Options 配置 Supervisor 的时间参数。
type Options struct {
	// DefaultToken 是配置未提供 API token 时的环境回退值
	DefaultToken string
	// RestartDelay 是 Restart 中 stop 与 start 之间的最小间隔，
	// 避免外部平台对快速重连限流
	RestartDelay time.Duration
	// StopGrace 是 Stop 发出终止信号后等待进程退出的宽限期
	StopGrace time.Duration
}

// Supervisor 独占持有全部 WorkerHandle。
// 同一房间的 check-then-spawn / check-then-kill 序列由按房间的
// 互斥锁串行化；不同房间的操作完全并行。
type Supervisor struct {
	launcher Launcher
	rooms    repository.RoomRepository
	configs  repository.BotConfigRepository
	events   Publisher
	opts     Options

	locks *kmutex.KeyedMutex

	mu      sync.RWMutex
	handles map[string]*Handle

	log *logrus.Entry
}

// NewSupervisor 创建 Supervisor 实例
func NewSupervisor(launcher Launcher, rooms repository.RoomRepository, configs repository.BotConfigRepository, events Publisher, opts Options) *Supervisor {
	if launcher == nil {
		panic("Launcher cannot be nil for Supervisor")
	}
	if rooms == nil {
		panic("RoomRepository cannot be nil for Supervisor")
	}
	if configs == nil {
		panic("BotConfigRepository cannot be nil for Supervisor")
	}
	if events == nil {
		panic("Publisher cannot be nil for Supervisor")
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = 2 * time.Second
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = 5 * time.Second
	}
	return &Supervisor{
		launcher: launcher,
		rooms:    rooms,
		configs:  configs,
		events:   events,
		opts:     opts,
		locks:    kmutex.New(),
		handles:  make(map[string]*Handle),
		log:      logrus.WithField("component", "supervisor"),
	}
}

// Start 为指定的外部房间启动一个 worker 进程。
// 所有校验 (房间、配置、凭证) 都在 spawn 之前完成，校验失败
// 不会留下孤儿 Handle。房间已有在线 worker 时返回 ErrAlreadyRunning；
// 已退出但未清理的 Handle 会被新的 worker 替换。
func (s *Supervisor) Start(ctx context.Context, roomID string) error {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	logCtx := s.log.WithField("room_id", roomID)

	s.mu.RLock()
	existing, exists := s.handles[roomID]
	online := exists && existing.online
	s.mu.RUnlock()
	if online {
		logCtx.Warn("Start rejected: bot already running")
		return ErrAlreadyRunning
	}

	// spawn 之前的全部校验
	room, err := s.rooms.FindByHighriseID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Start rejected: room not found")
			return ErrRoomNotFound
		}
		return err
	}
	config, err := s.configs.FindByRoomID(ctx, room.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			logCtx.Warn("Start rejected: bot configuration not found")
			return ErrConfigMissing
		}
		return err
	}
	token := config.APIToken
	if token == "" {
		token = s.opts.DefaultToken
	}
	if token == "" {
		logCtx.Warn("Start rejected: no API token available")
		return ErrCredentialMissing
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return err
	}

	proc, err := s.launcher.Launch(ctx, LaunchSpec{
		RoomID:     roomID,
		APIToken:   token,
		ConfigJSON: string(configJSON),
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to spawn worker process")
		return err
	}

	handle := &Handle{
		roomID:    roomID,
		proc:      proc,
		online:    true,
		startedAt: time.Now(),
		exited:    make(chan struct{}),
	}
	s.mu.Lock()
	s.handles[roomID] = handle
	s.mu.Unlock()

	// 记录启动时间是尽力而为的，失败不影响已启动的 worker
	if err := s.configs.SetLastStarted(ctx, room.ID, handle.startedAt); err != nil {
		logCtx.WithError(err).Warn("Failed to record bot start time")
	}

	go s.watch(handle)

	logCtx.WithField("pid", proc.PID()).Info("Bot started")
	s.events.Publish(hub.Event{Type: hub.EventBotStarted, Data: map[string]interface{}{"roomId": roomID}})
	return nil
}

// Stop 停止指定房间的 worker。Handle 在发出请求时立刻移除
// (乐观删除)，而不是等进程确认退出，因此卡死的进程不会阻塞
// 后续的 Start；宽限期内未退出的进程记录为泄漏，由带外回收。
func (s *Supervisor) Stop(roomID string) error {
	s.locks.Lock(roomID)
	defer s.locks.Unlock(roomID)

	logCtx := s.log.WithField("room_id", roomID)

	s.mu.Lock()
	handle, exists := s.handles[roomID]
	if exists {
		delete(s.handles, roomID)
	}
	s.mu.Unlock()
	if !exists {
		logCtx.Warn("Stop rejected: bot not running")
		return ErrNotRunning
	}

	if err := handle.proc.Terminate(); err != nil {
		// 进程可能已经自己退出了，Handle 已移除，不算失败
		logCtx.WithError(err).Warn("Failed to signal worker process")
	}

	go s.awaitExit(handle)

	logCtx.Info("Bot stopped")
	s.events.Publish(hub.Event{Type: hub.EventBotStopped, Data: map[string]interface{}{"roomId": roomID}})
	return nil
}

// Restart 先 Stop 再 Start，中间强制等待 RestartDelay，
// 避免外部平台对快速重连限流。
func (s *Supervisor) Restart(ctx context.Context, roomID string) error {
	if err := s.Stop(roomID); err != nil {
		return err
	}
	select {
	case <-time.After(s.opts.RestartDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Start(ctx, roomID)
}

// Status 返回当前全部 Handle 的快照，不阻塞任何生命周期操作。
func (s *Supervisor) Status() Status {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		TotalBots: len(s.handles),
		Rooms:     make([]RoomStatus, 0, len(s.handles)),
	}
	for roomID, handle := range s.handles {
		if handle.online {
			status.OnlineBots++
		}
		status.Rooms = append(status.Rooms, RoomStatus{
			RoomID:    roomID,
			IsOnline:  handle.online,
			StartTime: handle.startedAt,
			Uptime:    now.Sub(handle.startedAt).Milliseconds(),
		})
	}
	return status
}

// StatusSnapshot 以 interface{} 返回状态，适配 hub.StatusFunc。
func (s *Supervisor) StatusSnapshot() interface{} {
	return s.Status()
}

// watch 等待进程退出。意外退出时把 Handle 的在线标记翻为 false
// 但保留 Handle，让仪表盘能区分"曾运行、已死亡"和"从未启动"；
// Handle 已被 Stop 移除时什么都不做 (退出观察者是幂等的)。
func (s *Supervisor) watch(handle *Handle) {
	err := handle.proc.Wait()
	close(handle.exited)

	logCtx := s.log.WithFields(logrus.Fields{
		"room_id": handle.roomID,
		"pid":     handle.proc.PID(),
	})

	s.mu.Lock()
	current, tracked := s.handles[handle.roomID]
	if tracked && current == handle {
		handle.online = false
	}
	s.mu.Unlock()

	if tracked && current == handle {
		if err != nil {
			logCtx.WithError(err).Warn("Worker process exited unexpectedly")
		} else {
			logCtx.Info("Worker process exited")
		}
	} else {
		logCtx.Debug("Worker process exited after handle removal")
	}
}

// awaitExit 在 Stop 之后等待宽限期。进程无视终止信号时只记录泄漏，不再强杀。
func (s *Supervisor) awaitExit(handle *Handle) {
	select {
	case <-handle.exited:
	case <-time.After(s.opts.StopGrace):
		s.log.WithFields(logrus.Fields{
			"room_id": handle.roomID,
			"pid":     handle.proc.PID(),
		}).Warn("Worker process ignored termination signal, leaking for out-of-band reaping")
	}
}
