package supervisor_test

import (
	"context"
	"errors"
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
	"github.com/Keknotocrack/hr-music-bot/internal/supervisor"
)

// fakeProcess 是可控的 Process 测试替身。关闭 exit 通道模拟进程退出。
type fakeProcess struct {
	pid      int
	exit     chan struct{}
	exitOnce sync.Once
	waitErr  error

	mu         sync.Mutex
	terminated bool
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.exit
	return p.waitErr
}

func (p *fakeProcess) exitNow() {
	p.exitOnce.Do(func() { close(p.exit) })
}

// fakeLauncher 记录每次 Launch 并返回可控的 fakeProcess。
type fakeLauncher struct {
	mu       sync.Mutex
	launched []*fakeProcess
	failWith error
}

func (l *fakeLauncher) Launch(ctx context.Context, spec supervisor.LaunchSpec) (supervisor.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	proc := &fakeProcess{pid: 1000 + len(l.launched), exit: make(chan struct{})}
	l.launched = append(l.launched, proc)
	return proc, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched[len(l.launched)-1]
}

// eventRecorder 收集 Supervisor 发布的事件
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

const testRoomID = "hr-room-1"

func newTestSupervisor(t *testing.T) (*supervisor.Supervisor, *fakeLauncher, *eventRecorder) {
	t.Helper()

	mockRooms := new(mocks.RoomRepository)
	mockConfigs := new(mocks.BotConfigRepository)
	mockRooms.On("FindByHighriseID", mock.Anything, testRoomID).
		Return(&domain.Room{ID: 1, HighriseRoomID: testRoomID, Name: "Test Room"}, nil)
	mockConfigs.On("FindByRoomID", mock.Anything, uint(1)).
		Return(&domain.BotConfiguration{ID: 1, RoomID: 1, APIToken: "token-abc", SongCost: 10}, nil)
	mockConfigs.On("SetLastStarted", mock.Anything, uint(1), mock.Anything).Return(nil)

	launcher := &fakeLauncher{}
	events := &eventRecorder{}
	sup := supervisor.NewSupervisor(launcher, mockRooms, mockConfigs, events, supervisor.Options{
		RestartDelay: 10 * time.Millisecond,
		StopGrace:    50 * time.Millisecond,
	})
	return sup, launcher, events
}

func TestSupervisor_ConcurrentStart_OnlyOneWins(t *testing.T) {
	sup, launcher, _ := newTestSupervisor(t)
	ctx := context.Background()

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- sup.Start(ctx, testRoomID)
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if errors.Is(err, supervisor.ErrAlreadyRunning) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "并发 Start 应恰好一个成功")
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 1, launcher.count(), "只应启动一个进程")
}

func TestSupervisor_StartValidatesBeforeSpawn(t *testing.T) {
	mockRooms := new(mocks.RoomRepository)
	mockConfigs := new(mocks.BotConfigRepository)
	mockRooms.On("FindByHighriseID", mock.Anything, "unknown-room").
		Return(nil, repository.ErrRoomNotFound)

	launcher := &fakeLauncher{}
	sup := supervisor.NewSupervisor(launcher, mockRooms, mockConfigs, &eventRecorder{}, supervisor.Options{})

	err := sup.Start(context.Background(), "unknown-room")
	require.ErrorIs(t, err, supervisor.ErrRoomNotFound)
	assert.Zero(t, launcher.count(), "校验失败时不应 spawn 进程")
	assert.Zero(t, sup.Status().TotalBots, "校验失败时不应留下 Handle")
}

func TestSupervisor_StartRequiresCredential(t *testing.T) {
	mockRooms := new(mocks.RoomRepository)
	mockConfigs := new(mocks.BotConfigRepository)
	mockRooms.On("FindByHighriseID", mock.Anything, testRoomID).
		Return(&domain.Room{ID: 1, HighriseRoomID: testRoomID}, nil)
	mockConfigs.On("FindByRoomID", mock.Anything, uint(1)).
		Return(&domain.BotConfiguration{ID: 1, RoomID: 1, APIToken: ""}, nil)

	launcher := &fakeLauncher{}
	// 没有环境回退 token
	sup := supervisor.NewSupervisor(launcher, mockRooms, mockConfigs, &eventRecorder{}, supervisor.Options{})

	err := sup.Start(context.Background(), testRoomID)
	require.ErrorIs(t, err, supervisor.ErrCredentialMissing)
	assert.Zero(t, launcher.count())
}

func TestSupervisor_StopNotRunning(t *testing.T) {
	sup, _, _ := newTestSupervisor(t)
	err := sup.Stop(testRoomID)
	assert.ErrorIs(t, err, supervisor.ErrNotRunning)
}

func TestSupervisor_CrashRetainsOfflineHandle(t *testing.T) {
	sup, launcher, _ := newTestSupervisor(t)
	ctx := context.Background()

	require.NoError(t, sup.Start(ctx, testRoomID))
	proc := launcher.last()
	proc.waitErr = errors.New("exit status 1")
	proc.exitNow()

	// 崩溃后 Handle 保留但标记离线
	assert.Eventually(t, func() bool {
		status := sup.Status()
		return status.TotalBots == 1 && status.OnlineBots == 0
	}, 2*time.Second, 10*time.Millisecond, "崩溃的 worker 应保留离线 Handle")

	// 死 Handle 可被新的 Start 替换
	require.NoError(t, sup.Start(ctx, testRoomID))
	status := sup.Status()
	assert.Equal(t, 1, status.TotalBots)
	assert.Equal(t, 1, status.OnlineBots)
	assert.Equal(t, 2, launcher.count())
}

func TestSupervisor_StopRemovesHandleImmediately(t *testing.T) {
	sup, launcher, events := newTestSupervisor(t)
	ctx := context.Background()

	require.NoError(t, sup.Start(ctx, testRoomID))
	require.NoError(t, sup.Stop(testRoomID))

	// 进程还未真正退出，但 Handle 已移除
	assert.Zero(t, sup.Status().TotalBots, "Stop 后 Handle 应立即消失")

	proc := launcher.last()
	proc.mu.Lock()
	terminated := proc.terminated
	proc.mu.Unlock()
	assert.True(t, terminated, "Stop 应向进程发送终止信号")

	assert.Contains(t, events.types(), hub.EventBotStarted)
	assert.Contains(t, events.types(), hub.EventBotStopped)

	proc.exitNow()
}

func TestSupervisor_RestartEnforcesDelay(t *testing.T) {
	sup, launcher, _ := newTestSupervisor(t)
	ctx := context.Background()

	require.NoError(t, sup.Start(ctx, testRoomID))
	firstProc := launcher.last()

	started := time.Now()
	go firstProc.exitNow()
	require.NoError(t, sup.Restart(ctx, testRoomID))
	elapsed := time.Since(started)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "Restart 应在 stop 和 start 之间等待")
	assert.Equal(t, 2, launcher.count())
	assert.Equal(t, 1, sup.Status().OnlineBots)
}

func TestSupervisor_StatusComputesUptime(t *testing.T) {
	sup, _, _ := newTestSupervisor(t)
	require.NoError(t, sup.Start(context.Background(), testRoomID))

	time.Sleep(20 * time.Millisecond)
	status := sup.Status()
	require.Len(t, status.Rooms, 1)
	assert.Equal(t, testRoomID, status.Rooms[0].RoomID)
	assert.True(t, status.Rooms[0].IsOnline)
	assert.GreaterOrEqual(t, status.Rooms[0].Uptime, int64(20), "Uptime 应随时间增长")
}
