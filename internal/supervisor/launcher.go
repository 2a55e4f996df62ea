package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// LaunchSpec 是启动一个 worker 进程所需的全部上下文：
// 外部房间 ID、访问凭证、以及序列化后的配置。
// Supervisor 只组装这个值，平台相关细节全部在 Launcher 里。
type LaunchSpec struct {
	RoomID     string
	APIToken   string
	ConfigJSON string
}

// Process 是对已启动 worker 进程的最小抽象。
// worker 只通过进程退出传达存活状态，没有更丰富的协议。
type Process interface {
	// PID 返回进程号，仅用于日志。
	PID() int
	// Terminate 发送终止信号 (SIGTERM)，不等待退出。
	Terminate() error
	// Wait 阻塞到进程退出，返回退出错误。只能调用一次。
	Wait() error
}

// Launcher 负责按 LaunchSpec 启动 worker 进程。
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (Process, error)
}

// ExecLauncher 通过 os/exec 启动 Highrise SDK 的 Python worker。
// 命令形如: python -m highrise <roomID> <token> <entrypoint>，
// 配置以 BOT_CONFIG 环境变量注入。
type ExecLauncher struct {
	Command    string // 默认 "python"
	Entrypoint string // 默认 "bot.music_bot:HighriseMusicBot"
	WorkDir    string // 为空时继承当前目录
}

// NewExecLauncher 创建 ExecLauncher 实例并填充默认值
func NewExecLauncher(command, entrypoint, workDir string) *ExecLauncher {
	if command == "" {
		command = "python"
	}
	if entrypoint == "" {
		entrypoint = "bot.music_bot:HighriseMusicBot"
	}
	return &ExecLauncher{Command: command, Entrypoint: entrypoint, WorkDir: workDir}
}

// Launch 启动 worker 进程并把其标准输出/错误接入日志。
func (l *ExecLauncher) Launch(ctx context.Context, spec LaunchSpec) (Process, error) {
	cmd := exec.Command(l.Command, "-m", "highrise", spec.RoomID, spec.APIToken, l.Entrypoint)
	cmd.Dir = l.WorkDir
	cmd.Env = append(os.Environ(),
		"BOT_CONFIG="+spec.ConfigJSON,
		"HIGHRISE_ROOM_ID="+spec.RoomID,
	)

	logCtx := logrus.WithFields(logrus.Fields{
		"component": "launcher",
		"room_id":   spec.RoomID,
	})
	cmd.Stdout = &logWriter{entry: logCtx, level: logrus.InfoLevel}
	cmd.Stderr = &logWriter{entry: logCtx, level: logrus.WarnLevel}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launcher: start worker for room %s: %w", spec.RoomID, err)
	}
	logCtx.WithField("pid", cmd.Process.Pid).Info("Worker process started")
	return &execProcess{cmd: cmd}, nil
}

// execProcess 包装 *exec.Cmd 实现 Process 接口
type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// logWriter 把进程输出逐行转成日志条目
type logWriter struct {
	entry *logrus.Entry
	level logrus.Level
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.entry.Log(w.level, line)
		}
	}
	return len(p), nil
}
