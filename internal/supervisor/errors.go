package supervisor

import "errors"

var (
	// ErrAlreadyRunning 表示该房间已有在线的机器人进程
	ErrAlreadyRunning = errors.New("supervisor: bot is already running in this room")
	// ErrNotRunning 表示该房间没有被跟踪的机器人进程
	ErrNotRunning = errors.New("supervisor: bot not found in this room")
	// ErrRoomNotFound 表示外部房间 ID 没有对应的房间记录
	ErrRoomNotFound = errors.New("supervisor: room not found")
	// ErrConfigMissing 表示房间尚未配置机器人
	ErrConfigMissing = errors.New("supervisor: bot configuration not found")
	// ErrCredentialMissing 表示配置和环境里都找不到可用的 API token
	ErrCredentialMissing = errors.New("supervisor: no API token available")
)
