package domain

import "time"

// BotConfiguration 是每个房间一份的机器人配置。
// Supervisor 只在启动时读取一次；运行中修改不会热更新到已启动的进程。
type BotConfiguration struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	RoomID             uint       `gorm:"uniqueIndex;not null" json:"room_id"`
	APIToken           string     `gorm:"not null" json:"api_token"`
	AutoStart          bool       `gorm:"not null;default:true" json:"auto_start"`
	WelcomeMessage     string     `json:"welcome_message"`
	MaxQueueSize       int        `gorm:"not null;default:50" json:"max_queue_size"`
	SongCost           int        `gorm:"not null;default:10" json:"song_cost"`
	EnableCompetitions bool       `gorm:"not null;default:true" json:"enable_competitions"`
	PlatformPreference string     `gorm:"not null;default:all" json:"platform_preference"`
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	LastStarted        *time.Time `json:"last_started"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
