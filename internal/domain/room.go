package domain

import "time"

// Room 表示一个游戏内房间。HighriseRoomID 是外部平台的房间标识，
// 机器人进程以它为键启动；内部 ID 用于数据库外键。
// 房间通过 IsActive=false 软删除，被引用期间不会物理删除。
type Room struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	HighriseRoomID string    `gorm:"uniqueIndex:idx_highrise_room_id,length:191;not null" json:"highrise_room_id"`
	Name           string    `gorm:"not null" json:"name"`
	OwnerID        uint      `gorm:"index" json:"owner_id"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CurrentSong    string    `gorm:"type:json" json:"current_song"` // 当前播放歌曲的 JSON 快照，可为空
	Settings       string    `gorm:"type:json" json:"settings"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}
