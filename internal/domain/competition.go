package domain

import "time"

// Competition 表示房间内的点歌比赛活动。
type Competition struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"index;not null" json:"room_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	Prize       string    `json:"prize"`
	WinnerID    *uint     `json:"winner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
