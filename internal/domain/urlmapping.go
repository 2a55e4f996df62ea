package domain

import "time"

// URLMapping 是房间分享短链。ShortCode 全局唯一。
type URLMapping struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ShortCode  string     `gorm:"uniqueIndex:idx_short_code,length:16;not null" json:"short_code"`
	RoomID     uint       `gorm:"index;not null" json:"room_id"`
	CreatedBy  uint       `gorm:"not null" json:"created_by"`
	ClickCount int        `gorm:"not null;default:0" json:"click_count"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
