// Package domain 定义了应用程序的核心数据模型 (数据库实体)。
package domain

import "time"

// 用户角色常量。owner 和 vip 点歌时免扣方块。
const (
	RoleRegular = "regular"
	RoleVIP     = "vip"
	RoleOwner   = "owner"
)

// User 表示仪表盘用户，同时也是房间内的点歌用户。
// CubeBalance 只能通过带符号的 CubeTransaction 变动，不允许直接赋值。
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"uniqueIndex:idx_username,length:191;not null" json:"username"`
	Password         string     `gorm:"not null" json:"-"` // bcrypt 哈希
	Role             string     `gorm:"not null;default:regular" json:"role"`
	CubeBalance      int        `gorm:"not null;default:0" json:"cube_balance"`
	TotalCubesEarned int        `gorm:"not null;default:0" json:"total_cubes_earned"`
	LastDailyReward  *time.Time `json:"last_daily_reward"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"-"`
}

// IsPrivileged 返回该用户点歌时是否免扣方块。
func (u *User) IsPrivileged() bool {
	return u.Role == RoleOwner || u.Role == RoleVIP
}
