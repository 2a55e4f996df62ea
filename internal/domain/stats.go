package domain

import "time"

// BotStatistics 是按天汇总的运营统计，由后台任务周期性重算。
type BotStatistics struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Date                  time.Time `gorm:"uniqueIndex;not null" json:"date"` // 截断到天
	TotalUsers            int       `gorm:"not null;default:0" json:"total_users"`
	TotalSongsPlayed      int       `gorm:"not null;default:0" json:"total_songs_played"`
	TotalCubesCirculating int       `gorm:"not null;default:0" json:"total_cubes_circulating"`
	ActiveRooms           int       `gorm:"not null;default:0" json:"active_rooms"`
}
