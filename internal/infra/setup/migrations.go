package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// MigrateDB 迁移全部数据库表结构。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.QueueItem{},
		&domain.SongLike{},
		&domain.CubeTransaction{},
		&domain.BotConfiguration{},
		&domain.Competition{},
		&domain.URLMapping{},
		&domain.BotStatistics{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return nil
}
