package repository

import (
	"context"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// FindByID 根据内部 ID 查找房间。
	// 如果房间不存在，返回 repository.ErrRoomNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByHighriseID 根据外部平台房间 ID 查找房间。
	FindByHighriseID(ctx context.Context, highriseRoomID string) (*domain.Room, error)

	// FindAllActive 返回所有未被软删除的房间。
	FindAllActive(ctx context.Context) ([]domain.Room, error)

	// Save 保存房间信息。ID 为零值时创建，否则更新。
	Save(ctx context.Context, room *domain.Room) error

	// UpdateCurrentSong 更新房间的当前歌曲快照 (JSON，可为空字符串表示无)。
	UpdateCurrentSong(ctx context.Context, roomID uint, songJSON string) error

	// CountActive 返回活跃房间数 (统计任务使用)。
	CountActive(ctx context.Context) (int64, error)
}
