package domain

import "time"

// QueueItem 表示房间播放队列中的一条点歌请求。
// Position 从 1 开始，在同一房间内唯一且连续；删除任意一条后，
// 其后的条目整体前移，保持 1..N 连续（由 EconomyService 维护）。
// IsPlaying 在同一房间内最多只有一条为 true。
type QueueItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"index;not null" json:"room_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	SongTitle   string    `gorm:"not null" json:"song_title"`
	SongArtist  string    `gorm:"not null" json:"song_artist"`
	Platform    string    `gorm:"not null" json:"platform"` // youtube, spotify, soundcloud
	PlatformURL string    `gorm:"not null" json:"platform_url"`
	CubesSpent  int       `gorm:"not null;default:10" json:"cubes_spent"`
	Position    int       `gorm:"not null" json:"position"`
	Likes       int       `gorm:"not null;default:0" json:"likes"` // 永远 >= 0
	IsPlaying   bool      `gorm:"not null;default:false" json:"is_playing"`
	AddedAt     time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// SongLike 是 (用户, 队列条目) 的点赞关系，存在与否是
// 该用户是否已点过赞的唯一事实来源，保证 Like 幂等。
type SongLike struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"user_id"`
	QueueItemID uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"queue_item_id"`
	LikedAt     time.Time `gorm:"autoCreateTime" json:"liked_at"`
}
