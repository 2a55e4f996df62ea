package hub

// 广播事件类型。与仪表盘前端约定的消息 type 字段一致。
const (
	EventBotStatus          = "bot_status"
	EventBotStarted         = "bot_started"
	EventBotStopped         = "bot_stopped"
	EventQueueUpdated       = "queue_updated"
	EventQueueItemRemoved   = "queue_item_removed"
	EventSongLiked          = "song_liked"
	EventRoomCreated        = "room_created"
	EventCompetitionStarted = "competition_started"
	EventCompetitionEnded   = "competition_ended"
	EventCubesPurchased     = "cubes_purchased"
	EventUserRoleUpdated    = "user_role_updated"
	EventBotConfigCreated   = "bot_config_created"
	EventBotConfigUpdated   = "bot_config_updated"
	EventBotConfigDeleted   = "bot_config_deleted"
)

// Event 是推送给所有观察者的状态变更通知。
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
