package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/hub"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和观察者注册。
// 观察者是只读的：连接建立后立即收到 bot_status 快照，
// 之后被动接收所有状态变更事件。
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(h *hub.Hub) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection 处理 WebSocket 连接请求。
// URL 预期格式: /ws
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	remoteIP := c.ClientIP()
	logCtx := logrus.WithField("remote_ip", remoteIP)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时已经写入了 HTTP 错误响应
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, remoteIP)
	h.hub.Subscribe(client)
	client.Run()

	logCtx.Info("WS Handler: Observer connected")
}
