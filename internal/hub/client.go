package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的 WebSocket 观察者。
// 观察者只接收事件，入站消息仅用于保活检测。
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	remoteIP string
	send     chan []byte // 向此观察者推送消息的缓冲通道
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, remoteIP string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		remoteIP: remoteIP,
		send:     make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// CloseConn 直接关闭底层连接
func (c *Client) CloseConn() {
	c.conn.Close()
}

// readPump 消费入站消息以驱动 pong 处理，连接断开时向 Hub 注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.conn.Close()
		logrus.WithField("remote_ip", c.remoteIP).Debug("Observer readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// 观察者不发送业务消息，读取只为检测断开
		if _, _, err := c.conn.ReadMessage(); err != nil {
			logCtx := logrus.WithField("remote_ip", c.remoteIP)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			return
		}
	}
}

// writePump 把 send 通道里的消息写到 WebSocket 连接，并定期发送 Ping。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("remote_ip", c.remoteIP).Debug("Observer writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 在注销时关闭了 send 通道
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("remote_ip", c.remoteIP).WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("remote_ip", c.remoteIP).WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}
