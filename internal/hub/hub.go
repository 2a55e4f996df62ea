// Package hub 维护活跃的 WebSocket 观察者集合，
// 并把状态变更事件实时扇出给所有连接。
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// StatusFunc 返回当前机器人状态快照，新观察者连接时立即推送，
// 使其无需等待下一次状态变更就能得知现状。
type StatusFunc func() interface{}

// Hub 维护观察者集合并协调事件广播。
// Publish 对调用方永不阻塞：事件队列满时丢弃并告警，
// 慢观察者只会丢自己的消息，不会拖住发布方。
type Hub struct {
	// 内部通道，注册/注销/事件都经过 Run 循环串行处理
	events     chan Event
	register   chan *Client
	unregister chan *Client

	// 观察者集合。Run 循环内写，broadcast 读
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	statusFn StatusFunc
	done     chan struct{}
	closeOnce sync.Once
}

// NewHub 创建 Hub 实例。
// statusFn 提供 bot_status 快照，不能为 nil。
func NewHub(statusFn StatusFunc) *Hub {
	if statusFn == nil {
		panic("status function cannot be nil for Hub")
	}
	return &Hub{
		events:     make(chan Event, 512),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		clients:    make(map[*Client]bool),
		statusFn:   statusFn,
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 的主事件循环，应在单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.events:
			h.broadcast(event)
		case <-h.done:
			log.Info("Hub is shutting down...")
			h.closeAllClients()
			return
		}
	}
}

// Publish 将事件放入广播队列，对调用方非阻塞。
// 返回 false 表示队列已满、事件被丢弃。
func (h *Hub) Publish(event Event) bool {
	select {
	case h.events <- event:
		return true
	default:
		logrus.WithField("event_type", event.Type).Warn("Hub event channel full, dropping event")
		return false
	}
}

// Subscribe 注册一个新的观察者连接。
func (h *Hub) Subscribe(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.CloseConn()
	}
}

// Unsubscribe 请求注销观察者。可与进行中的广播并发调用。
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop 关闭 Hub，断开所有观察者。
func (h *Hub) Stop() {
	h.closeOnce.Do(func() { close(h.done) })
}

// registerClient 把观察者加入集合并立即推送状态快照
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
	logrus.WithField("observers", h.observerCount()).Info("Observer registered to Hub")

	// 同步构造快照，发送仍是非阻塞的
	snapshot := Event{Type: EventBotStatus, Data: h.statusFn()}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		logrus.WithError(err).Error("Hub: Failed to marshal initial bot status snapshot")
		return
	}
	select {
	case client.send <- payload:
	default:
		logrus.Warn("Hub: Observer send channel full when delivering initial snapshot")
	}
}

// unregisterClient 把观察者移出集合并关闭其发送通道。
// 只有 Run 循环执行注销，重复的注销请求会在查不到条目时直接返回，
// 因此发送通道不会被关闭两次。
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	h.clientsMu.Lock()
	_, exists := h.clients[client]
	if exists {
		delete(h.clients, client)
	}
	h.clientsMu.Unlock()

	if exists {
		close(client.send)
		logrus.WithField("observers", h.observerCount()).Info("Observer unregistered from Hub")
	}
}

// broadcast 把事件发送给所有观察者，单个慢观察者不阻塞整体
func (h *Hub) broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("event_type", event.Type).Error("Hub: Failed to marshal event")
		return
	}

	// 复制接收者列表，避免发送期间持有锁
	h.clientsMu.RLock()
	clientsToSend := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clientsToSend = append(clientsToSend, client)
	}
	h.clientsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	logrus.WithFields(logrus.Fields{
		"event_type":      event.Type,
		"recipient_count": len(clientsToSend),
	}).Debug("Broadcasting event to observers")

	for _, client := range clientsToSend {
		select {
		case client.send <- payload:
		default:
			// 通道满说明观察者写不过来，丢弃这条，
			// 后续由 WritePump 或断连清理处理
			logrus.WithField("event_type", event.Type).Warn("Observer send channel full during broadcast, skipping")
		}
	}
}

func (h *Hub) closeAllClients() {
	h.clientsMu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.clientsMu.Unlock()
}

func (h *Hub) observerCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
