package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 构造一个不绑定真实连接的观察者，
// 测试直接从其 send 通道读取投递的消息。
func newTestClient(h *Hub) *Client {
	return NewClient(h, nil, "test")
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send 通道不应已关闭")
		var event Event
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件投递超时")
		return Event{}
	}
}

func TestHub_InitialSnapshotOnSubscribe(t *testing.T) {
	h := NewHub(func() interface{} {
		return map[string]interface{}{"totalBots": 3, "onlineBots": 2}
	})
	go h.Run()
	defer h.Stop()

	client := newTestClient(h)
	h.Subscribe(client)

	event := receiveEvent(t, client)
	assert.Equal(t, EventBotStatus, event.Type, "新观察者应先收到状态快照")
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["totalBots"])
}

func TestHub_BroadcastReachesAllObservers(t *testing.T) {
	h := NewHub(func() interface{} { return nil })
	go h.Run()
	defer h.Stop()

	first := newTestClient(h)
	second := newTestClient(h)
	h.Subscribe(first)
	h.Subscribe(second)
	// 消费各自的初始快照
	receiveEvent(t, first)
	receiveEvent(t, second)

	require.True(t, h.Publish(Event{Type: EventQueueUpdated, Data: map[string]interface{}{"id": 1}}))
	require.True(t, h.Publish(Event{Type: EventSongLiked, Data: map[string]interface{}{"id": 1}}))

	for _, client := range []*Client{first, second} {
		assert.Equal(t, EventQueueUpdated, receiveEvent(t, client).Type)
		assert.Equal(t, EventSongLiked, receiveEvent(t, client).Type, "单个观察者收到的事件应保持发布顺序")
	}
}

func TestHub_SlowObserverDoesNotBlockOthers(t *testing.T) {
	h := NewHub(func() interface{} { return nil })
	go h.Run()
	defer h.Stop()

	slow := newTestClient(h)
	fast := newTestClient(h)
	h.Subscribe(slow)
	h.Subscribe(fast)
	receiveEvent(t, slow)
	receiveEvent(t, fast)

	// 灌满慢观察者的发送缓冲
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("{}")
	}

	done := make(chan struct{})
	go func() {
		h.Publish(Event{Type: EventBotStarted, Data: map[string]interface{}{"roomId": "r1"}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("慢观察者不应阻塞 Publish")
	}

	assert.Equal(t, EventBotStarted, receiveEvent(t, fast).Type, "其余观察者应正常收到事件")
}

func TestHub_UnsubscribeClosesSendOnce(t *testing.T) {
	h := NewHub(func() interface{} { return nil })
	go h.Run()
	defer h.Stop()

	client := newTestClient(h)
	h.Subscribe(client)
	receiveEvent(t, client)

	// 并发重复注销不应引起二次关闭 panic
	h.Unsubscribe(client)
	h.Unsubscribe(client)

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-client.send:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "注销后 send 通道应被关闭")
}

func TestHub_PublishNonBlockingWhenQueueFull(t *testing.T) {
	h := NewHub(func() interface{} { return nil })
	// 不启动 Run 循环，让事件队列无人消费

	filled := true
	for i := 0; i < cap(h.events)+1; i++ {
		if !h.Publish(Event{Type: EventQueueUpdated}) {
			filled = false
			break
		}
	}
	assert.False(t, filled, "队列满时 Publish 应返回 false 而不是阻塞")
}
