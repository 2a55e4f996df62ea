package kmutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("room:1")
			defer km.Unlock("room:1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter, "同一键上的操作应被串行化")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := New()
	km.Lock("room:1")
	defer km.Unlock("room:1")

	done := make(chan struct{})
	go func() {
		km.Lock("room:2")
		km.Unlock("room:2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("不同键上的 Lock 不应相互阻塞")
	}
}

func TestKeyedMutex_EntriesAreReclaimed(t *testing.T) {
	km := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("user:7")
			km.Unlock("user:7")
		}()
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries, "无持有者时锁条目应被回收")
}

func TestKeyedMutex_UnlockUnheldPanics(t *testing.T) {
	km := New()
	require.Panics(t, func() { km.Unlock("never-locked") })
}
