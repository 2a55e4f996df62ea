// Package kmutex 提供按字符串键划分的互斥锁。
// Supervisor 用它保证同一房间的 check-then-spawn / check-then-kill 串行化，
// EconomyService 用它把同一用户余额、同一房间队列上的操作线性化；
// 不同键上的操作完全并行，没有全局锁。
package kmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex 是按键划分的互斥锁集合。
// 锁条目带引用计数，最后一个持有者释放后即回收，
// 键空间再大也不会泄漏内存。
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New 创建 KeyedMutex 实例
func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock 获取 key 对应的互斥锁，必要时创建锁条目。
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock 释放 key 对应的互斥锁。没有其他等待者时回收锁条目。
// 对未持有的键调用 Unlock 会 panic，与 sync.Mutex 一致。
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("kmutex: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
