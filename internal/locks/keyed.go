// Package locks serializes work per key, in process (KeyedMutex) or across
// processes sharing a Redis server (RedisLocker).
package locks

import (
	"context"
	"errors"
	"sync"
)

// ErrEmptyKey is returned when a lock is requested for an empty key.
var ErrEmptyKey = errors.New("lock key cannot be empty")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock = func()

// KeyedMutex is a set of mutexes addressed by string key. Entries exist
// only while someone holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (Unlock, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	e := m.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return m.unlocker(key, e), nil
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}
}

// TryLock takes key only if it is free.
func (m *KeyedMutex) TryLock(key string) (Unlock, bool) {
	if key == "" {
		return nil, false
	}
	e := m.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return m.unlocker(key, e), true
	default:
		m.release(key, e)
		return nil, false
	}
}

// Len reports how many keys are held or awaited.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *KeyedMutex) acquire(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

func (m *KeyedMutex) unlocker(key string, e *entry) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}
}
