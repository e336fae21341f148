package locker

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process mutex per key. Waiters on the same key are
// served in arrival order; idle keys are dropped.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	waiters []chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, held := m.entries[key]
	if !held {
		m.entries[key] = &entry{}
		m.mu.Unlock()
		return m.unlocker(key), nil
	}
	ch := make(chan struct{})
	e.waiters = append(e.waiters, ch)
	m.mu.Unlock()

	select {
	case <-ch:
		return m.unlocker(key), nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	select {
	case <-ch:
		// handed over while giving up; pass it on
		m.mu.Unlock()
		m.release(key)
		return nil, ctx.Err()
	default:
	}
	for i, w := range e.waiters {
		if w == ch {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return nil, ctx.Err()
}

func (m *KeyedMutex) unlocker(key string) Unlock {
	return once(func() { m.release(key) })
}

// release hands the key to the oldest waiter, or drops it.
func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return
	}
	if len(e.waiters) == 0 {
		delete(m.entries, key)
		return
	}
	next := e.waiters[0]
	e.waiters = e.waiters[1:]
	close(next)
}

// waiting reports the queue length for key.
func (m *KeyedMutex) waiting(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return len(e.waiters)
	}
	return 0
}

func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
