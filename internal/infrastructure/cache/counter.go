package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local fixed-window counter used when Redis is disabled.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int64
	expires time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryCounter) IncrWithExpire(_ context.Context, namespace, k string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	nk := key(namespace, k)
	w, ok := m.windows[nk]
	if !ok || !now.Before(w.expires) {
		m.sweep(now)
		w = &window{expires: now.Add(ttl)}
		m.windows[nk] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryCounter) TTL(_ context.Context, namespace, k string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key(namespace, k)]
	if !ok {
		return 0, nil
	}
	return w.expires.Sub(m.now()), nil
}

// sweep drops expired windows. Callers hold mu.
func (m *MemoryCounter) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, k)
		}
	}
}
