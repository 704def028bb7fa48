package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

const embeddingNamespace = "embedding"

// EmbeddingCache stores provider vectors by content key.
// Implementations must be safe for concurrent use; Get never fails, a broken backend is a miss.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

// EmbeddingKey identifies a vector by model, field and text fingerprint.
func EmbeddingKey(model string, field domain.FieldType, text string) string {
	return fmt.Sprintf("%s:%s:%s", model, field, domain.HashText(text))
}

type memoryEntry struct {
	key       string
	vec       []float32
	expiresAt time.Time
}

// MemoryEmbeddingCache is a bounded LRU with per-entry expiry.
type MemoryEmbeddingCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List
	items      map[string]*list.Element
	now        func() time.Time
}

func NewMemoryEmbeddingCache(maxEntries int, ttl time.Duration) *MemoryEmbeddingCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryEmbeddingCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *MemoryEmbeddingCache) Get(_ context.Context, key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*memoryEntry)
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return copyVec(entry.vec), true
}

func (c *MemoryEmbeddingCache) Set(_ context.Context, key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.vec = copyVec(vec)
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&memoryEntry{key: key, vec: copyVec(vec), expiresAt: expiresAt})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).key)
	}
}

func (c *MemoryEmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// RedisEmbeddingCache keeps vectors as JSON arrays in Redis.
type RedisEmbeddingCache struct {
	store *Redis
	ttl   time.Duration
	log   *logger.Logger
}

func NewRedisEmbeddingCache(store *Redis, ttl time.Duration, log *logger.Logger) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{store: store, ttl: ttl, log: log.With("service", "RedisEmbeddingCache")}
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.store.Get(ctx, embeddingNamespace, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("embedding cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		c.log.Warn("embedding cache entry corrupt", "key", key)
		return nil, false
	}
	return vec, true
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, embeddingNamespace, key, raw, c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", "key", key, "error", err)
	}
}

func copyVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
