package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

func TestEmbeddingKey_DependsOnModelFieldAndText(t *testing.T) {
	base := EmbeddingKey("m1", domain.FieldNeeds, "Python")
	assert.Equal(t, base, EmbeddingKey("m1", domain.FieldNeeds, "Python"))
	assert.NotEqual(t, base, EmbeddingKey("m2", domain.FieldNeeds, "Python"))
	assert.NotEqual(t, base, EmbeddingKey("m1", domain.FieldStrengths, "Python"))
	assert.NotEqual(t, base, EmbeddingKey("m1", domain.FieldNeeds, "Python, Go"))
}

func TestMemoryEmbeddingCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(10, time.Hour)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	vec := []float32{1, 2, 3}
	c.Set(ctx, "k", vec)
	vec[0] = 99

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got, "cache keeps its own copy")
}

func TestMemoryEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(2, time.Hour)

	c.Set(ctx, "a", []float32{1})
	c.Set(ctx, "b", []float32{2})
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", []float32{3})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryEmbeddingCache_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryEmbeddingCache(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []float32{1})
	now = now.Add(2 * time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
