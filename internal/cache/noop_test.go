package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	var dst map[string]string
	hit, err := c.Get(ctx, "k", &dst)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", map[string]string{"response": "x"}, time.Hour))

	hit, err = c.Get(ctx, "k", &dst)
	require.NoError(t, err)
	assert.False(t, hit, "no-op cache never stores")
	assert.Nil(t, dst)

	assert.NoError(t, c.Flush(ctx))
	assert.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	a := Key("user", "what is hnsw")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("user", "what is hnsw"))
	assert.NotEqual(t, a, Key("user", "what is ivf"))
	// part boundaries matter
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	_, err := NewRedisCache("127.0.0.1:1", "")
	assert.Error(t, err)
}
