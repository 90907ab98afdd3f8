package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisAddr returns the address of a Redis server for integration tests,
// skipping the test when HIWEAVE_TEST_REDIS is unset.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("HIWEAVE_TEST_REDIS")
	if addr == "" {
		t.Skip("HIWEAVE_TEST_REDIS not set")
	}
	return addr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: redisAddr(t)})
	require.NoError(t, err)
	defer c.Close()

	key := NewScopedKeyer(nil, "hiweave-test:").HierarchyKey(t.Name(), HierarchyKeyOpts{})
	defer c.Delete(ctx, key)

	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, key, []byte("doc"), time.Minute))
	data, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("doc"), data)

	n, err := c.Clear(ctx, "hiweave-test:*")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
