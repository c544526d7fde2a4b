package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := New(context.Background(), Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), Options{URL: "not a url"})
	assert.Error(t, err)
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), Options{URL: "redis://127.0.0.1:1"})
	assert.Error(t, err)
}

func TestGetSet(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "greeting", "hello", 0)
	val, ok := c.Get(ctx, "greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", val)
}

func TestDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)
	assert.True(t, c.Exists(ctx, "k"))

	c.Delete(ctx, "k")
	assert.False(t, c.Exists(ctx, "k"))
}

func TestExists(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	assert.False(t, c.Exists(ctx, "absent"))
	c.Set(ctx, "present", "1", 0)
	assert.True(t, c.Exists(ctx, "present"))
}

func TestTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	assert.Equal(t, time.Duration(0), c.TTL(ctx, "nope"))

	c.Set(ctx, "k", "v", 30*time.Second)
	mr.FastForward(0)
	ttl := c.TTL(ctx, "k")
	assert.True(t, ttl > 0 && ttl <= 30*time.Second)
}

func TestIncrement(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	v, err := c.Increment(ctx, "counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = c.Increment(ctx, "counter", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestExpire(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)
	assert.Equal(t, time.Duration(0), c.TTL(ctx, "k"))

	c.Expire(ctx, "k", time.Minute)
	assert.True(t, c.TTL(ctx, "k") > 0)
}

func TestJSONRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := payload{Name: "widget", Count: 3}
	require.NoError(t, c.SetJSON(ctx, "obj", in, time.Minute))

	var out payload
	ok := c.GetJSON(ctx, "obj", &out)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetJSON_CorruptPayloadIsDeleted(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "obj", "not json", 0)

	var out struct{ Name string }
	ok := c.GetJSON(ctx, "obj", &out)
	assert.False(t, ok)
	assert.False(t, c.Exists(ctx, "obj"))
}

func TestGetJSON_Miss(t *testing.T) {
	c, _ := newTestClient(t)
	var out struct{ Name string }
	assert.False(t, c.GetJSON(context.Background(), "missing", &out))
}

func TestDeleteByPrefix(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "cache:rbac:1:permissions", "x", 0)
	c.Set(ctx, "cache:rbac:1:roles", "x", 0)
	c.Set(ctx, "cache:rbac:2:permissions", "x", 0)

	c.DeleteByPrefix(ctx, "cache:rbac:1:")

	assert.False(t, c.Exists(ctx, "cache:rbac:1:permissions"))
	assert.False(t, c.Exists(ctx, "cache:rbac:1:roles"))
	assert.True(t, c.Exists(ctx, "cache:rbac:2:permissions"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cache:rbac:42", Key("rbac", "42", ""))
	assert.Equal(t, "cache:rbac:42:permissions", Key("rbac", "42", "permissions"))
}
