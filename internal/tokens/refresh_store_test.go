package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genes8/docuguard/internal/cache"
)

func newTestRefreshStore(t *testing.T) *RefreshStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return NewRefreshStore(c)
}

func TestRefreshStore_BindAndIsBound(t *testing.T) {
	s := newTestRefreshStore(t)
	ctx := context.Background()
	userID := uuid.New()

	assert.False(t, s.IsBound(ctx, userID, "whatever"))

	s.Bind(ctx, userID, "token-a", time.Hour)
	assert.True(t, s.IsBound(ctx, userID, "token-a"))
	assert.False(t, s.IsBound(ctx, userID, "token-b"))
}

func TestRefreshStore_RotationInvalidatesPriorToken(t *testing.T) {
	s := newTestRefreshStore(t)
	ctx := context.Background()
	userID := uuid.New()

	s.Bind(ctx, userID, "token-a", time.Hour)
	s.Bind(ctx, userID, "token-b", time.Hour)

	assert.False(t, s.IsBound(ctx, userID, "token-a"))
	assert.True(t, s.IsBound(ctx, userID, "token-b"))
}

func TestRefreshStore_Revoke(t *testing.T) {
	s := newTestRefreshStore(t)
	ctx := context.Background()
	userID := uuid.New()

	s.Bind(ctx, userID, "token-a", time.Hour)
	s.Revoke(ctx, userID)

	assert.False(t, s.IsBound(ctx, userID, "token-a"))
}
