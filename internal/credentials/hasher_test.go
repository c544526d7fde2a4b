package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHashAndVerify(t *testing.T) {
	h := NewHasher(DefaultCost)

	hash, err := h.Hash("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, h.Verify(hash, "correct-horse-battery-staple"))
	assert.False(t, h.Verify(hash, "wrong-password"))
}

func TestHasherClampsLowCost(t *testing.T) {
	h := NewHasher(4)
	assert.Equal(t, DefaultCost, h.cost)
}

func TestHasherNeedsRehash(t *testing.T) {
	low := NewHasher(DefaultCost)
	hash, err := low.Hash("password123")
	require.NoError(t, err)

	same := NewHasher(DefaultCost)
	assert.False(t, same.NeedsRehash(hash))

	higher := NewHasher(DefaultCost + 1)
	assert.True(t, higher.NeedsRehash(hash))

	assert.True(t, same.NeedsRehash("not-a-bcrypt-hash"))
}
