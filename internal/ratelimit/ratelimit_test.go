package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	assert.Equal(t, 0, parseCount(""))
	assert.Equal(t, 1, parseCount("1"))
	assert.Equal(t, 42, parseCount("42"))
	assert.Equal(t, 0, parseCount("abc"))
}

func TestProfilesMatchSpec(t *testing.T) {
	assert.Equal(t, 5, ProfileLogin.MaxRequests)
	assert.Equal(t, 3, ProfileRegister.MaxRequests)
	assert.Equal(t, 3, ProfilePasswordReset.MaxRequests)
}
