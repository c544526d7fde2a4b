package gate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_Missing(t *testing.T) {
	_, err := UserID(context.Background())
	assert.ErrorIs(t, err, ErrNoPrincipal)
}

func TestWithUserID_RoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithUserID(context.Background(), id)

	got, err := UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
