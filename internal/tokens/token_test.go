package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *Provider {
	return NewProvider([]byte("a-secret-that-is-at-least-32-bytes-long"), time.Minute, time.Hour, "docuguard")
}

func TestIssueAndParseAccessToken(t *testing.T) {
	p := testProvider()
	userID := uuid.New()

	signed, expiresAt, err := p.IssueAccessToken(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)

	claims, err := p.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, "docuguard", claims.Issuer)
}

func TestParseAs_RejectsWrongType(t *testing.T) {
	p := testProvider()
	userID := uuid.New()

	refresh, _, err := p.IssueRefreshToken(userID)
	require.NoError(t, err)

	_, err = p.ParseAs(refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)

	claims, err := p.ParseAs(refresh, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestParse_ExpiredToken(t *testing.T) {
	p := NewProvider([]byte("a-secret-that-is-at-least-32-bytes-long"), -time.Minute, time.Hour, "docuguard")
	userID := uuid.New()

	signed, _, err := p.IssueAccessToken(userID)
	require.NoError(t, err)

	_, err = p.Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParse_InvalidSignature(t *testing.T) {
	p := testProvider()
	other := NewProvider([]byte("a-totally-different-32-byte-secret!!"), time.Minute, time.Hour, "docuguard")

	signed, _, err := p.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsUnexpectedSigningMethod(t *testing.T) {
	p := testProvider()

	claims := Claims{
		UserID: uuid.New(),
		Type:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = p.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	p := testProvider()
	_, err := p.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
