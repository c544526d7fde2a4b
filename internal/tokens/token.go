// Package tokens issues and validates the access/refresh JWT pair
// (component D). Tokens are signed HS256 with a shared secret rather than
// the RSA/JWKS scheme the reference implementation used, per the spec's
// shared-secret requirement.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens in the "type"
// claim; the same secret signs both, so the type claim is what prevents a
// refresh token from being accepted where an access token is expected.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWrongType    = errors.New("token is not of the expected type")
)

// Claims is the custom claim set carried by both token kinds.
type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Provider issues and validates HMAC-signed tokens.
type Provider struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
}

// NewProvider builds a provider; secret must be at least 32 bytes (the
// config layer enforces this at startup).
func NewProvider(secret []byte, accessExpiry, refreshExpiry time.Duration, issuer string) *Provider {
	return &Provider{secret: secret, accessExpiry: accessExpiry, refreshExpiry: refreshExpiry, issuer: issuer}
}

func (p *Provider) issue(userID uuid.UUID, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    p.issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueAccessToken creates a short-lived access token.
func (p *Provider) IssueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	return p.issue(userID, TypeAccess, p.accessExpiry)
}

// IssueRefreshToken creates a long-lived refresh token. The caller is
// responsible for binding it in the cache (user:<id>:refresh_token).
func (p *Provider) IssueRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	return p.issue(userID, TypeRefresh, p.refreshExpiry)
}

// Parse validates signature and expiry and returns the claims, without
// checking the type claim — callers needing a specific type should use
// ParseAs.
func (p *Provider) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAs validates the token and additionally requires it be of type
// want (access vs refresh), rejecting cross-use of the two token kinds.
func (p *Provider) ParseAs(tokenString string, want TokenType) (*Claims, error) {
	claims, err := p.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	return claims, nil
}
