package oidcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genes8/docuguard/internal/cache"
)

// newDiscoveryServer serves just enough of the OIDC discovery document for
// oidc.NewProvider to succeed; nothing in these tests exercises token
// exchange or signature verification, which require a live identity
// provider.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
			"userinfo_endpoint":      srv.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := newDiscoveryServer(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	client, err := New(context.Background(), c, srv.URL, "client-id", "client-secret", "https://app.example.com/oidc/callback")
	require.NoError(t, err)
	return client
}

func TestNew_DiscoversProvider(t *testing.T) {
	client := newTestClient(t)
	assert.NotNil(t, client)
}

func TestNew_UnreachableIssuer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	c, err := cache.New(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	_, err = New(context.Background(), c, "http://127.0.0.1:1", "client-id", "secret", "https://app.example.com/callback")
	assert.Error(t, err)
}

func TestBeginLogin_BuildsAuthURLAndBindsState(t *testing.T) {
	client := newTestClient(t)

	authURL, err := client.BeginLogin(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	state := parsed.Query().Get("state")
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, parsed.Query().Get("nonce"))
	assert.Equal(t, "client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "code", parsed.Query().Get("response_type"))

	nonce, ok := client.cache.Get(context.Background(), stateKey(state))
	assert.True(t, ok)
	assert.NotEmpty(t, nonce)
}

func TestCallback_UnknownStateFails(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Callback(context.Background(), "never-issued-state", "some-code")
	assert.Error(t, err)
}

func TestCallback_ConsumesStateEvenOnFailure(t *testing.T) {
	client := newTestClient(t)

	authURL, err := client.BeginLogin(context.Background())
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	// The exchange itself will fail since no real token endpoint is wired
	// up, but the state must be single-use regardless of outcome.
	_, _ = client.Callback(context.Background(), state, "bogus-code")

	_, ok := client.cache.Get(context.Background(), stateKey(state))
	assert.False(t, ok, "state must be deleted after first callback attempt")
}

func TestRandomToken_IsUnpredictableAndNonEmpty(t *testing.T) {
	a, err := randomToken()
	require.NoError(t, err)
	b, err := randomToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
