package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genes8/docuguard/internal/apierr"
	"github.com/genes8/docuguard/internal/cache"
	"github.com/genes8/docuguard/internal/rbac"
	"github.com/genes8/docuguard/internal/storage"
)

func TestExtractBearer_FromCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})

	assert.Equal(t, "cookie-token", extractBearer(r))
}

func TestExtractBearer_FromHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "header-token", extractBearer(r))
}

func TestExtractBearer_CookieTakesPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", extractBearer(r))
}

func TestExtractBearer_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", extractBearer(r))
}

func TestExtractBearer_MalformedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Token abc")
	assert.Equal(t, "", extractBearer(r))
}

func TestWriteAPIErr_MapsForbiddenAndNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	writeAPIErr(w, apierr.New(apierr.CodeForbidden, "nope"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	writeAPIErr(w, apierr.New(apierr.CodeNotFound, "nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	writeAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "nope"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newTestEvaluator(t *testing.T) *rbac.Evaluator {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return rbac.New(nil, nil, c)
}

func TestRequire_RejectsUnauthenticated(t *testing.T) {
	g := &Gate{rbac: newTestEvaluator(t)}
	handlerCalled := false
	h := g.Require("documents", "read", storage.ScopeOwn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

