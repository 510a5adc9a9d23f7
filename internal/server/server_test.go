package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/login"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/resolver"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/session"
	memorystore "github.com/Xepelin-BizOps/Cotizador-OV/internal/store/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, allow config.AllowList, tracing bool) http.Handler {
	t.Helper()

	companies := memorystore.NewCompanyStore()
	users := memorystore.NewUserStore()
	h := login.NewHandler(resolver.New(companies, users), session.NewManager(0), companies)

	handler, err := NewServer(h, allow).WithTracing(tracing).Handler(zerolog.Nop())
	require.NoError(t, err)
	return handler
}

func TestHealth(t *testing.T) {
	testServer := httptest.NewServer(newTestHandler(t, config.ParseAllowList("", false), false))
	defer testServer.Close()

	resp, err := http.Get(testServer.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestLoginThroughMiddleware(t *testing.T) {
	handler := newTestHandler(t, config.ParseAllowList("https://host.example.com", true), true)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"type":"AUTH_SUCCESS","companyId":42}`))
	r.Header.Set("Origin", "https://host.example.com")
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://host.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CompanyCookieName {
			found = true
			require.Equal(t, "42", c.Value)
		}
	}
	require.True(t, found)
}

func TestCrossSiteLoginRejected(t *testing.T) {
	handler := newTestHandler(t, config.ParseAllowList("https://host.example.com", true), false)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"type":"AUTH_SUCCESS"}`))
	r.Header.Set("Origin", "https://evil.example.com")
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, w.Result().Cookies())
}

func TestSmallResponsesAreNotCompressed(t *testing.T) {
	handler := newTestHandler(t, config.ParseAllowList("", false), false)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Content-Encoding"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}
