package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestWithCORS(t *testing.T) {
	h := WithCORS(config.ParseAllowList("https://host.example.com", true), okHandler)

	t.Run("preflight from listed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		r.Header.Set("Origin", "https://host.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.Header.Set("Access-Control-Request-Headers", "content-type")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, "https://host.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin gets no grant", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow all echoes the origin", func(t *testing.T) {
		all := WithCORS(config.ParseAllowList("", false), okHandler)
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.Header.Set("Origin", "https://anything.example.com")
		w := httptest.NewRecorder()

		all.ServeHTTP(w, r)

		require.Equal(t, "https://anything.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestWithCrossOriginProtection(t *testing.T) {
	h, err := WithCrossOriginProtection(config.ParseAllowList("https://host.example.com", true), okHandler)
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		origin     string
		fetchSite  string
		wantStatus int
	}{
		{name: "no browser headers", method: http.MethodPost, wantStatus: http.StatusOK},
		{name: "safe method cross site", method: http.MethodGet, origin: "https://evil.example.com", fetchSite: "cross-site", wantStatus: http.StatusOK},
		{name: "same origin", method: http.MethodPost, origin: "http://example.com", fetchSite: "same-origin", wantStatus: http.StatusOK},
		{name: "trusted origin", method: http.MethodPost, origin: "https://host.example.com", fetchSite: "cross-site", wantStatus: http.StatusOK},
		{name: "untrusted origin", method: http.MethodPost, origin: "https://evil.example.com", fetchSite: "cross-site", wantStatus: http.StatusForbidden},
		{name: "untrusted origin old browser", method: http.MethodPost, origin: "https://evil.example.com", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/auth/login", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if tt.fetchSite != "" {
				r.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestWithCrossOriginProtectionAllowAll(t *testing.T) {
	h, err := WithCrossOriginProtection(config.ParseAllowList("*", true), okHandler)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWithCrossOriginProtectionInvalidOrigin(t *testing.T) {
	_, err := WithCrossOriginProtection(config.ParseAllowList("not an origin", true), okHandler)
	require.Error(t, err)
}
