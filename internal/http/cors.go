package http

import (
	"fmt"
	"net/http"

	"filippo.io/csrf"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// WithCORS allows credentialed cross-origin calls from the allow-list, or from
// any origin when the list allows all.
func WithCORS(allow config.AllowList, h http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allow.Explicit(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Cache-Control"},
		AllowCredentials: true, // Required for cookie-based sessions
	}
	if allow.AllowAll {
		// credentialed responses must name the origin, never "*"
		opts.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(opts).Handler(h)
}

// WithCrossOriginProtection rejects cross-origin unsafe requests unless they
// come from an allow-listed origin. In allow-all mode the handler is returned
// unchanged.
func WithCrossOriginProtection(allow config.AllowList, h http.Handler) (http.Handler, error) {
	if allow.AllowAll {
		log.Warn().Msg("all origins allowed, cross-origin protection disabled")
		return h, nil
	}

	protection := csrf.New()
	for _, origin := range allow.Explicit() {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("invalid trusted origin %q: %w", origin, err)
		}
	}

	return protection.Handler(h), nil
}
