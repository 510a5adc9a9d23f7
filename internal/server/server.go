package server

import (
	"fmt"
	"net/http"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	httpmiddleware "github.com/Xepelin-BizOps/Cotizador-OV/internal/http"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/logger"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/login"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server wires the authentication endpoints into one HTTP handler
type Server struct {
	login   *login.Handler
	allow   config.AllowList
	tracing bool
}

// NewServer creates a server for the given login handler and origin allow-list
func NewServer(h *login.Handler, allow config.AllowList) *Server {
	return &Server{
		login: h,
		allow: allow,
	}
}

// WithTracing wraps every request in an OpenTelemetry server span.
func (s *Server) WithTracing(enabled bool) *Server {
	s.tracing = enabled
	return s
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler(log zerolog.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.login.Routes(mux)

	protected, err := httpmiddleware.WithCrossOriginProtection(s.allow, mux)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cross-origin protection: %w", err)
	}

	var handler http.Handler = httpmiddleware.WithCORS(s.allow, protected)
	handler = gzhttp.GzipHandler(handler)
	handler = logger.RequestLogger(log)(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)

	if s.tracing {
		handler = otelhttp.NewHandler(handler, "cotizador-auth")
	}

	return handler, nil
}
