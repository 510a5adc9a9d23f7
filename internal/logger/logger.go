package logger

import (
	"net/http"
	"os"
	"time"

	httpmiddleware "github.com/Xepelin-BizOps/Cotizador-OV/internal/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// RequestLogger attaches a per-request logger to the request context and logs
// each request once it completes.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			event := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				event = hlog.FromRequest(r).Error()
			}
			event.
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("http request")
		})(next)

		h = clientIPHandler("client_ip")(h)
		h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
		h = hlog.URLHandler("path")(h)
		h = hlog.MethodHandler("method")(h)

		return hlog.NewHandler(log)(h)
	}
}

// clientIPHandler adds the client IP, honouring proxy headers, to the request logger.
func clientIPHandler(fieldKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := httpmiddleware.ClientIPFromContext(r.Context())
			if ip == "" {
				ip = httpmiddleware.ExtractClientIP(r)
			}
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str(fieldKey, ip)
			})
			next.ServeHTTP(w, r)
		})
	}
}
