// Package login serves the session endpoints: login, the session probe and
// tenant-scoped reads guarded by RequireTenant.
package login

import (
	"errors"
	"io"
	"net/http"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/resolver"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/session"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/Xepelin-BizOps/Cotizador-OV/internal/login"

	// maxPayloadBytes bounds the login body; larger bodies are treated as empty.
	maxPayloadBytes = 64 << 10

	messageLoginOK        = "¡Login exitoso!"
	messageCompanyMissing = "empresa no encontrada"
	messageInternal       = "error interno"
)

// Handler serves the authentication endpoints.
type Handler struct {
	resolver  *resolver.Resolver
	sessions  *session.Manager
	companies store.CompanyStore
}

func NewHandler(res *resolver.Resolver, sessions *session.Manager, companies store.CompanyStore) *Handler {
	return &Handler{
		resolver:  res,
		sessions:  sessions,
		companies: companies,
	}
}

// Routes registers the endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.LoginHandler)
	mux.HandleFunc("GET /api/auth/me", h.MeHandler)
	mux.HandleFunc("GET /api/auth/company", h.RequireTenant(h.CompanyHandler))
}

// LoginHandler issues a session for the posted payload. It never fails because
// of the payload: a malformed body is treated as empty and a company that
// cannot be resolved simply leaves the company cookie unset.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "login")
	defer span.End()

	payload := readPayload(w, r)

	token := payload.Token()
	if token == "" {
		token = uuid.NewString()
	}

	sess := &models.Session{Token: token}

	source := "none"
	if id, ok := payload.CompanyID(); ok {
		sess.CompanyID = &id
		source = "payload"
	} else if id, src, ok := h.resolver.Resolve(ctx, resolver.Hints{
		BusinessIdentifier: payload.BusinessIdentifier(),
		UserEmail:          payload.UserEmail(),
	}); ok {
		sess.CompanyID = &id
		source = src
	}

	attrs := h.sessions.Issue(w, r, sess)

	span.SetAttributes(
		attribute.String("login.message_type", payload.Type()),
		attribute.Bool("login.company_resolved", sess.HasTenant()),
		attribute.String("login.company_source", source),
		attribute.Bool("login.cookie_secure", attrs.Secure),
	)
	telemetry.GetMetrics().LoginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("company_resolved", sess.HasTenant()),
		attribute.String("source", source),
	))

	event := log.Ctx(ctx).Info().
		Str("message_type", payload.Type()).
		Str("company_source", source).
		Bool("secure_cookie", attrs.Secure)
	if sess.CompanyID != nil {
		event = event.Int64("company_id", *sess.CompanyID)
	}
	event.Msg("session issued")

	w.Header().Set("Access-Control-Allow-Credentials", "true")
	writeJSON(w, http.StatusOK, response{Success: true, Message: messageLoginOK})
}

func readPayload(w http.ResponseWriter, r *http.Request) models.AuthPayload {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("login body unreadable, treating as empty")
		return models.AuthPayload{}
	}
	return models.ParseAuthPayload(body)
}

// MeHandler reports whether the request carries a session. It does not look
// at the company.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Cache-Control", "no-store")

	if _, err := h.sessions.Read(r); err != nil {
		telemetry.GetMetrics().SessionProbesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("active", false)))
		log.Ctx(ctx).Debug().Msg("session probe without session")
		writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: err.Error()})
		return
	}

	telemetry.GetMetrics().SessionProbesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("active", true)))
	writeJSON(w, http.StatusOK, response{Success: true, User: &sessionUser{Session: "active"}})
}

// RequireTenant protects a tenant-scoped route. Requests without a session or
// without a company get a 401; otherwise the tenant is stored in the request
// context for session.TenantFromContext.
func (h *Handler) RequireTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := h.sessions.Verify(r)
		if err != nil {
			reason := "tenant_missing"
			if errors.Is(err, session.ErrNoSession) {
				reason = "no_session"
			}
			telemetry.GetMetrics().TenantDeniedTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
			log.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Str("reason", reason).Msg("tenant-scoped request denied")

			writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: err.Error()})
			return
		}

		trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int64("tenant.company_id", tenant.CompanyID))

		next(w, r.WithContext(session.WithTenant(r.Context(), tenant)))
	}
}

// CompanyHandler returns the company the session belongs to.
func (h *Handler) CompanyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, ok := session.TenantFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: session.ErrTenantMissing.Error()})
		return
	}

	company, err := h.companies.Get(ctx, tenant.CompanyID)
	if err != nil {
		if errors.Is(err, store.ErrCompanyNotFound) {
			writeJSON(w, http.StatusNotFound, response{Success: false, Message: messageCompanyMissing})
			return
		}
		log.Ctx(ctx).Error().Err(err).Int64("company_id", tenant.CompanyID).Msg("failed to load company")
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: messageInternal})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Company: &companyView{
		ID:                 company.ID,
		Name:               company.Name,
		BusinessIdentifier: company.BusinessIdentifier,
	}})
}
