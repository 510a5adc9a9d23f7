// Package session persists the session token and owning company as browser
// cookies and reads them back for tenant-scoped requests.
package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	httpmiddleware "github.com/Xepelin-BizOps/Cotizador-OV/internal/http"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
)

const (
	// CookieName holds the opaque session token.
	CookieName = "session"
	// CompanyCookieName holds the decimal company ID when one was resolved.
	CompanyCookieName = "companyId"
	// DefaultMaxAge is how long a session is retained by the browser.
	DefaultMaxAge = 7 * 24 * time.Hour
)

var (
	ErrNoSession     = errors.New("no autorizado – token no encontrado")
	ErrTenantMissing = errors.New("no autorizado – companyId ausente o inválido")
)

// Attributes are the transport-dependent cookie flags.
type Attributes struct {
	Secure   bool
	SameSite http.SameSite
}

// AttributesFor derives cookie flags from the request. A connection counts as
// secure only when the effective protocol is https and the host is not a
// loopback name. Cross-site cookies need Secure, so SameSite=None is only used
// on secure connections; everything else gets Lax.
func AttributesFor(r *http.Request) Attributes {
	secure := EffectiveProto(r) == "https" && !IsLoopbackHost(r.Host)
	if secure {
		return Attributes{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return Attributes{Secure: false, SameSite: http.SameSiteLaxMode}
}

// EffectiveProto returns the lower-cased protocol the client used, honouring
// the first X-Forwarded-Proto value set by a proxy.
func EffectiveProto(r *http.Request) string {
	if proto := httpmiddleware.FirstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// IsLoopbackHost reports whether host (optionally with a port) names the local machine.
func IsLoopbackHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[]")
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// Manager issues and reads session cookies.
type Manager struct {
	maxAge time.Duration
}

// NewManager creates a manager whose cookies live for maxAge. A non-positive
// maxAge falls back to DefaultMaxAge.
func NewManager(maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Manager{maxAge: maxAge}
}

// Issue writes the session cookie, and the company cookie when the session
// carries a company. It returns the attributes that were applied.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, sess *models.Session) Attributes {
	attrs := AttributesFor(r)

	http.SetCookie(w, m.cookie(CookieName, sess.Token, attrs))
	if sess.CompanyID != nil {
		http.SetCookie(w, m.cookie(CompanyCookieName, strconv.FormatInt(*sess.CompanyID, 10), attrs))
	}

	return attrs
}

func (m *Manager) cookie(name, value string, attrs Attributes) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   attrs.Secure,
		SameSite: attrs.SameSite,
		MaxAge:   int(m.maxAge.Seconds()),
	}
}

// Read returns the session carried by the request. The company ID is set only
// when the company cookie holds a valid identifier.
// Returns ErrNoSession if there is no non-empty session cookie.
func (m *Manager) Read(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	sess := &models.Session{Token: cookie.Value}
	if c, err := r.Cookie(CompanyCookieName); err == nil {
		if id, ok := models.ParseCompanyID(c.Value); ok {
			sess.CompanyID = &id
		}
	}

	return sess, nil
}

// Tenant is a verified session bound to a company.
type Tenant struct {
	Session   string
	CompanyID int64
}

// Verify resolves the tenant for a request. The company comes from the company
// cookie, or failing that from claims embedded in the session token.
// Returns ErrNoSession or ErrTenantMissing; it never falls back to a default
// company.
func (m *Manager) Verify(r *http.Request) (*Tenant, error) {
	sess, err := m.Read(r)
	if err != nil {
		return nil, err
	}

	if sess.CompanyID != nil {
		return &Tenant{Session: sess.Token, CompanyID: *sess.CompanyID}, nil
	}

	if claims, ok := DecodeClaims(sess.Token); ok {
		if id, ok := models.AuthPayload(claims).CompanyID(); ok {
			return &Tenant{Session: sess.Token, CompanyID: id}, nil
		}
	}

	return nil, ErrTenantMissing
}

type contextKey string

const tenantContextKey contextKey = "tenant"

// WithTenant stores a verified tenant in the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, t)
}

// TenantFromContext extracts the tenant stored by WithTenant.
func TenantFromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantContextKey).(*Tenant)
	return t, ok
}
