package models

// Session is what the login endpoint persists for a browser. The token is
// opaque; the company ID is absent when tenant resolution failed.
type Session struct {
	Token     string
	CompanyID *int64
}

// HasTenant reports whether the session was issued with a resolved company.
func (s *Session) HasTenant() bool {
	return s.CompanyID != nil
}
