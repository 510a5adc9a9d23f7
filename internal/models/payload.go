package models

import (
	"encoding/json"
	"strings"
)

// Message kinds accepted from the host window.
const (
	MessageTypeAuthSuccess          = "AUTH_SUCCESS" // legacy hosts
	MessageTypeSessionContextUpdate = "session-context-update"
)

// AuthPayload is the open-ended body posted by the host window and forwarded
// untouched to the login endpoint. Only a handful of keys are interpreted;
// everything else is carried opaquely.
type AuthPayload map[string]any

// ParseAuthPayload decodes a JSON object. Any decode failure, or a body that is
// not an object, yields an empty payload rather than an error.
func ParseAuthPayload(data []byte) AuthPayload {
	var p AuthPayload
	if err := json.Unmarshal(data, &p); err != nil || p == nil {
		return AuthPayload{}
	}
	return p
}

// Type returns the message discriminant or "" when missing or not a string.
func (p AuthPayload) Type() string {
	t, _ := p["type"].(string)
	return t
}

// IsAccepted reports whether the discriminant names a recognised message kind.
func (p AuthPayload) IsAccepted() bool {
	switch p.Type() {
	case MessageTypeAuthSuccess, MessageTypeSessionContextUpdate:
		return true
	default:
		return false
	}
}

// Token returns the trimmed session token supplied by the host, if any.
func (p AuthPayload) Token() string {
	t, _ := p["token"].(string)
	return strings.TrimSpace(t)
}

// CompanyID looks for a direct company identifier, in order: companyId,
// company_id, then user.companyId.
func (p AuthPayload) CompanyID() (int64, bool) {
	if id, ok := ParseCompanyID(p["companyId"]); ok {
		return id, true
	}
	if id, ok := ParseCompanyID(p["company_id"]); ok {
		return id, true
	}
	if user, ok := p["user"].(map[string]any); ok {
		return ParseCompanyID(user["companyId"])
	}
	return 0, false
}

// BusinessIdentifier returns the raw businessIdentifier hint.
func (p AuthPayload) BusinessIdentifier() string {
	s, _ := p["businessIdentifier"].(string)
	return s
}

// UserEmail returns the raw userEmail hint.
func (p AuthPayload) UserEmail() string {
	s, _ := p["userEmail"].(string)
	return s
}
