package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAuthPayload_invalidJSON(t *testing.T) {
	require.Empty(t, ParseAuthPayload([]byte("{not json")))
	require.Empty(t, ParseAuthPayload([]byte(`"a string"`)))
	require.Empty(t, ParseAuthPayload([]byte("null")))
	require.Empty(t, ParseAuthPayload(nil))
}

func TestAuthPayload_IsAccepted(t *testing.T) {
	require.True(t, AuthPayload{"type": "AUTH_SUCCESS"}.IsAccepted())
	require.True(t, AuthPayload{"type": "session-context-update"}.IsAccepted())
	require.False(t, AuthPayload{"type": "auth_success"}.IsAccepted())
	require.False(t, AuthPayload{"type": 1}.IsAccepted())
	require.False(t, AuthPayload{}.IsAccepted())
}

func TestAuthPayload_CompanyIDPrecedence(t *testing.T) {
	p := ParseAuthPayload([]byte(`{"companyId":"12","company_id":13,"user":{"companyId":14}}`))
	id, ok := p.CompanyID()
	require.True(t, ok)
	require.Equal(t, int64(12), id)

	p = ParseAuthPayload([]byte(`{"companyId":"abc","company_id":13}`))
	id, ok = p.CompanyID()
	require.True(t, ok)
	require.Equal(t, int64(13), id)

	p = ParseAuthPayload([]byte(`{"user":{"companyId":"14"}}`))
	id, ok = p.CompanyID()
	require.True(t, ok)
	require.Equal(t, int64(14), id)

	p = ParseAuthPayload([]byte(`{"user":"14"}`))
	_, ok = p.CompanyID()
	require.False(t, ok)
}

func TestAuthPayload_Hints(t *testing.T) {
	p := ParseAuthPayload([]byte(`{"token":"  abc  ","businessIdentifier":"RFC1","userEmail":"a@b.c","extra":[1,2]}`))
	require.Equal(t, "abc", p.Token())
	require.Equal(t, "RFC1", p.BusinessIdentifier())
	require.Equal(t, "a@b.c", p.UserEmail())
	require.Equal(t, []any{1.0, 2.0}, p["extra"])

	p = AuthPayload{"token": 5, "businessIdentifier": 5}
	require.Empty(t, p.Token())
	require.Empty(t, p.BusinessIdentifier())
}
