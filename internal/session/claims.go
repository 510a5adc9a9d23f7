package session

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// claimsParser tolerates padded segments. Only the payload segment is read, so
// the header may be missing, unknown or unparseable.
var claimsParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims reads the second dot separated segment of a session token as a
// base64url JSON object, without verifying anything else about the token.
// Tokens with fewer than two segments or an undecodable payload yield
// ok == false; the result is a hint only and must not be used to authenticate.
func DecodeClaims(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, false
	}

	raw, err := claimsParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false
	}
	return claims, true
}
