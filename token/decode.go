package token

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// segmentParser only decodes segments; signatures are never checked here.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode returns the payload claims of a header.payload.signature token
// without verifying it. Any malformed input yields nil.
func Decode(raw string) jwt.MapClaims {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil
	}

	// numbers stay json.Number so large numeric ids keep every digit
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var claims jwt.MapClaims
	if err := dec.Decode(&claims); err != nil {
		return nil
	}
	return claims
}

// RoleOf returns the role claim, or "" when the token is undecodable or has none.
func RoleOf(raw string) string {
	role, _ := Decode(raw)["role"].(string)
	return role
}

// SubjectOf returns the subject id from the first of subjectId, userId and
// id that is present.
func SubjectOf(raw string) string {
	claims := Decode(raw)
	for _, key := range []string{"subjectId", "userId", "id"} {
		if s := claimString(claims[key]); s != "" {
			return s
		}
	}
	return ""
}

// ExpiresAt returns the exp claim, or the zero time when absent.
func ExpiresAt(raw string) time.Time {
	claims := Decode(raw)
	if claims == nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsExpired fails closed: undecodable tokens and tokens without exp count as expired.
func IsExpired(raw string) bool {
	exp := ExpiresAt(raw)
	if exp.IsZero() {
		return true
	}
	return exp.UnixMilli() < NowTimeFunc().UnixMilli()
}

// Info is an advisory view of a token for UI checks. Nothing in it has been
// verified; the server remains the authority.
type Info struct {
	Valid     bool      `json:"valid"`
	Role      string    `json:"role,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Expired   bool      `json:"expired"`
}

// Inspect summarises the decodable parts of a token.
func Inspect(raw string) Info {
	if Decode(raw) == nil {
		return Info{Expired: true}
	}
	return Info{
		Valid:     true,
		Role:      RoleOf(raw),
		Subject:   SubjectOf(raw),
		ExpiresAt: ExpiresAt(raw),
		Expired:   IsExpired(raw),
	}
}

func claimString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}
