package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the access token claims shared by the backend and its clients.
// Clients only ever read role, userId and exp; the rest is for display.
type Claims struct {
	Role   string `json:"role"`
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer turns Claims into a compact token and back
type Signer interface {
	Sign(claims *Claims) (string, error)
	Parse(raw string, options ...jwt.ParserOption) (*Claims, error)
}

// HMACSigner signs with HS256 under a shared secret
type HMACSigner struct {
	secret []byte
}

var _ Signer = (*HMACSigner)(nil)

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrapf(err, "signing token for %q", claims.Subject)
	}
	return signed, nil
}

// Parse verifies the signature and, through options, any time-based claims.
// Only HS256 is accepted.
func (h *HMACSigner) Parse(raw string, options ...jwt.ParserOption) (*Claims, error) {
	options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, options...); err != nil {
		return nil, err
	}
	return claims, nil
}
