package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
)

// Subject is the identity an access token is issued for
type Subject struct {
	ID    string
	Role  string
	Email string
	Name  string
}

// Issuer creates and verifies the access tokens handed out by the backend
type Issuer struct {
	signer Signer
	expiry time.Duration
}

// NewIssuer creates an issuer signing with signer; tokens live for expiry
func NewIssuer(signer Signer, expiry time.Duration) *Issuer {
	if expiry == 0 {
		expiry = 15 * time.Minute
	}
	return &Issuer{
		signer: signer,
		expiry: expiry,
	}
}

// CreateAccessToken signs an access token carrying the subject's role
func (i *Issuer) CreateAccessToken(s Subject) (string, error) {
	now := NowTimeFunc()
	claims := &Claims{
		Role:   s.Role,
		UserID: s.ID,
		Email:  s.Email,
		Name:   s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the token claims
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims, err := i.signer.Parse(raw,
		jwt.WithTimeFunc(NowTimeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if autherrors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherrors.ErrTokenExpired
		}
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "%v", err)
	}
	return claims, nil
}
