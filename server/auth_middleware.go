package server

import (
	"context"
	"net/http"
	"strings"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyRole stores the namespace the token was accepted for
	ContextKeyRole ContextKey = "role"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyRequestID stores the X-Request-ID of the request
	ContextKeyRequestID ContextKey = "request_id"
)

// RequireRole is middleware that validates a Bearer access token and checks
// its role claim. Missing, invalid and expired tokens get a 401 so clients
// refresh; a valid token of another role gets a 403.
func (s *Server) RequireRole(role namespace.Namespace) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.authorise(w, r, role, next)
		}
	}
}

// RequirePathRole is RequireRole with the role taken from the {ns} path value
func (s *Server) RequirePathRole() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			role, err := namespace.Parse(r.PathValue("ns"))
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			s.authorise(w, r, role, next)
		}
	}
}

func (s *Server) authorise(w http.ResponseWriter, r *http.Request, role namespace.Namespace, next http.HandlerFunc) {
	raw, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	claims, err := s.issuer.Verify(raw)
	if err != nil {
		msg := "invalid token"
		if autherrors.Is(err, autherrors.ErrTokenExpired) {
			msg = "token expired"
		}
		writeError(w, http.StatusUnauthorized, msg)
		return
	}

	if claims.Role != role.Role() {
		s.logger.Debug().Str("want", role.Role()).Str("got", claims.Role).Str("path", r.URL.Path).Msg("role rejected")
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}

	ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
	ctx = context.WithValue(ctx, ContextKeyRole, role)
	ctx = context.WithValue(ctx, ContextKeyClaims, claims)
	next(w, r.WithContext(ctx))
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyUserID).(string)
	return id
}

func roleFrom(ctx context.Context) namespace.Namespace {
	role, _ := ctx.Value(ContextKeyRole).(namespace.Namespace)
	return role
}

func claimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims
}
