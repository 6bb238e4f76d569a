package server

import (
	"encoding/json"
	"net/http"
	"time"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/token"
	"github.com/jrsteele09/go-delivery-auth/users"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginHandler checks credentials for the requested role, returns an access
// token with the user profile and sets the refresh cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		role := namespace.User
		if req.Role != "" {
			var err error
			if role, err = namespace.Parse(req.Role); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		user, err := s.repos.Users.GetByEmail(role, req.Email)
		if err != nil || !user.CheckPassword(req.Password) {
			s.logger.Info().Str("email", req.Email).Str("role", role.String()).Msg("login rejected")
			writeError(w, http.StatusUnauthorized, autherrors.ErrInvalidCredentials.Error())
			return
		}
		if user.Blocked {
			writeError(w, http.StatusForbidden, "account blocked")
			return
		}

		accessToken, err := s.issueAccessToken(user)
		if err != nil {
			s.logger.Err(err).Str("user", user.ID).Msg("failed to issue access token")
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		refreshToken, err := s.refreshTokens.Create(user.ID, role.Role())
		if err != nil {
			s.logger.Err(err).Str("user", user.ID).Msg("failed to issue refresh token")
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		if err := s.repos.Users.SetLastLogin(user.ID); err != nil {
			s.logger.Warn().Err(err).Str("user", user.ID).Msg("failed to record last login")
		}

		s.setRefreshCookie(w, r, refreshToken)
		writeJSON(w, http.StatusOK, envelope{Data: map[string]any{
			"accessToken": accessToken,
			"user":        user.Profile(),
		}})
	}
}

// RefreshHandler exchanges the refresh cookie for a new access token. The
// refresh token is rotated on every use.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "missing refresh token")
			return
		}

		next, stored, err := s.refreshTokens.Rotate(cookie.Value)
		if err != nil {
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := s.repos.Users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			_ = s.refreshTokens.Delete(next)
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusUnauthorized, autherrors.ErrInvalidRefreshToken.Error())
			return
		}

		accessToken, err := s.issueAccessToken(user)
		if err != nil {
			s.logger.Err(err).Str("user", user.ID).Msg("failed to issue access token")
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		s.setRefreshCookie(w, r, next)
		writeJSON(w, http.StatusOK, envelope{Data: map[string]any{"accessToken": accessToken}})
	}
}

// LogoutHandler revokes the refresh token and expires the cookie. It always
// succeeds so clients can clear local state unconditionally.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
			if err := s.refreshTokens.Delete(cookie.Value); err != nil {
				s.logger.Debug().Err(err).Msg("logout with unknown refresh token")
			}
		}
		s.clearRefreshCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProfileHandler returns the profile of the token's user. The account must
// still hold the role the token was accepted for.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(userIDFrom(r.Context()))
		if err == nil && user.Role != roleFrom(r.Context()) {
			err = autherrors.ErrUserNotFound
		}
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: user.Profile()})
	}
}

// Order is a sample restaurant order
type Order struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Total  float64 `json:"total"`
}

// RestaurantOrdersHandler lists sample orders. When the caller's token is past
// half its lifetime a fresh one rides along as a top-level accessToken.
func (s *Server) RestaurantOrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"orders": []Order{
				{ID: "ord-1001", Status: "preparing", Total: 23.5},
				{ID: "ord-1002", Status: "ready", Total: 12},
			},
		}

		if s.shouldRotate(r) {
			user, err := s.repos.Users.GetByID(userIDFrom(r.Context()))
			if err == nil {
				if tok, err := s.issueAccessToken(user); err == nil {
					resp["accessToken"] = tok
				} else {
					s.logger.Warn().Err(err).Msg("access token rotation failed")
				}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// DeliveryEarningsHandler returns sample earnings for a courier
func (s *Server) DeliveryEarningsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Data: map[string]any{
			"courier":    userIDFrom(r.Context()),
			"currency":   "EUR",
			"today":      42.75,
			"deliveries": 9,
		}})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) shouldRotate(r *http.Request) bool {
	claims := claimsFrom(r.Context())
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Sub(token.NowTimeFunc()) < s.config.GetAccessTokenExpiry()/2
}

func (s *Server) issueAccessToken(user *users.User) (string, error) {
	return s.issuer.CreateAccessToken(token.Subject{
		ID:    user.ID,
		Role:  user.Role.Role(),
		Email: user.Email,
		Name:  user.Name,
	})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetRefreshTokenExpiry() / time.Second),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
