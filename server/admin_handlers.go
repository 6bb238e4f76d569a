package server

import (
	"encoding/json"
	"net/http"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
)

// AdminUsersListHandler lists accounts, optionally filtered by ?role=
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role namespace.Namespace
		if q := r.URL.Query().Get("role"); q != "" {
			var err error
			if role, err = namespace.Parse(q); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		list, err := s.repos.Users.List(role)
		if err != nil {
			s.logger.Err(err).Msg("failed to list users")
			writeError(w, http.StatusInternalServerError, "failed to list users")
			return
		}

		profiles := make([]map[string]any, 0, len(list))
		for _, u := range list {
			p := u.Profile()
			p["blocked"] = u.Blocked
			profiles = append(profiles, p)
		}
		writeJSON(w, http.StatusOK, envelope{Data: profiles})
	}
}

// BlockRequest is the body of PUT /api/admin/users/block
type BlockRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Blocked bool   `json:"blocked"`
}

// AdminBlockUserHandler blocks or unblocks an account. A blocked account
// can no longer log in or refresh.
func (s *Server) AdminBlockUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		role, err := namespace.Parse(req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.repos.Users.SetBlocked(role, req.Email, req.Blocked); err != nil {
			if autherrors.Is(err, autherrors.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}

		s.logger.Info().Str("email", req.Email).Str("role", role.String()).Bool("blocked", req.Blocked).
			Str("by", userIDFrom(r.Context())).Msg("account block changed")
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminDeleteUserHandler removes the account named by ?role= and ?email=.
// Outstanding refresh tokens of the account stop working on their next use.
func (s *Server) AdminDeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := namespace.Parse(r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		email := r.URL.Query().Get("email")

		if err := s.repos.Users.Delete(role, email); err != nil {
			if autherrors.Is(err, autherrors.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to delete user")
			return
		}

		s.logger.Info().Str("email", email).Str("role", role.String()).
			Str("by", userIDFrom(r.Context())).Msg("account deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}
