package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config is the subset of token configuration the manager needs
type Config interface {
	GetRefreshTokenLength() int
	GetRefreshTokenExpiry() time.Duration
}

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config Config
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg Config) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID, role string) (string, error) {
	// Single refresh token per user
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Role:   role,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token is older than the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}

// PurgeExpired drops every stored token older than the configured expiry
func (m *Manager) PurgeExpired() (int, error) {
	return m.repo.DeleteIssuedBefore(NowTimeFunc().Add(-m.config.GetRefreshTokenExpiry()))
}

// Rotate validates token and replaces it with a fresh one for the same session
func (m *Manager) Rotate(token string) (string, *StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil || rt == nil {
		return "", nil, autherrors.ErrInvalidRefreshToken
	}

	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return "", nil, autherrors.ErrRefreshTokenExpired
	}

	next, err := m.Create(rt.UserID, rt.Role)
	if err != nil {
		return "", nil, err
	}
	return next, rt, nil
}
