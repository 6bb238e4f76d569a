// Package store persists per-namespace session credentials in a flat
// key-value backend, using the same key layout the web frontend keeps in
// browser storage.
package store

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Legacy unnamespaced keys. They are read as a last resort and never written.
const (
	LegacyAccessTokenKey = "accessToken"
	LegacyProfileKey     = "user"
)

const authenticatedValue = "true"

// Backend is a flat string key-value store. Single-key operations are
// expected to be atomic; nothing spanning several keys is.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenStore reads and writes the credentials of one namespace at a time.
// Operations are best-effort: backend failures are logged, never returned.
type TokenStore interface {
	Get(ctx context.Context, ns namespace.Namespace) string
	Set(ctx context.Context, ns namespace.Namespace, token string, profile any)
	Clear(ctx context.Context, ns namespace.Namespace)
	ClearAll(ctx context.Context)
	IsAuthenticated(ctx context.Context, ns namespace.Namespace) bool
	Profile(ctx context.Context, ns namespace.Namespace) (json.RawMessage, bool)
}

// Namespaced is the TokenStore over a Backend
type Namespaced struct {
	backend Backend
	logger  zerolog.Logger
}

var _ TokenStore = (*Namespaced)(nil)

type Option func(*Namespaced)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Namespaced) {
		s.logger = logger
	}
}

// New creates a TokenStore persisting into backend
func New(backend Backend, options ...Option) *Namespaced {
	s := &Namespaced{
		backend: backend,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Get returns the namespace's access token or "" when none is stored.
// The user namespace falls back to the legacy unnamespaced token.
func (s *Namespaced) Get(ctx context.Context, ns namespace.Namespace) string {
	if token, ok := s.read(ctx, ns.AccessTokenKey()); ok {
		return token
	}
	if ns == namespace.User {
		token, _ := s.read(ctx, LegacyAccessTokenKey)
		return token
	}
	return ""
}

// Set stores token, marks the namespace authenticated and, when profile is
// not nil, stores its JSON encoding. The writes are not atomic as a group.
func (s *Namespaced) Set(ctx context.Context, ns namespace.Namespace, token string, profile any) {
	s.write(ctx, ns.AccessTokenKey(), token)
	s.write(ctx, ns.AuthenticatedKey(), authenticatedValue)

	if profile == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		s.logger.Warn().Err(err).Str("namespace", ns.String()).Msg("failed to serialize profile")
		return
	}
	s.write(ctx, ns.ProfileKey(), string(data))
}

// Clear removes every key the namespace owns. Other namespaces and the
// legacy keys are left alone.
func (s *Namespaced) Clear(ctx context.Context, ns namespace.Namespace) {
	if err := s.backend.Delete(ctx, ns.Keys()...); err != nil {
		s.logger.Warn().Err(err).Str("namespace", ns.String()).Msg("failed to clear namespace")
	}
}

// ClearAll clears all namespaces and the legacy pair.
func (s *Namespaced) ClearAll(ctx context.Context) {
	for _, ns := range namespace.All {
		s.Clear(ctx, ns)
	}
	if err := s.backend.Delete(ctx, LegacyAccessTokenKey, LegacyProfileKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear legacy keys")
	}
}

func (s *Namespaced) IsAuthenticated(ctx context.Context, ns namespace.Namespace) bool {
	v, _ := s.read(ctx, ns.AuthenticatedKey())
	return v == authenticatedValue
}

// Profile returns the stored profile JSON. The user namespace falls back to
// the legacy profile key.
func (s *Namespaced) Profile(ctx context.Context, ns namespace.Namespace) (json.RawMessage, bool) {
	data, ok := s.read(ctx, ns.ProfileKey())
	if !ok && ns == namespace.User {
		data, ok = s.read(ctx, LegacyProfileKey)
	}
	if !ok || !json.Valid([]byte(data)) {
		return nil, false
	}
	return json.RawMessage(data), true
}

// DecodeProfile unmarshals the namespace profile into out.
func DecodeProfile(ctx context.Context, s TokenStore, ns namespace.Namespace, out any) bool {
	data, ok := s.Profile(ctx, ns)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *Namespaced) read(ctx context.Context, key string) (string, bool) {
	value, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to read from store")
		return "", false
	}
	if !found || value == "" {
		return "", false
	}
	return value, true
}

func (s *Namespaced) write(ctx context.Context, key, value string) {
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write to store")
	}
}
