package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/token"
)

// Credentials are posted to the login endpoint
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginResult is what a successful login stored
type LoginResult struct {
	Namespace   namespace.Namespace
	AccessToken string
	User        json.RawMessage
}

// Login authenticates into ns. The backend sets the refresh cookie; the
// access token is stored only when its role belongs to ns. Login goes over
// the plain client so bad credentials never trigger a refresh.
func (c *Client) Login(ctx context.Context, ns namespace.Namespace, creds Credentials) (*LoginResult, error) {
	if !ns.Valid() {
		return nil, fmt.Errorf("%w: %q", autherrors.ErrUnknownNamespace, ns)
	}
	if creds.Role == "" {
		creds.Role = ns.Role()
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	req, err := c.NewRequest(ctx, http.MethodPost, LoginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.refresher.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := newStatusError(req, resp, body)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", autherrors.ErrInvalidCredentials, statusErr)
		}
		return nil, statusErr
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	if role := token.RoleOf(env.AccessToken); role != ns.Role() {
		return nil, fmt.Errorf("%w: namespace %s expects role %q, token has %q",
			autherrors.ErrRoleMismatch, ns, ns.Role(), role)
	}

	var profile any
	if len(env.User) > 0 && string(env.User) != "null" {
		profile = env.User
	}
	c.tokens.Set(ctx, ns, env.AccessToken, profile)
	c.logger.Info().Str("namespace", ns.String()).Str("subject", token.SubjectOf(env.AccessToken)).Msg("logged in")

	return &LoginResult{Namespace: ns, AccessToken: env.AccessToken, User: env.User}, nil
}

// Logout tells the backend to drop the refresh cookie and clears ns. The
// local session is cleared even when the backend call fails.
func (c *Client) Logout(ctx context.Context, ns namespace.Namespace) error {
	defer c.tokens.Clear(ctx, ns)

	req, err := c.NewRequest(ctx, http.MethodPost, LogoutPath, http.NoBody)
	if err != nil {
		return err
	}
	if tok := c.tokens.Get(ctx, ns); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.refresher.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("namespace", ns.String()).Msg("logout request failed")
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(req, resp, body)
	}
	return nil
}

// SessionInfo is an advisory snapshot of a namespace session for UI checks
type SessionInfo struct {
	Namespace     namespace.Namespace `json:"namespace"`
	Authenticated bool                `json:"authenticated"`
	Token         token.Info          `json:"token"`
	User          json.RawMessage     `json:"user,omitempty"`
}

// Session reports what is stored for ns. An expired token is reported, not
// removed; the server decides.
func (c *Client) Session(ctx context.Context, ns namespace.Namespace) SessionInfo {
	info := SessionInfo{
		Namespace:     ns,
		Authenticated: c.tokens.IsAuthenticated(ctx, ns),
	}
	if tok := c.tokens.Get(ctx, ns); tok != "" {
		info.Token = token.Inspect(tok)
	} else {
		info.Token = token.Info{Expired: true}
	}
	if user, ok := c.tokens.Profile(ctx, ns); ok {
		info.User = user
	}
	return info
}
