package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/internal/metrics"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/token"
)

// refreshToken exchanges the refresh cookie for a new access token, checks
// its role against ns and stores it.
//
// A shared refresh is detached from the caller that started it: it runs until
// done or until the client timeout, and each waiter gives up only on its own
// context.
func (c *Client) refreshToken(ctx context.Context, ns namespace.Namespace) (string, error) {
	if !c.dedupe {
		return c.doRefresh(ctx, ns)
	}

	ch := c.refreshes.DoChan(ns.String(), func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, c.timeout)
			defer cancel()
		}
		return c.doRefresh(shared, ns)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug().Str("namespace", ns.String()).Msg("joined in-flight refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) doRefresh(ctx context.Context, ns namespace.Namespace) (string, error) {
	tok, err := c.callRefresh(ctx)
	if err != nil {
		metrics.RefreshAttempts.WithLabelValues(ns.String(), failureCause(err)).Inc()
		return "", err
	}

	if err := c.acceptToken(ctx, ns, tok); err != nil {
		metrics.RefreshAttempts.WithLabelValues(ns.String(), metrics.OutcomeMismatch).Inc()
		return "", err
	}

	metrics.RefreshAttempts.WithLabelValues(ns.String(), metrics.OutcomeOK).Inc()
	c.logger.Debug().Str("namespace", ns.String()).Msg("access token refreshed")
	return tok, nil
}

// callRefresh posts to the refresh endpoint on the plain client. The
// request carries cookies only, never a stored bearer token.
func (c *Client) callRefresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(c.refreshPath), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.refresher.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", autherrors.ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, newStatusError(req, resp, body))
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, err)
	}
	c.logger.Debug().Str("shape", env.Shape.String()).Msg("refresh response decoded")
	return env.AccessToken, nil
}

// acceptToken persists tok for ns when its role claim matches the namespace.
// Anything else clears the namespace and persists nothing.
func (c *Client) acceptToken(ctx context.Context, ns namespace.Namespace, tok string) error {
	role := token.RoleOf(tok)
	if role == "" || role != ns.Role() {
		c.tokens.Clear(ctx, ns)
		return fmt.Errorf("%w: namespace %s expects role %q, token has %q",
			autherrors.ErrRoleMismatch, ns, ns.Role(), role)
	}
	c.tokens.Set(ctx, ns, tok, nil)
	return nil
}

// failureCause is the metrics outcome for an error that ends a session
func failureCause(err error) string {
	switch {
	case autherrors.Is(err, autherrors.ErrRoleMismatch):
		return metrics.OutcomeMismatch
	case autherrors.Is(err, autherrors.ErrNoAccessToken):
		return metrics.OutcomeNoToken
	default:
		return metrics.OutcomeFailed
	}
}
