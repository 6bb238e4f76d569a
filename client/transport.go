package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-delivery-auth/internal/metrics"
	"github.com/jrsteele09/go-delivery-auth/namespace"
)

// retriedKey marks a request that already went through refresh-and-retry
type retriedKey struct{}

func withRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func isRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}

// transport is the request interceptor and response interceptor in one
// RoundTripper. It never mutates the caller's request.
type transport struct {
	client *Client
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req, err := replayable(req)
	if err != nil {
		return nil, err
	}
	return t.client.send(req, "")
}

// send attaches a bearer token and hands the response to intercept. bearer
// overrides the stored token; the retry uses it to carry the refreshed one.
func (c *Client) send(req *http.Request, bearer string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if isRetried(req.Context()) && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	if bearer == "" {
		bearer = c.bearerFor(req.Context())
	}
	if bearer != "" {
		out.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.base.RoundTrip(out)
	if err != nil {
		// network errors and timeouts are the caller's to handle
		return nil, err
	}
	return c.intercept(req, resp)
}

// bearerFor returns the token of the namespace the current path belongs to
func (c *Client) bearerFor(ctx context.Context) string {
	ns := namespace.ForPath(c.location.CurrentPath())
	return c.tokens.Get(ctx, ns)
}

func (c *Client) intercept(req *http.Request, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()
	ns := namespace.ForPath(c.location.CurrentPath())

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		body := drain(resp)
		if isRetried(ctx) {
			return nil, newStatusError(req, resp, body)
		}
		return c.refreshAndRetry(req, ns)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.adoptRotatedToken(ctx, ns, resp)
	}
	return resp, nil
}

// refreshAndRetry runs the single recovery attempt for a 401. Every failure
// ends with the namespace cleared and the user sent to its login route,
// except a caller that gave up on its own context: the session is left as is.
func (c *Client) refreshAndRetry(req *http.Request, ns namespace.Namespace) (*http.Response, error) {
	ctx := req.Context()

	tok, err := c.refreshToken(ctx, ns)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, c.fail(ctx, ns, err)
	}

	retry := req.Clone(withRetried(ctx))
	resp, err := c.send(retry, tok)
	if err != nil {
		return nil, c.fail(ctx, ns, err)
	}

	metrics.RefreshAttempts.WithLabelValues(ns.String(), metrics.OutcomeRetried).Inc()
	return resp, nil
}

// fail clears the namespace session and navigates to its login route. err is
// returned unchanged for the caller.
func (c *Client) fail(ctx context.Context, ns namespace.Namespace, err error) error {
	c.logger.Warn().Err(err).Str("namespace", ns.String()).Msg("session recovery failed")
	c.tokens.Clear(ctx, ns)

	route := ns.LoginRoute()
	metrics.Navigations.WithLabelValues(ns.String(), failureCause(err)).Inc()
	c.logger.Info().Str("namespace", ns.String()).Str("route", route).Msg("navigating to login")
	c.navigator.Navigate(ctx, route)
	return err
}

// adoptRotatedToken stores an access token found at the top level of a
// successful JSON response. A role mismatch clears the namespace but does
// not navigate.
func (c *Client) adoptRotatedToken(ctx context.Context, ns namespace.Namespace, resp *http.Response) {
	if resp.Body == nil || !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		// hand back what was read; the caller sees the same read error
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
		return
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	tok := rotatedToken(body)
	if tok == "" {
		return
	}

	if err := c.acceptToken(ctx, ns, tok); err != nil {
		metrics.TokenRotations.WithLabelValues(ns.String(), metrics.OutcomeMismatch).Inc()
		c.logger.Warn().Err(err).Str("namespace", ns.String()).Msg("rotated token rejected")
		return
	}
	metrics.TokenRotations.WithLabelValues(ns.String(), metrics.OutcomeOK).Inc()
	c.logger.Debug().Str("namespace", ns.String()).Msg("rotated access token adopted")
}

// replayable makes sure the request body can be sent a second time
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}

	r := req.Clone(req.Context())
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	r.Body, _ = r.GetBody()
	r.ContentLength = int64(len(data))
	return r, nil
}

func drain(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return body
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
