// Package client is the multi-role authenticated HTTP client. Every request
// carries the bearer token of the namespace selected by the current path, and
// a 401 triggers a single cookie-based refresh and replay.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-delivery-auth/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Backend endpoints used by the client
const (
	RefreshPath = "/auth/refresh-token"
	LoginPath   = "/auth/login"
	LogoutPath  = "/auth/logout"
)

// DefaultTimeout bounds every request. Timeouts are never retried.
const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL     *url.URL
	tokens      store.TokenStore
	location    PathProvider
	navigator   Navigator
	logger      zerolog.Logger
	timeout     time.Duration
	jar         http.CookieJar
	base        http.RoundTripper
	refreshPath string
	dedupe      bool
	refreshes   singleflight.Group

	http      *http.Client // instrumented: token injection and refresh
	refresher *http.Client // plain: refresh, login and logout calls
}

type Option func(*Client)

// WithLocation sets where the current path is read from
func WithLocation(location PathProvider) Option {
	return func(c *Client) {
		c.location = location
	}
}

// WithNavigator sets who performs the redirect to a login route
func WithNavigator(navigator Navigator) Option {
	return func(c *Client) {
		c.navigator = navigator
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTransport sets the underlying transport both HTTP clients send through
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// WithCookieJar sets the jar holding the refresh cookie
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithRefreshDeduplication makes concurrent 401s in the same namespace share
// one refresh call. Without it every failing request refreshes on its own and
// the last token written wins.
func WithRefreshDeduplication() Option {
	return func(c *Client) {
		c.dedupe = true
	}
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, tokens store.TokenStore, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:     u,
		tokens:      tokens,
		logger:      log.Logger,
		timeout:     DefaultTimeout,
		base:        http.DefaultTransport,
		refreshPath: RefreshPath,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.location == nil {
		c.location = NewLocation("/")
	}
	if c.navigator == nil {
		if nav, ok := c.location.(Navigator); ok {
			c.navigator = nav
		} else {
			c.navigator = NavigatorFunc(func(_ context.Context, route string) {
				c.logger.Warn().Str("route", route).Msg("no navigator configured")
			})
		}
	}
	if c.jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.jar = jar
	}

	c.refresher = &http.Client{
		Transport: c.base,
		Jar:       c.jar,
		Timeout:   c.timeout,
	}
	c.http = &http.Client{
		Transport: &transport{client: c},
		Jar:       c.jar,
		Timeout:   c.timeout,
	}
	return c, nil
}

// HTTPClient returns the instrumented *http.Client for callers that build
// their own requests.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Tokens returns the store the client reads and writes credentials in
func (c *Client) Tokens() store.TokenStore {
	return c.tokens
}

// URL resolves an API path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// Do sends req through the token interceptor and refresh coordinator.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}
