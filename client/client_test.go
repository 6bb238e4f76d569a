package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-delivery-auth/client"
	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/internal/metrics"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/store"
	"github.com/jrsteele09/go-delivery-auth/store/memstore"
	"github.com/jrsteele09/go-delivery-auth/token"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) Navigate(_ context.Context, route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type harness struct {
	client   *client.Client
	tokens   *store.Namespaced
	location *client.Location
	nav      *navRecorder
}

func newHarness(t *testing.T, baseURL, path string, opts ...client.Option) *harness {
	t.Helper()
	h := &harness{
		tokens:   store.New(memstore.New(), store.WithLogger(zerolog.Nop())),
		location: client.NewLocation(path),
		nav:      &navRecorder{},
	}
	opts = append([]client.Option{
		client.WithLocation(h.location),
		client.WithNavigator(h.nav),
		client.WithLogger(zerolog.Nop()),
	}, opts...)

	c, err := client.New(baseURL+"/api", h.tokens, opts...)
	require.NoError(t, err)
	h.client = c
	return h
}

func issue(t *testing.T, role string) string {
	t.Helper()
	issuer := token.NewIssuer(token.NewHMACSigner("test-secret"), time.Minute)
	tok, err := issuer.CreateAccessToken(token.Subject{ID: "42", Role: role})
	require.NoError(t, err)
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nested(tok string) map[string]any {
	return map[string]any{"data": map[string]any{"accessToken": tok}}
}

func TestNew(t *testing.T) {
	tokens := store.New(memstore.New())

	_, err := client.New("localhost:8080", tokens)
	require.Error(t, err)

	c, err := client.New("http://localhost:8080/api/", tokens)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api/orders", c.URL("/orders"))
	require.Equal(t, "http://localhost:8080/api/orders", c.URL("orders"))
	require.Equal(t, "https://elsewhere/x", c.URL("https://elsewhere/x"))
	require.NotNil(t, c.HTTPClient())
	require.Equal(t, store.TokenStore(tokens), c.Tokens())
}

func TestBearerFollowsCurrentPath(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))
	defer srv.Close()

	ctx := context.Background()
	h := newHarness(t, srv.URL, "/restaurant/orders")
	h.tokens.Set(ctx, namespace.Restaurant, "R1", nil)
	h.tokens.Set(ctx, namespace.User, "U1", nil)

	require.NoError(t, h.client.GetJSON(ctx, "/orders", nil))
	require.Equal(t, "Bearer R1", gotAuth.Load())

	h.location.SetPath("/user/orders")
	require.NoError(t, h.client.GetJSON(ctx, "/orders", nil))
	require.Equal(t, "Bearer U1", gotAuth.Load())

	t.Run("no token sends no header", func(t *testing.T) {
		h.location.SetPath("/delivery/earnings")
		require.NoError(t, h.client.GetJSON(ctx, "/orders", nil))
		require.Equal(t, "", gotAuth.Load())
	})
}

func TestRefreshAndRetry(t *testing.T) {
	var refreshes, hits atomic.Int32
	var refreshAuth atomic.Value
	var fresh string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		refreshAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": 7})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "admin")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/admin/x")
	h.tokens.Set(ctx, namespace.Admin, "stale", nil)

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, h.client.GetJSON(ctx, "/x", &out))
	require.Equal(t, 7, out.Value)
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, "", refreshAuth.Load(), "refresh carries the cookie only")
	require.Equal(t, fresh, h.tokens.Get(ctx, namespace.Admin))
	require.True(t, h.tokens.IsAuthenticated(ctx, namespace.Admin))
	require.Empty(t, h.nav.Routes())
}

func TestRefreshFlatEnvelope(t *testing.T) {
	var fresh string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": fresh})
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "user")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/")

	require.NoError(t, h.client.GetJSON(ctx, "/x", nil))
	require.Equal(t, fresh, h.tokens.Get(ctx, namespace.User))
}

func TestSecond401IsNotRefreshedAgain(t *testing.T) {
	var refreshes, hits atomic.Int32
	var fresh string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "admin")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/admin/x")

	err := h.client.GetJSON(ctx, "/x", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, autherrors.ErrUnauthorized))

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, []string{"/admin/login"}, h.nav.Routes())
	require.Empty(t, h.tokens.Get(ctx, namespace.Admin))
}

func TestRefreshRoleMismatch(t *testing.T) {
	var hits atomic.Int32
	var wrong string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nested(wrong))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wrong = issue(t, "user")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/admin/x")
	h.tokens.Set(ctx, namespace.Admin, "stale", map[string]string{"name": "A"})
	navigations := metrics.Navigations.WithLabelValues("admin", metrics.OutcomeMismatch)
	before := testutil.ToFloat64(navigations)

	err := h.client.GetJSON(ctx, "/x", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, autherrors.ErrRoleMismatch))

	require.Equal(t, int32(1), hits.Load(), "no retry after a mismatch")
	require.Empty(t, h.tokens.Get(ctx, namespace.Admin))
	require.False(t, h.tokens.IsAuthenticated(ctx, namespace.Admin))
	_, ok := h.tokens.Profile(ctx, namespace.Admin)
	require.False(t, ok)
	require.Empty(t, h.tokens.Get(ctx, namespace.User), "mismatched token is not stored anywhere")
	require.Equal(t, []string{"/admin/login"}, h.nav.Routes())
	require.Equal(t, before+1, testutil.ToFloat64(navigations))
}

func TestRefreshWithoutRoleIsMismatch(t *testing.T) {
	roleless := issue(t, "")
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nested(roleless))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newHarness(t, srv.URL, "/restaurant-panel/menu")
	err := h.client.GetJSON(context.Background(), "/x", nil)
	require.True(t, errors.Is(err, autherrors.ErrRoleMismatch))
	require.Equal(t, []string{"/restaurant/login"}, h.nav.Routes())
}

func TestRefreshNetworkError(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	h := newHarness(t, srv.URL, "/delivery/earnings",
		client.WithRefreshPath(downURL+"/api/auth/refresh-token"))
	h.tokens.Set(ctx, namespace.Delivery, "stale", nil)
	h.tokens.Set(ctx, namespace.Admin, "keep", nil)

	err := h.client.GetJSON(ctx, "/earnings", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, autherrors.ErrRefreshFailed))

	require.Empty(t, h.tokens.Get(ctx, namespace.Delivery))
	require.False(t, h.tokens.IsAuthenticated(ctx, namespace.Delivery))
	require.Equal(t, "keep", h.tokens.Get(ctx, namespace.Admin))
	require.Equal(t, []string{"/delivery/login"}, h.nav.Routes())
}

func TestRefreshRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "refresh token expired"})
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newHarness(t, srv.URL, "/user/orders")
	err := h.client.GetJSON(context.Background(), "/x", nil)
	require.True(t, errors.Is(err, autherrors.ErrRefreshFailed))

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Equal(t, []string{"/user/auth/sign-in"}, h.nav.Routes())
}

func TestRefreshMissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{}})
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newHarness(t, srv.URL, "/admin")
	err := h.client.GetJSON(context.Background(), "/x", nil)
	require.True(t, errors.Is(err, autherrors.ErrRefreshFailed))
	require.True(t, errors.Is(err, autherrors.ErrNoAccessToken))
	require.Equal(t, []string{"/admin/login"}, h.nav.Routes())
}

func TestRotatedTokenAdopted(t *testing.T) {
	var rotated string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": rotated, "orders": []int{1, 2}})
	}))
	defer srv.Close()

	rotated = issue(t, "restaurant")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/restaurant/orders")
	h.tokens.Set(ctx, namespace.Restaurant, "old", map[string]string{"name": "Chef"})

	var out struct {
		Orders []int `json:"orders"`
	}
	require.NoError(t, h.client.GetJSON(ctx, "/orders", &out))
	require.Equal(t, []int{1, 2}, out.Orders, "body is still readable after inspection")
	require.Equal(t, rotated, h.tokens.Get(ctx, namespace.Restaurant))

	profile, ok := h.tokens.Profile(ctx, namespace.Restaurant)
	require.True(t, ok, "profile survives rotation")
	require.JSONEq(t, `{"name":"Chef"}`, string(profile))
}

func TestRotatedTokenMismatch(t *testing.T) {
	var rotated string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": rotated})
	}))
	defer srv.Close()

	rotated = issue(t, "delivery")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/restaurant/orders")
	h.tokens.Set(ctx, namespace.Restaurant, "old", nil)

	require.NoError(t, h.client.GetJSON(ctx, "/orders", nil))
	require.Empty(t, h.tokens.Get(ctx, namespace.Restaurant))
	require.Empty(t, h.tokens.Get(ctx, namespace.Delivery))
	require.Empty(t, h.nav.Routes(), "rotation mismatch does not navigate")
}

func TestNestedTokenNotTreatedAsRotation(t *testing.T) {
	var other string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nested(other))
	}))
	defer srv.Close()

	other = issue(t, "user")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/user")
	h.tokens.Set(ctx, namespace.User, "old", nil)

	require.NoError(t, h.client.GetJSON(ctx, "/x", nil))
	require.Equal(t, "old", h.tokens.Get(ctx, namespace.User))
}

func TestTimeoutIsNotRetried(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	mux.HandleFunc("GET /api/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	h := newHarness(t, srv.URL, "/admin", client.WithTimeout(50*time.Millisecond))
	h.tokens.Set(ctx, namespace.Admin, "tok", nil)

	err := h.client.GetJSON(ctx, "/slow", nil)
	require.Error(t, err)
	require.Equal(t, int32(0), refreshes.Load())
	require.Empty(t, h.nav.Routes())
	require.Equal(t, "tok", h.tokens.Get(ctx, namespace.Admin))
}

func TestOtherStatusesPassThrough(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	mux.HandleFunc("GET /api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "nope"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newHarness(t, srv.URL, "/admin")
	err := h.client.GetJSON(context.Background(), "/forbidden", nil)

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	require.JSONEq(t, `{"message":"nope"}`, string(statusErr.Body))
	require.Equal(t, int32(0), refreshes.Load())
	require.Empty(t, h.nav.Routes())
}

func TestRetryReplaysBody(t *testing.T) {
	var fresh string
	var bodies []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "user")
	h := newHarness(t, srv.URL, "/")

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, h.client.PostJSON(context.Background(), "/orders", map[string]any{"item": "pizza"}, &out))
	require.Equal(t, 9, out.ID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	require.JSONEq(t, `{"item":"pizza"}`, bodies[0])
	require.Equal(t, bodies[0], bodies[1])
}

// streamBody has no GetBody, so the interceptor has to buffer it
type streamBody struct{ io.Reader }

func TestRetryReplaysStreamedBody(t *testing.T) {
	var fresh string
	var last atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("PUT /api/profile", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		last.Store(string(data))
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "delivery")
	h := newHarness(t, srv.URL, "/delivery/profile")

	req, err := h.client.NewRequest(context.Background(), http.MethodPut, "/profile",
		streamBody{Reader: io.LimitReader(newRepeat("ab"), 6)})
	require.NoError(t, err)

	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ababab", last.Load())
}

type repeat struct {
	s string
	i int
}

func newRepeat(s string) *repeat { return &repeat{s: s} }

func (r *repeat) Read(p []byte) (int, error) {
	for n := range p {
		p[n] = r.s[r.i%len(r.s)]
		r.i++
	}
	return len(p), nil
}

func TestRefreshDeduplication(t *testing.T) {
	const concurrent = 5
	var refreshes, rejected atomic.Int32
	var fresh string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		// hold the first refresh until every request has been rejected once
		deadline := time.Now().Add(2 * time.Second)
		for rejected.Load() < concurrent && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			rejected.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "admin")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/admin/orders", client.WithRefreshDeduplication())
	h.tokens.Set(ctx, namespace.Admin, "stale", nil)

	var wg sync.WaitGroup
	errs := make(chan error, concurrent)
	for range concurrent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.client.GetJSON(ctx, "/x", nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, fresh, h.tokens.Get(ctx, namespace.Admin))
}

func TestConcurrent401sRefreshIndependently(t *testing.T) {
	const concurrent = 3
	var refreshes, rejected atomic.Int32
	var fresh string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		// no refresh answers before every request has seen its 401
		deadline := time.Now().Add(2 * time.Second)
		for rejected.Load() < concurrent && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			rejected.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "delivery")
	ctx := context.Background()
	h := newHarness(t, srv.URL, "/delivery/x")
	h.tokens.Set(ctx, namespace.Delivery, "stale", nil)

	var wg sync.WaitGroup
	errs := make(chan error, concurrent)
	for range concurrent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.client.GetJSON(ctx, "/x", nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(concurrent), refreshes.Load(), "one refresh per rejected request")
	require.Equal(t, fresh, h.tokens.Get(ctx, namespace.Delivery))
	require.Empty(t, h.nav.Routes())
}

func TestSharedRefreshOutlivesCancelledCaller(t *testing.T) {
	var refreshes, rejected atomic.Int32
	var fresh string
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		if refreshes.Add(1) == 1 {
			close(started)
		}
		<-release
		writeJSON(w, http.StatusOK, nested(fresh))
	})
	mux.HandleFunc("GET /api/x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			rejected.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fresh = issue(t, "admin")
	h := newHarness(t, srv.URL, "/admin/x", client.WithRefreshDeduplication())
	h.tokens.Set(context.Background(), namespace.Admin, "stale", nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() { leaderErr <- h.client.GetJSON(leaderCtx, "/x", nil) }()
	<-started

	followerErr := make(chan error, 1)
	go func() { followerErr <- h.client.GetJSON(context.Background(), "/x", nil) }()
	require.Eventually(t, func() bool { return rejected.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond) // let the follower join the in-flight refresh

	cancelLeader()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	require.NoError(t, <-followerErr)

	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, fresh, h.tokens.Get(context.Background(), namespace.Admin))
	require.Empty(t, h.nav.Routes(), "a cancelled caller does not end the session")
}
