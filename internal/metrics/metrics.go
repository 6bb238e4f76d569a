package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values
const (
	OutcomeOK        = "ok"
	OutcomeMismatch  = "role_mismatch"
	OutcomeFailed    = "failed"
	OutcomeNoToken   = "no_token"
	OutcomeRetried   = "retried"
	OutcomeThrottled = "throttled"
)

var (
	// Registry is the dedicated Prometheus registry for the client and dev backend
	Registry = prometheus.NewRegistry()

	// RefreshAttempts counts 401-triggered refreshes by namespace and outcome
	RefreshAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_refresh_attempts_total", Help: "Token refresh attempts by namespace and outcome."},
		[]string{"namespace", "outcome"},
	)
	// TokenRotations counts access tokens adopted from ordinary responses
	TokenRotations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_token_rotations_total", Help: "Opportunistic token rotations by namespace and outcome."},
		[]string{"namespace", "outcome"},
	)
	// Navigations counts forced navigations to a login route by what ended
	// the session: role_mismatch, no_token or failed
	Navigations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_login_navigations_total", Help: "Forced navigations to a namespace login route."},
		[]string{"namespace", "cause"},
	)
	// BackendRequests counts dev backend requests by route and status
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backend_requests_total", Help: "Dev backend requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	// RateLimitDecisions counts rate limited requests that were let through or throttled
	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backend_rate_limit_decisions_total", Help: "Dev backend rate limiter decisions by route and outcome."},
		[]string{"route", "outcome"},
	)
)

var regOnce sync.Once

// RegisterDefault registers collectors to Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(RefreshAttempts)
		Registry.MustRegister(TokenRotations)
		Registry.MustRegister(Navigations)
		Registry.MustRegister(BackendRequests)
		Registry.MustRegister(RateLimitDecisions)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
