// Package server is a development backend speaking the delivery platform's
// auth protocol: login, cookie-based refresh and per-role protected routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-delivery-auth/internal/config"
	"github.com/jrsteele09/go-delivery-auth/token"
	"github.com/jrsteele09/go-delivery-auth/token/refresh"
	"github.com/jrsteele09/go-delivery-auth/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
}

type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	logger        zerolog.Logger
	repos         Repos
	issuer        *token.Issuer
	refreshTokens *refresh.Manager
	limiter       *clientLimiter
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config config.Config, repos Repos, options ...Option) (*Server, error) {
	if repos.Users == nil || repos.RefreshTokens == nil {
		return nil, fmt.Errorf("[Server New] user and refresh token repos are required")
	}

	s := &Server{
		env:           config.GetEnv(),
		mux:           http.NewServeMux(),
		config:        config,
		logger:        log.Logger,
		repos:         repos,
		issuer:        token.NewIssuer(token.NewHMACSigner(config.GetJWTSecret()), config.GetAccessTokenExpiry()),
		refreshTokens: refresh.NewManager(repos.RefreshTokens, config),
		limiter:       newClientLimiter(config.GetRefreshRatePerMinute()),
	}
	for _, opt := range options {
		opt(s)
	}

	if config.GetSeedUsers() {
		if err := s.InitialiseSystem(context.Background()); err != nil {
			return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Debug().Msgf("[%s] %s", paintMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
