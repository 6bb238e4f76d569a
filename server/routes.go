package server

import (
	"net/http"

	"github.com/jrsteele09/go-delivery-auth/internal/metrics"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(http.NotFound, s.APIMiddleware()...))

	// Role protected API routes
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequirePathRole())...))
	s.RegisterRouteHandler("GET "+RouteRestaurantOrders, ChainMiddleware(s.RestaurantOrdersHandler(), s.APIMiddleware(s.RequireRole(namespace.Restaurant))...))
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), s.APIMiddleware(s.RequireRole(namespace.Admin))...))
	s.RegisterRouteHandler("DELETE "+RouteAdminUsers, ChainMiddleware(s.AdminDeleteUserHandler(), s.APIMiddleware(s.RequireRole(namespace.Admin))...))
	s.RegisterRouteHandler("PUT "+RouteAdminBlockUser, ChainMiddleware(s.AdminBlockUserHandler(), s.APIMiddleware(s.RequireRole(namespace.Admin))...))
	s.RegisterRouteHandler("GET "+RouteDeliveryEarnings, ChainMiddleware(s.DeliveryEarningsHandler(), s.APIMiddleware(s.RequireRole(namespace.Delivery))...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
}
