package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin   = "/api/auth/login"
	RouteAuthRefresh = "/api/auth/refresh-token"
	RouteAuthLogout  = "/api/auth/logout"

	// Role routes, {ns} is one of admin, restaurant, delivery, user
	RouteProfile          = "/api/{ns}/profile"
	RouteRestaurantOrders = "/api/restaurant/orders"
	RouteDeliveryEarnings = "/api/delivery/earnings"
	RouteAdminUsers       = "/api/admin/users"
	RouteAdminBlockUser   = "/api/admin/users/block"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// refreshCookieName is the httpOnly cookie carrying the opaque refresh token
const refreshCookieName = "refreshToken"

// refreshCookiePath scopes the refresh cookie to the auth endpoints
const refreshCookiePath = "/api/auth"

const requestIDHeader = "X-Request-ID"
