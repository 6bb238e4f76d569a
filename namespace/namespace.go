package namespace

import (
	"fmt"
	"strings"
)

// Namespace identifies one of the role partitions that own an independent
// set of stored credentials.
type Namespace string

const (
	Admin      Namespace = "admin"
	Restaurant Namespace = "restaurant"
	Delivery   Namespace = "delivery"
	User       Namespace = "user"
)

// All lists every namespace in a fixed order.
var All = []Namespace{Admin, Restaurant, Delivery, User}

// Login routes the client navigates to when a namespace session is lost
const (
	RouteAdminLogin      = "/admin/login"
	RouteRestaurantLogin = "/restaurant/login"
	RouteDeliveryLogin   = "/delivery/login"
	RouteUserSignIn      = "/user/auth/sign-in"
)

// ForPath classifies a navigation path. Order matters: /restaurant-panel is
// checked ahead of /restaurant even though both land in the same namespace.
func ForPath(path string) Namespace {
	switch {
	case strings.HasPrefix(path, "/admin"):
		return Admin
	case strings.HasPrefix(path, "/restaurant-panel"), strings.HasPrefix(path, "/restaurant"):
		return Restaurant
	case strings.HasPrefix(path, "/delivery"):
		return Delivery
	default:
		return User
	}
}

// Parse converts a string into a Namespace.
func Parse(s string) (Namespace, error) {
	ns := Namespace(strings.ToLower(strings.TrimSpace(s)))
	if !ns.Valid() {
		return "", fmt.Errorf("unknown namespace %q", s)
	}
	return ns, nil
}

func (n Namespace) Valid() bool {
	switch n {
	case Admin, Restaurant, Delivery, User:
		return true
	}
	return false
}

func (n Namespace) String() string {
	return string(n)
}

// Role is the role claim a token must carry to be accepted into the namespace.
func (n Namespace) Role() string {
	return string(n)
}

// LoginRoute returns where the user is sent after an irrecoverable auth failure.
func (n Namespace) LoginRoute() string {
	switch n {
	case Admin:
		return RouteAdminLogin
	case Restaurant:
		return RouteRestaurantLogin
	case Delivery:
		return RouteDeliveryLogin
	default:
		return RouteUserSignIn
	}
}

// Storage keys owned by the namespace.

func (n Namespace) AccessTokenKey() string   { return string(n) + "_accessToken" }
func (n Namespace) AuthenticatedKey() string { return string(n) + "_authenticated" }
func (n Namespace) ProfileKey() string       { return string(n) + "_user" }

// Keys returns every storage key owned by the namespace.
func (n Namespace) Keys() []string {
	return []string{n.AccessTokenKey(), n.AuthenticatedKey(), n.ProfileKey()}
}
