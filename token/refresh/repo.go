package refresh

import (
	"time"
)

// StoredRefreshToken is the backend's record for a refresh cookie value.
// The client only ever sees Token, inside an httpOnly cookie.
type StoredRefreshToken struct {
	Token  string    // Opaque random string sent as the cookie value
	UserID string    // Owner of the session
	Role   string    // Namespace role the session was opened for
	Iat    time.Time // Issued at
}

// Repo stores refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID string) (*StoredRefreshToken, error)
	// DeleteIssuedBefore removes every token issued before t and reports how many went
	DeleteIssuedBefore(t time.Time) (int, error)
}
