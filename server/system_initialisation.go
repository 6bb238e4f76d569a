package server

import (
	"context"
	"fmt"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/users"
)

// SeedAccount is a development account created at start up
type SeedAccount struct {
	Email string
	Name  string
	Role  namespace.Namespace
}

// DefaultSeedAccounts has one account per role
var DefaultSeedAccounts = []SeedAccount{
	{Email: "admin@delivery.local", Name: "Platform Admin", Role: namespace.Admin},
	{Email: "kitchen@delivery.local", Name: "Corner Kitchen", Role: namespace.Restaurant},
	{Email: "rider@delivery.local", Name: "Rider One", Role: namespace.Delivery},
	{Email: "customer@delivery.local", Name: "Hungry Customer", Role: namespace.User},
}

// InitialiseSystem makes sure every seed account exists. Existing accounts
// are left untouched.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	password := s.config.GetSeedPassword()

	for _, acct := range DefaultSeedAccounts {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.repos.Users.GetByEmail(acct.Role, acct.Email)
		if err == nil {
			continue
		}
		if !autherrors.Is(err, autherrors.ErrUserNotFound) {
			return fmt.Errorf("[Server InitialiseSystem] failed to look up %s: %w", acct.Email, err)
		}

		user, err := users.New(acct.Email, acct.Name, acct.Role, password)
		if err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create %s: %w", acct.Email, err)
		}
		if err := s.repos.Users.Upsert(user); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to store %s: %w", acct.Email, err)
		}

		s.logger.Info().
			Str("role", acct.Role.String()).
			Str("email", acct.Email).
			Msg("seeded account")
	}
	return nil
}
