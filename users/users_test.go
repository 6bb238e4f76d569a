package users_test

import (
	"testing"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-delivery-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Passw0rd"))
	require.Error(t, users.ValidatePasswordStrength("short1A"))
	require.Error(t, users.ValidatePasswordStrength("password1"))
	require.Error(t, users.ValidatePasswordStrength("PASSWORD1"))
	require.Error(t, users.ValidatePasswordStrength("Password"))
}

func TestNew(t *testing.T) {
	u, err := users.New(" Chef@Example.com ", "Chef", namespace.Restaurant, "Passw0rd")
	require.NoError(t, err)
	require.Equal(t, "chef@example.com", u.Email)
	require.NotEqual(t, "Passw0rd", u.PasswordHash)
	require.True(t, u.CheckPassword("Passw0rd"))
	require.False(t, u.CheckPassword("passw0rd"))

	_, err = users.New("a@b.c", "A", namespace.Namespace("kitchen"), "Passw0rd")
	require.Error(t, err)
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	admin, err := users.New("same@example.com", "Admin", namespace.Admin, "Passw0rd")
	require.NoError(t, err)
	rider, err := users.New("same@example.com", "Rider", namespace.Delivery, "Passw0rd")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(admin))
	require.NoError(t, repo.Upsert(rider))
	require.NotEmpty(t, admin.ID)

	t.Run("email is unique per role", func(t *testing.T) {
		got, err := repo.GetByEmail(namespace.Delivery, "SAME@example.com")
		require.NoError(t, err)
		require.Equal(t, "Rider", got.Name)

		_, err = repo.GetByEmail(namespace.User, "same@example.com")
		require.ErrorIs(t, err, autherrors.ErrUserNotFound)
	})

	t.Run("list by role", func(t *testing.T) {
		list, err := repo.List(namespace.Admin)
		require.NoError(t, err)
		require.Len(t, list, 1)

		all, err := repo.List("")
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("blocked and last login", func(t *testing.T) {
		require.NoError(t, repo.SetBlocked(namespace.Admin, "same@example.com", true))
		require.NoError(t, repo.SetLastLogin(admin.ID))
		got, err := repo.GetByID(admin.ID)
		require.NoError(t, err)
		require.True(t, got.Blocked)
		require.False(t, got.LastLogin.IsZero())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(namespace.Delivery, "same@example.com"))
		_, err := repo.GetByID(rider.ID)
		require.ErrorIs(t, err, autherrors.ErrUserNotFound)
		require.ErrorIs(t, repo.Delete(namespace.Delivery, "same@example.com"), autherrors.ErrUserNotFound)
	})
}
