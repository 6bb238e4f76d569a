package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-delivery-auth/namespace"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string              `json:"id,omitempty"`    // Unique identifier for the user
	Email        string              `json:"email,omitempty"` // User's email address, unique per role
	Name         string              `json:"name,omitempty"`
	Role         namespace.Namespace `json:"role"`
	PasswordHash string              `json:"-"` // Hashed version of the user's password - never serialize
	DateJoined   time.Time           `json:"date_joined,omitempty"`
	LastLogin    time.Time           `json:"last_login,omitempty"`
	Blocked      bool                `json:"blocked,omitempty"` // Blocked, has the user been blocked from logging in
}

// New creates a user of the given role with a hashed password
func New(email, name string, role namespace.Namespace, password string) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &User{
		Email:        NormaliseEmail(email),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		DateJoined:   time.Now(),
	}, nil
}

func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword reports whether password matches the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// Profile is the public view returned alongside an access token
func (u *User) Profile() map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	}
}
