package users

import "github.com/jrsteele09/go-delivery-auth/namespace"

type UserRepo interface {
	Upsert(user *User) error
	Delete(role namespace.Namespace, email string) error
	GetByEmail(role namespace.Namespace, email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(role namespace.Namespace) ([]*User, error)
	SetBlocked(role namespace.Namespace, email string, blocked bool) error
	SetLastLogin(ID string) error
}
