package fakeuserrepo

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // role/email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func emailKey(role namespace.Namespace, email string) string {
	return string(role) + "/" + users.NormaliseEmail(email)
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user
	ur.emailIds[emailKey(user.Role, user.Email)] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(role namespace.Namespace, email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := emailKey(role, email)
	userID, ok := ur.emailIds[key]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	delete(ur.emailIds, key)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(role namespace.Namespace, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[emailKey(role, email)]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	return ur.users[userID], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) List(role namespace.Namespace) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0)
	for _, v := range ur.users {
		if role != "" && v.Role != role {
			continue
		}
		userList = append(userList, v)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})
	return userList, nil
}

func (ur *FakeUserRepo) SetBlocked(role namespace.Namespace, email string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[emailKey(role, email)]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	ur.users[userID].Blocked = blocked
	return nil
}

func (ur *FakeUserRepo) SetLastLogin(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	user.LastLogin = time.Now()
	return nil
}
