package memuserrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/internal/utils"
	"github.com/jrsteele09/go-oauth2-token-server/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

// UserRepo keeps users in memory, indexed by ID and username.
type UserRepo struct {
	users     map[string]*users.User
	usernames map[string]string // username to user id
	lock      sync.RWMutex
}

func New() *UserRepo {
	return &UserRepo{
		users:     make(map[string]*users.User),
		usernames: make(map[string]string),
	}
}

func (ur *UserRepo) Upsert(user *users.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if existingID, ok := ur.usernames[user.Username]; ok && existingID != user.ID {
		return ierrors.Wrapf(ierrors.ErrDuplicate, "username %s", user.Username)
	}
	if previous, ok := ur.users[user.ID]; ok {
		delete(ur.usernames, previous.Username)
	}
	u := *user
	ur.users[u.ID] = &u
	ur.usernames[u.Username] = u.ID
	return nil
}

func (ur *UserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return ierrors.ErrNotFound
	}
	delete(ur.usernames, user.Username)
	delete(ur.users, id)
	return nil
}

func (ur *UserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernames[username]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *UserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, ierrors.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (ur *UserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		u := *v
		userList = append(userList, &u)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	return utils.Page(userList, offset, limit), nil
}

func (ur *UserRepo) SetBlocked(id string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return ierrors.ErrNotFound
	}
	user.Blocked = blocked
	return nil
}
