package auth

import (
	"context"
	"sync"
)

var _ usersRepo = (*usersRepoMock)(nil)

type usersRepoMock struct {
	Users map[string]*User
	mutex sync.Mutex
}

func newUsersRepoMock() *usersRepoMock {
	return &usersRepoMock{
		Users: make(map[string]*User),
	}
}

func (r *usersRepoMock) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Email == user.Email {
			return nil, ErrUserExists
		}
	}

	added := user
	r.Users[user.ID] = &added
	return &added, nil
}

func (r *usersRepoMock) Get(_ context.Context, id string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *usersRepoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}
