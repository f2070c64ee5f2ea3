package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("bad username or password")

type User struct {
	Username     string   `json:"-"`
	PasswordHash string   `json:"password_hash"`
	Roles        []string `json:"roles"`
}

// UserStore is a read-only set of API users keyed by username.
type UserStore struct {
	users map[string]User
	dummy []byte
}

func NewUserStore(users map[string]User) *UserStore {
	out := make(map[string]User, len(users))
	for name, u := range users {
		u.Username = name
		out[name] = u
	}
	// compared against for unknown users so lookups take the same time
	dummy, _ := bcrypt.GenerateFromPassword([]byte("rolodex-unknown-user"), bcrypt.MinCost)
	return &UserStore{users: out, dummy: dummy}
}

// LoadUsers reads a JSON object of {"username": {"password_hash", "roles"}}.
func LoadUsers(path string) (*UserStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var users map[string]User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	return NewUserStore(users), nil
}

// DevUsers returns the local development accounts.
func DevUsers() (*UserStore, error) {
	seed := []struct {
		name     string
		password string
		roles    []string
	}{
		{"alice", "secret1", []string{"user"}},
		{"bob", "secret2", []string{"admin", "user"}},
	}
	users := make(map[string]User, len(seed))
	for _, s := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		users[s.name] = User{PasswordHash: string(hash), Roles: s.roles}
	}
	return NewUserStore(users), nil
}

func (s *UserStore) Authenticate(username, password string) (User, error) {
	u, ok := s.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
