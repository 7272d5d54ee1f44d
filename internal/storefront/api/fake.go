package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Fake is an in-memory AuthAPI for tests. It mirrors the server's validation
// and error taxonomy closely enough for client behavior tests: duplicate
// emails conflict, bad credentials and bad tokens are uniform 401s.
type Fake struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*fakeUser // keyed by email
	tokens map[string]string    // token -> email

	// FailNetwork, when set, makes every call return a network error.
	// Used to test offline behavior such as defensive logout.
	FailNetwork bool
}

type fakeUser struct {
	user     User
	password string
}

// NewFake creates an empty fake auth server.
func NewFake() *Fake {
	return &Fake{
		users:  make(map[string]*fakeUser),
		tokens: make(map[string]string),
	}
}

func (f *Fake) Register(_ context.Context, name, email, password string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return Session{}, networkError(errOffline)
	}
	if name == "" || email == "" || password == "" {
		return Session{}, &Error{Status: http.StatusBadRequest, Kind: "validation_error",
			Message: "name, email and password are required"}
	}
	if _, exists := f.users[email]; exists {
		return Session{}, &Error{Status: http.StatusConflict, Kind: "conflict",
			Message: "user with this email already exists"}
	}

	f.nextID++
	record := &fakeUser{
		user: User{
			ID:        f.nextID,
			Name:      name,
			Email:     email,
			Profile:   "client",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		password: password,
	}
	f.users[email] = record

	return Session{User: record.user, Token: f.issue(email)}, nil
}

func (f *Fake) Login(_ context.Context, email, password string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return Session{}, networkError(errOffline)
	}
	record, ok := f.users[email]
	if !ok || record.password != password {
		return Session{}, unauthorized()
	}
	return Session{User: record.user, Token: f.issue(email)}, nil
}

func (f *Fake) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return networkError(errOffline)
	}
	delete(f.tokens, token)
	return nil
}

func (f *Fake) Me(_ context.Context, token string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return User{}, networkError(errOffline)
	}
	record, err := f.byToken(token)
	if err != nil {
		return User{}, err
	}
	return record.user, nil
}

func (f *Fake) UpdateProfile(_ context.Context, token, name, email string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return User{}, networkError(errOffline)
	}
	record, err := f.byToken(token)
	if err != nil {
		return User{}, err
	}
	if other, exists := f.users[email]; exists && other.user.ID != record.user.ID {
		return User{}, &Error{Status: http.StatusConflict, Kind: "conflict",
			Message: "email is already taken by another user"}
	}

	delete(f.users, record.user.Email)
	record.user.Name = name
	record.user.Email = email
	f.users[email] = record
	f.tokens[token] = email

	return record.user, nil
}

func (f *Fake) ChangePassword(_ context.Context, token, currentPassword, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return networkError(errOffline)
	}
	record, err := f.byToken(token)
	if err != nil {
		return err
	}
	if record.password != currentPassword {
		return &Error{Status: http.StatusUnauthorized, Kind: "unauthorized",
			Message: "current password is incorrect"}
	}
	record.password = newPassword
	return nil
}

func (f *Fake) DeleteAccount(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNetwork {
		return networkError(errOffline)
	}
	record, err := f.byToken(token)
	if err != nil {
		return err
	}
	delete(f.users, record.user.Email)
	delete(f.tokens, token)
	return nil
}

// RevokeAll invalidates every issued token, simulating a server-side token
// rejection on the next authenticated call.
func (f *Fake) RevokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

func (f *Fake) issue(email string) string {
	token := fmt.Sprintf("fake-token-%d-%d", f.nextID, len(f.tokens))
	f.tokens[token] = email
	return token
}

func (f *Fake) byToken(token string) (*fakeUser, error) {
	email, ok := f.tokens[token]
	if !ok {
		return nil, unauthorized()
	}
	record, ok := f.users[email]
	if !ok {
		return nil, unauthorized()
	}
	return record, nil
}

func unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Kind: "unauthorized",
		Message: "invalid email or password"}
}

var errOffline = fmt.Errorf("connection refused")
