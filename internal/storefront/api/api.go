// Package api is the storefront's gateway to the Vendaria auth API. The
// storefront client is parameterized by the AuthAPI interface, so tests run
// against the in-memory Fake and production runs against the HTTP client.
package api

import (
	"context"
	"fmt"
	"net/http"
)

// User is the client-side view of an account, as returned by the server.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Profile   string `json:"profile"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is the result of a successful register or login call.
type Session struct {
	User  User
	Token string
}

// AuthAPI is the capability set the storefront needs from the auth server.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (User, error)
	UpdateProfile(ctx context.Context, token, name, email string) (User, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, token string) error
}

// Error is the single error type callers of AuthAPI see. Server rejections
// carry the HTTP status and the server's error taxonomy; transport and
// decode failures have Status 0 and Kind "network_error". Raw transport
// errors never escape the gateway.
type Error struct {
	// Status is the HTTP status code, or 0 for failures before a response
	// was received.
	Status int

	// Kind is the server's machine-readable error classifier, or
	// "network_error" for transport failures.
	Kind string

	// Message is human-readable and safe to show the shopper.
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server. The session
// layer treats this as "token no longer valid" and clears local state.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func networkError(err error) *Error {
	return &Error{Kind: "network_error", Message: err.Error()}
}
