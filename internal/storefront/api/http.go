package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPClient is the networked AuthAPI implementation.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an AuthAPI talking to the server at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// sessionResponse is the body of successful register and login calls.
type sessionResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// userResponse is the body of calls that return just a user.
type userResponse struct {
	User User `json:"user"`
}

// errorResponse is the server's uniform error body.
type errorResponse struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &resp); err != nil {
		return Session{}, err
	}
	return Session{User: resp.User, Token: resp.Token}, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return Session{}, err
	}
	return Session{User: resp.User, Token: resp.Token}, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context, token string) (User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token, name, email string) (User, error) {
	body := map[string]string{"name": name, "email": email}

	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/users/profile", token, body, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	return c.do(ctx, http.MethodPut, "/users/password", token, body, nil)
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/users/account", token, nil, nil)
}

// do performs one JSON round trip. Non-2xx responses are decoded into the
// server's {error, message} shape and returned as *Error; anything that
// fails before a usable response exists becomes a network *Error.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return networkError(err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return networkError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := errorResponse{
			Kind:    "internal_error",
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		}
		// Best effort; an undecodable error body keeps the fallback message.
		_ = json.NewDecoder(resp.Body).Decode(&serverErr)
		return &Error{Status: resp.StatusCode, Kind: serverErr.Kind, Message: serverErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return networkError(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
