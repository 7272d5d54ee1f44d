// Package storefront is the client-side core of Vendaria: an explicit
// session/store object constructed once at startup and passed to whatever
// needs it. It owns the local KV store, the session policy, and the auth
// gateway; the presentation layer only ever talks to this object.
package storefront

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vendaria/vendaria/internal/storefront/api"
	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

// Persisted keys, mirroring the browser localStorage layout.
const (
	keyToken        = "token"
	keyUser         = "user"
	keyCart         = "cart"
	keyOrders       = "orders"
	keyAddresses    = "addresses"
	keyLastActivity = "last_activity"
)

// Client holds the storefront's cached identity and coordinates the auth
// gateway with the local store and the session policy.
type Client struct {
	store localstore.Store
	auth  api.AuthAPI

	// Session is the rolling-window session manager. Exposed so feature
	// services (cart, checkout) can gate on an active session.
	Session *session.Manager

	mu    sync.Mutex
	user  *api.User
	token string

	notice func(message string)
}

// Options tunes a Client.
type Options struct {
	// Window is the rolling inactivity window. Zero means session.DefaultWindow.
	Window time.Duration

	// Notice receives user-visible session messages (e.g. expiry). May be nil.
	Notice func(message string)
}

// New builds a Client over the given store and auth gateway, restores any
// persisted session, and applies the rolling-window check to it.
func New(ctx context.Context, store localstore.Store, auth api.AuthAPI, opts Options) (*Client, error) {
	c := &Client{
		store:  store,
		auth:   auth,
		notice: opts.Notice,
	}
	c.Session = session.NewManager(opts.Window, c.onSessionExpired)

	if err := c.restore(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// restore loads the persisted identity and applies the session policy to it.
func (c *Client) restore(ctx context.Context) error {
	token, hasToken, err := c.store.Get(ctx, keyToken)
	if err != nil {
		return err
	}
	rawUser, hasUser, err := c.store.Get(ctx, keyUser)
	if err != nil {
		return err
	}
	rawActivity, hasActivity, err := c.store.Get(ctx, keyLastActivity)
	if err != nil {
		return err
	}

	if !hasToken || !hasUser || !hasActivity {
		return nil
	}

	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		// A corrupt snapshot is treated as no session at all.
		return c.clearLocal(ctx)
	}
	lastActivity, err := time.Parse(time.RFC3339, rawActivity)
	if err != nil {
		return c.clearLocal(ctx)
	}

	if c.Session.CheckOnStart(lastActivity) != session.Active {
		// Expired: onSessionExpired already cleared local state.
		return nil
	}

	c.mu.Lock()
	c.user = &user
	c.token = token
	c.mu.Unlock()
	return nil
}

// Login authenticates and activates a session.
func (c *Client) Login(ctx context.Context, email, password string) (api.User, error) {
	sess, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return api.User{}, err
	}
	if err := c.beginSession(ctx, sess); err != nil {
		return api.User{}, err
	}
	return sess.User, nil
}

// Register creates an account and activates a session, mirroring the server
// behavior of logging a fresh registrant straight in.
func (c *Client) Register(ctx context.Context, name, email, password string) (api.User, error) {
	sess, err := c.auth.Register(ctx, name, email, password)
	if err != nil {
		return api.User{}, err
	}
	if err := c.beginSession(ctx, sess); err != nil {
		return api.User{}, err
	}
	return sess.User, nil
}

// Logout tells the server and clears local state. It is defensively
// idempotent: the local session ends even when the remote call fails, so a
// dead network can never trap a shopper in a logged-in UI.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		// Best effort; tokens are stateless server-side anyway.
		_ = c.auth.Logout(ctx, token)
	}

	c.Session.Deactivate()
	return c.clearLocal(ctx)
}

// Me re-fetches the identity behind the cached token.
func (c *Client) Me(ctx context.Context) (api.User, error) {
	token, err := c.activeToken()
	if err != nil {
		return api.User{}, err
	}

	user, err := c.auth.Me(ctx, token)
	if err != nil {
		return api.User{}, c.checkUnauthorized(ctx, err)
	}

	c.afterActivity(ctx, &user)
	return user, nil
}

// UpdateProfile changes the cached account's name and email.
func (c *Client) UpdateProfile(ctx context.Context, name, email string) (api.User, error) {
	token, err := c.activeToken()
	if err != nil {
		return api.User{}, err
	}

	user, err := c.auth.UpdateProfile(ctx, token, name, email)
	if err != nil {
		return api.User{}, c.checkUnauthorized(ctx, err)
	}

	c.afterActivity(ctx, &user)
	return user, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	token, err := c.activeToken()
	if err != nil {
		return err
	}

	// A 401 here is almost always a wrong current password, not a rejected
	// token, so it must not end the session.
	if err := c.auth.ChangePassword(ctx, token, currentPassword, newPassword); err != nil {
		return err
	}

	c.afterActivity(ctx, nil)
	return nil
}

// DeleteAccount removes the account server-side and ends the local session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	token, err := c.activeToken()
	if err != nil {
		return err
	}

	if err := c.auth.DeleteAccount(ctx, token); err != nil {
		return c.checkUnauthorized(ctx, err)
	}

	c.Session.Deactivate()
	return c.clearLocal(ctx)
}

// CurrentUser returns the cached identity, if a session is active.
func (c *Client) CurrentUser() (api.User, bool) {
	if c.Session.State() != session.Active {
		return api.User{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return api.User{}, false
	}
	return *c.user, true
}

// IsLoggedIn reports whether a session is active.
func (c *Client) IsLoggedIn() bool {
	_, ok := c.CurrentUser()
	return ok
}

// Touch records user activity unrelated to an API call (page navigation,
// cart edits) and persists the new window start.
func (c *Client) Touch(ctx context.Context) {
	c.afterActivity(ctx, nil)
}

// beginSession persists a fresh session and activates the policy.
func (c *Client) beginSession(ctx context.Context, sess api.Session) error {
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, keyToken, sess.Token); err != nil {
		return err
	}
	if err := c.store.Set(ctx, keyUser, string(rawUser)); err != nil {
		return err
	}

	c.mu.Lock()
	user := sess.User
	c.user = &user
	c.token = sess.Token
	c.mu.Unlock()

	c.Session.Activate()
	return c.persistActivity(ctx)
}

// activeToken returns the cached token, or an unauthorized error when no
// session is active. Gating locally keeps expired sessions from ever putting
// a stale token on the wire.
func (c *Client) activeToken() (string, error) {
	if c.Session.State() != session.Active {
		return "", &api.Error{Status: 401, Kind: "unauthorized", Message: "not logged in"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", &api.Error{Status: 401, Kind: "unauthorized", Message: "not logged in"}
	}
	return c.token, nil
}

// checkUnauthorized forces a local logout when the server rejected the
// token: it is presumed invalid or expired server-side and the cached
// session is worthless.
func (c *Client) checkUnauthorized(ctx context.Context, err error) error {
	if api.IsUnauthorized(err) {
		c.Session.Deactivate()
		_ = c.clearLocal(ctx)
	}
	return err
}

// afterActivity refreshes the cached user snapshot (when the call returned
// one) and resets the rolling window.
func (c *Client) afterActivity(ctx context.Context, user *api.User) {
	if user != nil {
		if raw, err := json.Marshal(user); err == nil {
			_ = c.store.Set(ctx, keyUser, string(raw))
		}
		c.mu.Lock()
		u := *user
		c.user = &u
		c.mu.Unlock()
	}

	c.Session.Touch()
	_ = c.persistActivity(ctx)
}

func (c *Client) persistActivity(ctx context.Context) error {
	last := c.Session.LastActivity()
	if last.IsZero() {
		return nil
	}
	return c.store.Set(ctx, keyLastActivity, last.UTC().Format(time.RFC3339))
}

// clearLocal wipes everything: identity, cart, orders, addresses. Both
// logout and expiry end with a store indistinguishable from a fresh one.
func (c *Client) clearLocal(ctx context.Context) error {
	c.mu.Lock()
	c.user = nil
	c.token = ""
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

// onSessionExpired runs on the Active→Expired transition (idle timer or the
// check at startup): clear everything and tell the shopper why.
func (c *Client) onSessionExpired() {
	_ = c.clearLocal(context.Background())
	if c.notice != nil {
		c.notice("your session has expired, please log in again")
	}
}
