package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaria/vendaria/internal/storefront/api"
	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

func newTestClient(t *testing.T) (*Client, *api.Fake, *localstore.MemoryStore) {
	t.Helper()

	fake := api.NewFake()
	store := localstore.NewMemory()
	client, err := New(context.Background(), store, fake, Options{})
	require.NoError(t, err)
	return client, fake, store
}

func registerAna(t *testing.T, c *Client) api.User {
	t.Helper()
	user, err := c.Register(context.Background(), "Ana Silva", "ana@x.com", "Secreta123!")
	require.NoError(t, err)
	return user
}

func TestLoginActivatesAndPersistsSession(t *testing.T) {
	ctx := context.Background()
	client, fake, store := newTestClient(t)

	_, err := fake.Register(ctx, "Ana Silva", "ana@x.com", "Secreta123!")
	require.NoError(t, err)

	user, err := client.Login(ctx, "ana@x.com", "Secreta123!")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", user.Email)
	assert.True(t, client.IsLoggedIn())

	current, ok := client.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user, current)

	for _, key := range []string{keyToken, keyUser, keyLastActivity} {
		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found, "key %q must be persisted", key)
	}
}

func TestLoginFailureLeavesAnonymous(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.Login(context.Background(), "ghost@x.com", "whatever123")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, client.IsLoggedIn())
}

func TestRegisterLogsStraightIn(t *testing.T) {
	client, _, _ := newTestClient(t)

	registerAna(t, client)
	assert.True(t, client.IsLoggedIn())
}

func TestLogoutClearsLocalState(t *testing.T) {
	ctx := context.Background()
	client, _, store := newTestClient(t)
	registerAna(t, client)

	require.NoError(t, client.Logout(ctx))

	assert.False(t, client.IsLoggedIn())
	_, found, err := store.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLogoutClearsLocalStateEvenWhenAPIFails(t *testing.T) {
	ctx := context.Background()
	client, fake, store := newTestClient(t)
	registerAna(t, client)

	// The network goes away; logout must still end the local session.
	fake.FailNetwork = true
	require.NoError(t, client.Logout(ctx))

	assert.False(t, client.IsLoggedIn())
	_, found, err := store.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnauthorizedResponseForcesLocalLogout(t *testing.T) {
	ctx := context.Background()
	client, fake, store := newTestClient(t)
	registerAna(t, client)

	// Server-side the token is gone; the next authenticated call is a 401.
	fake.RevokeAll()

	_, err := client.Me(ctx)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	assert.False(t, client.IsLoggedIn())
	_, found, getErr := store.Get(ctx, keyUser)
	require.NoError(t, getErr)
	assert.False(t, found, "local state must be cleared after a 401")
}

func TestAuthedCallsRequireActiveSession(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestUpdateProfileRefreshesCachedUser(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	registerAna(t, client)

	updated, err := client.UpdateProfile(ctx, "Ana Souza", "ana.souza@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", updated.Name)

	current, ok := client.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana.souza@x.com", current.Email)
}

func TestChangePasswordWrongCurrentKeepsSession(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	registerAna(t, client)

	err := client.ChangePassword(ctx, "guessed-wrong", "NewSecret456!")
	require.Error(t, err)

	// Wrong current password is a 401 but the bearer token was fine, so
	// the session must survive.
	assert.True(t, client.IsLoggedIn())
}

func TestDeleteAccountEndsSession(t *testing.T) {
	ctx := context.Background()
	client, _, store := newTestClient(t)
	registerAna(t, client)

	require.NoError(t, client.DeleteAccount(ctx))
	assert.False(t, client.IsLoggedIn())

	_, found, err := store.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRestoreResumesFreshSession(t *testing.T) {
	ctx := context.Background()
	fake := api.NewFake()
	store := localstore.NewMemory()

	first, err := New(ctx, store, fake, Options{})
	require.NoError(t, err)
	user, err := first.Register(ctx, "Ana Silva", "ana@x.com", "Secreta123!")
	require.NoError(t, err)

	// A new process over the same store picks the session back up.
	second, err := New(ctx, store, fake, Options{})
	require.NoError(t, err)

	current, ok := second.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user.Email, current.Email)
}

func TestRestoreExpiresStaleSession(t *testing.T) {
	ctx := context.Background()
	fake := api.NewFake()
	store := localstore.NewMemory()

	first, err := New(ctx, store, fake, Options{})
	require.NoError(t, err)
	registerAna(t, first)

	// Rewrite the persisted activity stamp to 31 minutes ago.
	stale := time.Now().Add(-31 * time.Minute).UTC().Format(time.RFC3339)
	require.NoError(t, store.Set(ctx, keyLastActivity, stale))

	var noticed string
	second, err := New(ctx, store, fake, Options{
		Notice: func(msg string) { noticed = msg },
	})
	require.NoError(t, err)

	assert.Equal(t, session.Expired, second.Session.State())
	assert.False(t, second.IsLoggedIn())
	assert.NotEmpty(t, noticed, "expiry must surface a user-visible notice")

	_, found, err := store.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.False(t, found, "expiry must clear persisted state")
}

func TestRestoreIgnoresCorruptUserSnapshot(t *testing.T) {
	ctx := context.Background()
	fake := api.NewFake()
	store := localstore.NewMemory()

	require.NoError(t, store.Set(ctx, keyToken, "tok"))
	require.NoError(t, store.Set(ctx, keyUser, "{corrupt"))
	require.NoError(t, store.Set(ctx, keyLastActivity, time.Now().UTC().Format(time.RFC3339)))

	client, err := New(ctx, store, fake, Options{})
	require.NoError(t, err)
	assert.False(t, client.IsLoggedIn())
}
