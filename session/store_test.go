package session

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return NewStore(mem, log.New(io.Discard, "", 0)), mem
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

var alice = models.UserSession{ID: "7", Name: "Alice", Lastname: "Doe", Email: "alice@example.com"}

func TestLoadingStateBeforeResolve(t *testing.T) {
	store, _ := newTestStore(t)

	sess, _, loading := store.Current()
	assert.Nil(t, sess)
	assert.True(t, loading)
	assert.Equal(t, Uninitialized, store.State())

	store.Load(context.Background())
	sess, _, loading = store.Current()
	assert.Nil(t, sess)
	assert.False(t, loading)
}

func TestSetSessionPersistsAndReloads(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSession(ctx, alice, "tok-1"))

	reloaded := NewStore(mem, log.New(io.Discard, "", 0))
	reloaded.Load(ctx)
	sess, token, loading := reloaded.Current()
	require.NotNil(t, sess)
	assert.False(t, loading)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "alice@example.com", sess.Email)
	assert.True(t, sess.IsOnline)
}

func TestSetSessionRejectsIncompleteInput(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SetSession(ctx, alice, ""), ErrInvalidSession)
	assert.ErrorIs(t, store.SetSession(ctx, models.UserSession{Email: "x@example.com"}, "tok"), ErrInvalidSession)
	assert.ErrorIs(t, store.SetSession(ctx, models.UserSession{ID: "1"}, "tok"), ErrInvalidSession)
	assert.False(t, store.LoggedIn())
}

func TestClearSessionKeepsAvatar(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	withAvatar := alice
	withAvatar.Avatar = "/avatar3.png"
	require.NoError(t, store.SetSession(ctx, withAvatar, "tok-1"))
	require.NoError(t, store.ClearSession(ctx))

	_, err := mem.Get(ctx, keySession)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = mem.Get(ctx, keyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, "/avatar3.png", store.SavedAvatar(ctx))
	assert.False(t, store.LoggedIn())

	// The next login without an avatar picks the saved one back up.
	require.NoError(t, store.SetSession(ctx, alice, "tok-2"))
	sess, _, _ := store.Current()
	assert.Equal(t, "/avatar3.png", sess.Avatar)
}

func TestUpdateAvatar(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateAvatar(ctx, "/avatar1.png"))
	_, err := mem.Get(ctx, keyAvatar)
	assert.ErrorIs(t, err, storage.ErrNotFound, "no session means no-op")

	require.NoError(t, store.SetSession(ctx, alice, "tok"))
	require.NoError(t, store.UpdateAvatar(ctx, "/avatar5.png"))

	sess, _, _ := store.Current()
	assert.Equal(t, "/avatar5.png", sess.Avatar)
	assert.Equal(t, "/avatar5.png", store.SavedAvatar(ctx))
}

func TestLoadFailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed session", func(t *testing.T) {
		store, mem := newTestStore(t)
		require.NoError(t, mem.Set(ctx, keySession, "{not json", 0))
		require.NoError(t, mem.Set(ctx, keyToken, "tok", 0))

		store.Load(ctx)
		assert.False(t, store.LoggedIn())
		_, err := mem.Get(ctx, keySession)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("session without token", func(t *testing.T) {
		store, mem := newTestStore(t)
		require.NoError(t, mem.Set(ctx, keySession, `{"id":"7","email":"alice@example.com"}`, 0))

		store.Load(ctx)
		assert.False(t, store.LoggedIn())
	})

	t.Run("expired jwt", func(t *testing.T) {
		store, mem := newTestStore(t)
		expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
		require.NoError(t, mem.Set(ctx, keySession, `{"id":"7","email":"alice@example.com"}`, 0))
		require.NoError(t, mem.Set(ctx, keyToken, expired, 0))

		store.Load(ctx)
		assert.False(t, store.LoggedIn())
		_, err := mem.Get(ctx, keyToken)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestIsAdmin(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.False(t, store.IsAdmin())

	require.NoError(t, store.SetSession(ctx, alice, signedToken(t, jwt.MapClaims{"role": "user"})))
	assert.False(t, store.IsAdmin())

	require.NoError(t, store.SetSession(ctx, alice, signedToken(t, jwt.MapClaims{"role": "admin"})))
	assert.True(t, store.IsAdmin())

	admin := alice
	admin.IsAdmin = true
	require.NoError(t, store.SetSession(ctx, admin, "opaque"))
	assert.True(t, store.IsAdmin())
}
