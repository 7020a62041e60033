package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "abc", time.Hour))
	require.NoError(t, store.Set(ctx, "avatar", "/avatar1.png", 0))

	v, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = store.Get(ctx, "avatar")
	require.NoError(t, err)
	assert.Equal(t, "/avatar1.png", v)
}

func TestMemoryStoreRemoveIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Remove(ctx, "missing"))
	require.NoError(t, store.Set(ctx, "cart", "[]", 0))
	require.NoError(t, store.Remove(ctx, "cart"))
	require.NoError(t, store.Remove(ctx, "cart"))

	_, err := store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNamespaceIsolatesClients(t *testing.T) {
	base := NewMemoryStore()
	ctx := context.Background()
	a := Namespace(base, "client-a")
	b := Namespace(base, "client-b")

	require.NoError(t, a.Set(ctx, "cart", `[{"id":1}]`, 0))

	_, err := b.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := base.Get(ctx, "client-a:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, raw)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err := store.Get(ctx, "session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "session", `{"id":"1"}`, 7*24*time.Hour))
	v, err := store.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, v)
	assert.Equal(t, 7*24*time.Hour, mr.TTL("session"))

	mr.FastForward(8 * 24 * time.Hour)
	_, err = store.Get(ctx, "session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "avatar", "/a.png", 0))
	require.NoError(t, store.Remove(ctx, "avatar"))
	require.NoError(t, store.Remove(ctx, "avatar"))
	assert.False(t, mr.Exists("avatar"))
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.StoredValue{}))
	return NewSQLStore(db)
}

func TestSQLStoreUpsert(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "cart", `[{"id":1}]`, 0))
	require.NoError(t, store.Set(ctx, "cart", `[{"id":2}]`, 0))

	v, err := store.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, v)

	var rows int64
	require.NoError(t, store.DB.Model(&models.StoredValue{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	require.NoError(t, store.Remove(ctx, "cart"))
	require.NoError(t, store.Remove(ctx, "cart"))
	_, err = store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreExpiry(t *testing.T) {
	store := newSQLStore(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "abc", time.Hour))
	v, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	var rows int64
	require.NoError(t, store.DB.Model(&models.StoredValue{}).Where("storage_key = ?", "token").Count(&rows).Error)
	assert.Equal(t, int64(0), rows)

	require.NoError(t, store.Set(ctx, "token", "fresh", time.Hour))
	v, err = store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
