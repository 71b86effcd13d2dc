package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, ok, err := store.GetUserID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Create(ctx, "abc", 7))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))
	userID, ok, err := store.GetUserID(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), userID)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, ok, err = store.GetUserID(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Create(ctx, "short", 7))
	mr.FastForward(2 * time.Hour)
	_, ok, err = store.GetUserID(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "sessions expire with their TTL")
}

func TestStoreOutageIsAnError(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	require.NoError(t, store.Create(ctx, "abc", 7))
	mr.Close()

	_, ok, err := store.GetUserID(ctx, "abc")
	assert.Error(t, err)
	assert.False(t, ok)

	issuer := NewIssuer(testSecret, time.Hour, store)
	_, err = issuer.Issue(ctx, 7, "ostad")
	assert.Error(t, err)
}
