// AngelaMos | 2026
// session_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	rdb, mr := newTestRedis(t)
	store := NewSessionStore(rdb)

	now := time.Now()
	rec := &SessionRecord{
		ID:        "sid-1",
		AccountID: 5,
		UserAgent: "test-agent",
		IPAddress: "10.0.0.1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Create(ctx, rec))

	t.Run("get returns stored record", func(t *testing.T) {
		got, err := store.Get(ctx, "sid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.AccountID)
		assert.Equal(t, "test-agent", got.UserAgent)
		assert.Equal(t, "10.0.0.1", got.IPAddress)
	})

	t.Run("record carries ttl", func(t *testing.T) {
		ttl := mr.TTL("session:sid-1")
		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("missing record is not found", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("expired record disappears", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, &SessionRecord{
			ID:        "sid-short",
			AccountID: 5,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Minute),
		}))

		mr.FastForward(2 * time.Minute)

		_, err := store.Get(ctx, "sid-short")
		assert.ErrorIs(t, err, core.ErrNotFound)

		list, err := store.ListForAccount(ctx, 5)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "sid-1", list[0].ID)
	})

	t.Run("delete removes record", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, 5, "sid-1"))
		_, err := store.Get(ctx, "sid-1")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRedisSessionStoreDeleteAll(t *testing.T) {
	ctx := context.Background()
	rdb, _ := newTestRedis(t)
	store := NewSessionStore(rdb)

	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, &SessionRecord{
			ID:        id,
			AccountID: 9,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}))
	}
	require.NoError(t, store.Create(ctx, &SessionRecord{
		ID:        "other",
		AccountID: 10,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, store.DeleteAllForAccount(ctx, 9))

	list, err := store.ListForAccount(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Get(ctx, "other")
	assert.NoError(t, err, "other accounts keep their sessions")
}
