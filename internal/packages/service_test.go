// AngelaMos | 2026
// service_test.go

package packages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

var (
	alice = core.Session{AccountID: 1, SessionID: "alice-session"}
	bob   = core.Session{AccountID: 2, SessionID: "bob-session"}
)

func TestAdd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	t.Run("valid package persisted", func(t *testing.T) {
		store := newMemoryStore()
		svc := NewService(store, nil)

		p, err := svc.Add(ctx, alice, AddRequest{
			Name:     "Book Lovers",
			Category: "Emily Henry",
			Rating:   "3",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.OwnerID)
		assert.Equal(t, 3, p.Rating)
		assert.Equal(t, 1, store.count())
	})

	invalid := []struct {
		name string
		req  AddRequest
	}{
		{"rating too high", AddRequest{Name: "X", Category: "Y", Rating: "6"}},
		{"rating zero", AddRequest{Name: "X", Category: "Y", Rating: "0"}},
		{"rating not a number", AddRequest{Name: "X", Category: "Y", Rating: "five"}},
		{"rating fractional", AddRequest{Name: "X", Category: "Y", Rating: "4.5"}},
		{"missing name", AddRequest{Category: "Y", Rating: "3"}},
		{"blank category", AddRequest{Name: "X", Category: "   ", Rating: "3"}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			_, err := NewService(store, nil).Add(ctx, alice, tt.req)

			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Zero(t, store.count(), "nothing persisted")
		})
	}

	t.Run("anonymous rejected", func(t *testing.T) {
		_, err := NewService(newMemoryStore(), nil).Add(ctx, core.Anonymous(), AddRequest{
			Name: "X", Category: "Y", Rating: "3",
		})
		assert.ErrorIs(t, err, core.ErrUnauthenticated)
	})
}

func TestListIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.seed(Package{Name: "a1", Category: "c", Rating: 1, OwnerID: alice.AccountID})
	store.seed(Package{Name: "b1", Category: "c", Rating: 2, OwnerID: bob.AccountID})
	store.seed(Package{Name: "a2", Category: "c", Rating: 3, OwnerID: alice.AccountID})

	svc := NewService(store, nil)

	got, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].Name)
	assert.Equal(t, "a2", got[1].Name)
	for _, p := range got {
		assert.Equal(t, alice.AccountID, p.OwnerID)
	}

	empty, err := svc.List(ctx, core.Session{AccountID: 3, SessionID: "s"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.List(ctx, core.Anonymous())
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("rating only keeps other fields", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{
			Name:     "Malibu Rising",
			Category: "Taylor Jenkins Reid",
			Rating:   5,
			OwnerID:  alice.AccountID,
		})

		p, err := NewService(store, nil).Edit(ctx, alice, id, EditRequest{Rating: "2"})
		require.NoError(t, err)
		assert.Equal(t, "Malibu Rising", p.Name)
		assert.Equal(t, "Taylor Jenkins Reid", p.Category)
		assert.Equal(t, 2, p.Rating)

		stored, _ := store.get(id)
		assert.Equal(t, 2, stored.Rating)
		assert.Equal(t, "Malibu Rising", stored.Name)
	})

	t.Run("non owner is forbidden and nothing changes", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{Name: "n", Category: "c", Rating: 4, OwnerID: alice.AccountID})

		_, err := NewService(store, nil).Edit(ctx, bob, id, EditRequest{Name: "stolen"})
		assert.ErrorIs(t, err, core.ErrForbidden)

		stored, _ := store.get(id)
		assert.Equal(t, "n", stored.Name)
	})

	t.Run("missing package is not found", func(t *testing.T) {
		_, err := NewService(newMemoryStore(), nil).Edit(ctx, bob, 99, EditRequest{Name: "x"})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("bad rating rejected and rolled back", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{Name: "n", Category: "c", Rating: 4, OwnerID: alice.AccountID})

		_, err := NewService(store, nil).Edit(ctx, alice, id, EditRequest{Name: "renamed", Rating: "9"})
		assert.ErrorIs(t, err, core.ErrInvalidInput)

		stored, _ := store.get(id)
		assert.Equal(t, "n", stored.Name)
		assert.Equal(t, 4, stored.Rating)
	})

	t.Run("empty request leaves package untouched", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{Name: "n", Category: "c", Rating: 4, OwnerID: alice.AccountID})

		p, err := NewService(store, nil).Edit(ctx, alice, id, EditRequest{Name: "  "})
		require.NoError(t, err)
		assert.Equal(t, "n", p.Name)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{Name: "Book Lovers", Category: "Emily Henry", Rating: 3, OwnerID: alice.AccountID})

		removed, err := NewService(store, nil).Delete(ctx, alice, id)
		require.NoError(t, err)
		assert.Equal(t, "Book Lovers", removed.Name)
		assert.Zero(t, store.count())
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		store := newMemoryStore()
		id := store.seed(Package{Name: "n", Category: "c", Rating: 1, OwnerID: alice.AccountID})

		_, err := NewService(store, nil).Delete(ctx, bob, id)
		assert.ErrorIs(t, err, core.ErrForbidden)
		assert.Equal(t, 1, store.count())
	})

	t.Run("missing package is not found before ownership", func(t *testing.T) {
		_, err := NewService(newMemoryStore(), nil).Delete(ctx, bob, 42)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.NotErrorIs(t, err, core.ErrForbidden)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	id := store.seed(Package{Name: "n", Category: "c", Rating: 1, OwnerID: alice.AccountID})
	svc := NewService(store, nil)

	p, err := svc.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "n", p.Name)

	_, err = svc.Get(ctx, bob, id)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Get(ctx, alice, id+1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
