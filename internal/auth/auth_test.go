// AngelaMos | 2026
// auth_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type fakeAccounts struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*AccountInfo
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: make(map[int64]*AccountInfo)}
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get by email: %w", core.ErrNotFound)
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get by id: %w", core.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Create(
	_ context.Context,
	fullName, email, passwordHash string,
) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Email == email {
			return nil, fmt.Errorf("create: %w", core.ErrDuplicateKey)
		}
	}

	f.nextID++
	a := &AccountInfo{
		ID:           f.nextID,
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
	}
	f.byID[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	a.PasswordHash = hash
	return nil
}

func (f *fakeAccounts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func newTestRedis(t *testing.T) (*core.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &core.Redis{Client: client}, mr
}

func newTestTokens(t *testing.T) *TokenManager {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tm, err := NewTokenManagerFromKey(key, "freelancer-packages", "freelancer-packages-web")
	require.NoError(t, err)
	return tm
}

func newTestService(t *testing.T) (*Service, *fakeAccounts, *miniredis.Miniredis) {
	t.Helper()

	rdb, mr := newTestRedis(t)
	accounts := newFakeAccounts()
	svc := NewService(accounts, NewSessionStore(rdb), newTestTokens(t), ServiceConfig{
		TTL:         time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	})
	return svc, accounts, mr
}
