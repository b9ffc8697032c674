// AngelaMos | 2026
// token_test.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := newTestTokens(t)

	token, err := tm.Issue(42, "sid-1", time.Hour)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokenRejectsForeignSignature(t *testing.T) {
	issuer := newTestTokens(t)
	verifier := newTestTokens(t)

	token, err := issuer.Issue(1, "sid", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := newTestTokens(t).Verify("not.a.token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenRejectsOtherAudience(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	a, err := NewTokenManagerFromKey(key, "freelancer-packages", "web")
	require.NoError(t, err)
	b, err := NewTokenManagerFromKey(key, "freelancer-packages", "api")
	require.NoError(t, err)

	token, err := a.Issue(1, "sid", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestEnsureKeyPair(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "keys", "private.pem")
	pub := filepath.Join(dir, "keys", "public.pem")

	created, err := EnsureKeyPair(priv, pub)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureKeyPair(priv, pub)
	require.NoError(t, err)
	assert.False(t, created, "existing key must be reused")

	tm, err := NewTokenManager(config.SessionConfig{
		PrivateKeyPath: priv,
		PublicKeyPath:  pub,
		Issuer:         "freelancer-packages",
		Audience:       "freelancer-packages-web",
	})
	require.NoError(t, err)

	token, err := tm.Issue(7, "sid-7", time.Minute)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
}
