// AngelaMos | 2026
// token.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

const sessionTokenType = "session"

// TokenManager signs and verifies the ES256 tokens carried in the session
// cookie. A valid signature alone does not make a session live; the server
// side record must also exist.
type TokenManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	issuer     string
	audience   string
}

type SessionClaims struct {
	AccountID int64
	SessionID string
	ExpiresAt time.Time
}

func NewTokenManager(cfg config.SessionConfig) (*TokenManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return newTokenManager(privateKey, cfg.Issuer, cfg.Audience)
}

// NewTokenManagerFromKey builds a manager around an in-memory key.
func NewTokenManagerFromKey(
	key *ecdsa.PrivateKey,
	issuer, audience string,
) (*TokenManager, error) {
	privateKey, err := jwk.Import(key)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	return newTokenManager(privateKey, issuer, audience)
}

func newTokenManager(
	privateKey jwk.Key,
	issuer, audience string,
) (*TokenManager, error) {
	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &TokenManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
	}, nil
}

// EnsureKeyPair writes a fresh P-256 key pair when the private key file is
// missing.
func EnsureKeyPair(privateKeyPath, publicKeyPath string) (bool, error) {
	if _, err := os.Stat(privateKeyPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat private key: %w", err)
	}

	for _, p := range []string{privateKeyPath, publicKeyPath} {
		if dir := filepath.Dir(p); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return false, fmt.Errorf("create key dir: %w", err)
			}
		}
	}

	if err := GenerateKeyPair(privateKeyPath, publicKeyPath); err != nil {
		return false, err
	}

	return true, nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

func (m *TokenManager) Issue(
	accountID int64,
	sessionID string,
	ttl time.Duration,
) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(sessionID).
		Issuer(m.issuer).
		Audience([]string{m.audience}).
		Subject(strconv.FormatInt(accountID, 10)).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		NotBefore(now).
		Claim("type", sessionTokenType).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != sessionTokenType {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	accountID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || accountID <= 0 {
		return nil, fmt.Errorf(
			"verify token: malformed subject: %w",
			core.ErrTokenInvalid,
		)
	}

	sessionID, ok := token.JwtID()
	if !ok || sessionID == "" {
		return nil, fmt.Errorf(
			"verify token: missing session id: %w",
			core.ErrTokenInvalid,
		)
	}

	expiresAt, _ := token.Expiration()

	return &SessionClaims{
		AccountID: accountID,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
