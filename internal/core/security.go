// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16
)

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidHash   = errors.New("invalid password hash")
)

// HashPassword derives an argon2id digest with a fresh random salt, so two
// calls with the same plaintext never return the same string.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argonTime,
		argonMemory,
		argonThreads,
		argonKeyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey(
		[]byte(password),
		salt,
		params.time,
		params.memory,
		params.threads,
		params.keyLen,
	)

	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

// VerifyPasswordWithRehash returns a replacement digest when the stored one
// was produced with outdated parameters.
func VerifyPasswordWithRehash(
	password, encodedHash string,
) (bool, string, error) {
	valid, err := VerifyPassword(password, encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	if !needsRehash(encodedHash) {
		return true, "", nil
	}

	newHash, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // password verified successfully; rehash failure is non-critical
		return true, "", nil
	}

	return true, newHash, nil
}

var dummyHash string

func init() {
	hash, err := HashPassword("dummy_password_for_timing_attack_prevention")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	dummyHash = hash
}

// VerifyPasswordTimingSafe spends the same work whether or not an account
// was found. A nil or empty hash always reports false.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	hashToVerify := dummyHash
	if encodedHash != nil && *encodedHash != "" {
		hashToVerify = *encodedHash
	}

	valid, newHash, err := VerifyPasswordWithRehash(password, hashToVerify)

	if encodedHash == nil || *encodedHash == "" {
		return false, "", nil
	}

	return valid, newHash, err
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func decodeHash(encodedHash string) (*argonParams, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("%w: bad format", ErrInvalidHash)
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf(
			"%w: unsupported algorithm %s",
			ErrInvalidHash,
			parts[1],
		)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: version: %w", ErrInvalidHash, err)
	}

	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf(
			"%w: incompatible version %d",
			ErrInvalidHash,
			version,
		)
	}

	params := &argonParams{}
	_, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&params.memory,
		&params.time,
		&params.threads,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: params: %w", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: digest", ErrInvalidHash)
	}

	//nolint:gosec // G115: hash length is always small (32 bytes for Argon2id)
	params.keyLen = uint32(len(hash))

	return params, salt, hash, nil
}

func needsRehash(encodedHash string) bool {
	params, _, _, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}

	return params.memory != argonMemory ||
		params.time != argonTime ||
		params.threads != argonThreads ||
		params.keyLen != argonKeyLen
}
