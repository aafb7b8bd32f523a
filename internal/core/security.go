// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidHash = errors.New("invalid password hash")

// PasswordParams are the argon2id cost settings encoded into every hash.
type PasswordParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultPasswordParams = PasswordParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

func (p PasswordParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Hash returns a PHC-formatted argon2id hash of password.
func (p PasswordParams) Hash(password string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(p.derive(password, salt)),
	), nil
}

func (p PasswordParams) matches(other PasswordParams) bool {
	return p.Memory == other.Memory &&
		p.Time == other.Time &&
		p.Threads == other.Threads &&
		p.KeyLen == other.KeyLen
}

type decodedHash struct {
	params PasswordParams
	salt   []byte
	key    []byte
}

func parseHash(encoded string) (*decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}

	d := &decodedHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&d.params.Memory, &d.params.Time, &d.params.Threads); err != nil {
		return nil, fmt.Errorf("%w: params: %w", ErrInvalidHash, err)
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	d.params.KeyLen = uint32(len(d.key))
	d.params.SaltLen = len(d.salt)

	return d, nil
}

func HashPassword(password string) (string, error) {
	return DefaultPasswordParams.Hash(password)
}

// VerifyPasswordWithRehash checks password against encoded. When the hash
// was made with other cost settings it also returns a fresh hash to store.
func VerifyPasswordWithRehash(password, encoded string) (bool, string, error) {
	d, err := parseHash(encoded)
	if err != nil {
		return false, "", err
	}

	if subtle.ConstantTimeCompare(d.key, d.params.derive(password, d.salt)) != 1 {
		return false, "", nil
	}

	if d.params.matches(DefaultPasswordParams) {
		return true, "", nil
	}

	rehashed, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password is valid; keep the old hash
		return true, "", nil
	}
	return true, rehashed, nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("timing-equalizer")
	if err != nil {
		panic(fmt.Sprintf("security: dummy hash: %v", err))
	}
	return hash
})

// VerifyPasswordTimingSafe spends the same argon2 work whether or not the
// account exists. A nil or empty hash never verifies.
func VerifyPasswordTimingSafe(password string, encoded *string) (bool, string, error) {
	if encoded == nil || *encoded == "" {
		//nolint:errcheck // result discarded; only the cost matters
		_, _, _ = VerifyPasswordWithRehash(password, dummyHash())
		return false, "", nil
	}

	return VerifyPasswordWithRehash(password, *encoded)
}

// GenerateRefreshToken returns 32 random bytes, URL-safe base64 encoded.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashToken is the lookup key stored for refresh tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
