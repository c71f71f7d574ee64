package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	HashSHA256 = "sha256"
	HashBcrypt = "bcrypt"
)

// PasswordHasher hashes new passwords with one scheme and verifies stored
// hashes of either scheme, so switching PASSWORD_HASH does not lock out
// existing users.
type PasswordHasher struct {
	scheme string
	cost   int
}

func NewPasswordHasher(scheme string) (*PasswordHasher, error) {
	switch scheme {
	case "", HashSHA256:
		return &PasswordHasher{scheme: HashSHA256}, nil
	case HashBcrypt:
		return &PasswordHasher{scheme: HashBcrypt, cost: bcrypt.DefaultCost}, nil
	}
	return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
}

// Scheme returns the scheme used for new hashes.
func (h *PasswordHasher) Scheme() string { return h.scheme }

// Hash returns the stored form of password. The sha256 scheme is an unsalted
// hex digest, compatible with credential rows written by earlier deployments.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.scheme == HashBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(b), nil
	}
	return sha256Hex(password), nil
}

// Compare reports whether password matches stored.
func (h *PasswordHasher) Compare(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(sha256Hex(password))) == 1
}

func sha256Hex(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
