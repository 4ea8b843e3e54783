package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

const (
	// hashCost is the bcrypt work factor applied to every stored password.
	hashCost = 12
	// maxPasswordBytes is the longest input bcrypt accepts, counted in bytes.
	maxPasswordBytes = 72
)

var (
	// ErrEmptyPassword is returned when hashing an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned for plaintexts over bcrypt's byte limit. It matches
	// domain.ErrInvalidInput.
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher is a salted, deliberately slow PasswordHasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns the production hasher.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: hashCost}
}

// Hash hashes a plaintext password. Each call draws a fresh salt.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
