package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for every stored password
const DefaultPasswordCost = 12

var (
	// ErrPasswordMismatch is returned when a plaintext password does not match its hash
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrAccountNotFound is returned when no account exists for the presented email
	ErrAccountNotFound = errors.New("account not found")
)

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost
type PasswordHasher struct {
	cost int
	// dummyHash is compared against when the account does not exist so that
	// unknown emails cost the same as wrong passwords
	dummyHash []byte
}

// NewPasswordHasher creates a PasswordHasher. Use DefaultPasswordCost outside tests.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("recipe-hub-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

// Hash returns the salted bcrypt hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks password against hash and returns ErrPasswordMismatch on mismatch
func (h *PasswordHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("failed to compare password: %w", err)
}

// CompareDummy burns one bcrypt comparison. Call it when the account lookup misses.
func (h *PasswordHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}

// Cost returns the configured work factor
func (h *PasswordHasher) Cost() int {
	return h.cost
}
