package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher(t *testing.T) {
	t.Run("rejects out of range cost", func(t *testing.T) {
		_, err := NewPasswordHasher(bcrypt.MinCost - 1)
		assert.Error(t, err)

		_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
		assert.Error(t, err)
	})

	t.Run("keeps configured cost", func(t *testing.T) {
		h := newTestHasher(t)
		assert.Equal(t, bcrypt.MinCost, h.Cost())
	})
}

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.NoError(t, h.Compare(hash, "correct horse battery"))
	assert.ErrorIs(t, h.Compare(hash, "wrong password"), ErrPasswordMismatch)
}

func TestPasswordHasher_HashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_CompareInvalidHash(t *testing.T) {
	h := newTestHasher(t)

	err := h.Compare("not-a-bcrypt-hash", "password")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestPasswordHasher_CompareDummy(t *testing.T) {
	h := newTestHasher(t)
	assert.NotPanics(t, func() { h.CompareDummy("anything") })
}
