package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user of the recipe service
type Account struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Handle string    `json:"handle" db:"handle"`
	Email  string    `json:"email" db:"email"`
	Phone  string    `json:"phone" db:"phone"`
	// PasswordHash is never serialized
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new Account instance. passwordHash must already be hashed.
func NewAccount(handle, email, phone, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AccountSummary is the public projection of an account embedded in other resources
type AccountSummary struct {
	ID     uuid.UUID `json:"id"`
	Handle string    `json:"handle"`
	Email  string    `json:"email"`
}

// Summary returns the public projection of the account
func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Handle: a.Handle, Email: a.Email}
}
