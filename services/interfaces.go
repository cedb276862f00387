package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDummy(password string)
}

// TokenIssuer issues signed access tokens
type TokenIssuer interface {
	Issue(account *models.Account) (string, *auth.Claims, error)
}

// AuditRecorder records administrative mutations
type AuditRecorder interface {
	LogAccountUpdated(ctx context.Context, actorID uuid.UUID, account *models.Account, changes []string) error
	LogAccountDeleted(ctx context.Context, actorID uuid.UUID, account *models.Account) error
	LogRecipeCreated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error
	LogRecipeUpdated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe, changes []string) error
	LogRecipeReassigned(ctx context.Context, actorID, recipeID, fromOwner, toOwner uuid.UUID) error
	LogRecipeDeleted(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// ImageStore issues upload URLs for recipe images and removes stored images
type ImageStore interface {
	PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string, size int64) (*models.ImageUpload, error)

	// Owns reports whether imageURL is an upload made by ownerID
	Owns(ownerID uuid.UUID, imageURL string) bool

	// Delete removes an image uploaded by ownerID
	Delete(ctx context.Context, ownerID uuid.UUID, imageURL string) error
}
