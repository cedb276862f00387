package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/models"
)

var (
	// ErrNotFound is returned when a lookup or mutation matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is matched by every DuplicateError
	ErrDuplicate = errors.New("duplicate record")

	// ErrReferenceMissing is returned when a referenced row does not exist
	ErrReferenceMissing = errors.New("referenced record missing")
)

// DuplicateError reports a unique constraint violation
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record violates %s", e.Constraint)
}

// Is makes errors.Is(err, ErrDuplicate) true for any DuplicateError
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn join the transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// AccountRepository handles account persistence
type AccountRepository interface {
	// Create inserts a new account. Duplicate email returns a DuplicateError.
	Create(ctx context.Context, account *models.Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)

	// GetByEmail retrieves an account by normalized email
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByPhone retrieves the first account registered with phone
	GetByPhone(ctx context.Context, phone string) (*models.Account, error)

	// List returns accounts newest first
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)

	// Update persists handle, email, phone, password hash and admin flag
	Update(ctx context.Context, account *models.Account) error

	// Delete removes an account together with its recipes and favorites
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecipeRepository handles recipe persistence
type RecipeRepository interface {
	// Create inserts a new recipe
	Create(ctx context.Context, recipe *models.Recipe) error

	// GetByID retrieves a recipe by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)

	// List returns recipes sorted by creation time, newest first
	List(ctx context.Context, limit, offset int) ([]*models.Recipe, error)

	// ListByOwner returns one account's recipes, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Recipe, error)

	// ListWithOwners returns recipes newest first with the owner summary populated
	ListWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error)

	// Update persists content fields. The owner is never changed here and
	// must still be recipe.OwnerID, otherwise ErrNotFound is returned.
	Update(ctx context.Context, recipe *models.Recipe) error

	// SetOwner reassigns a recipe to another account
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error

	// Delete removes a recipe still owned by ownerID
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// ImageInUse reports whether any recipe references imageURL
	ImageInUse(ctx context.Context, imageURL string) (bool, error)
}

// FavoriteRepository handles the account-to-recipe favorite relation
type FavoriteRepository interface {
	// Toggle atomically adds the favorite when absent or removes it when present.
	// It reports whether the recipe is a favorite afterwards.
	Toggle(ctx context.Context, accountID, recipeID uuid.UUID) (bool, error)

	// ListRecipeIDs returns the IDs of an account's favorite recipes
	ListRecipeIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)

	// ListRecipes returns an account's favorite recipes, most recently favorited first
	ListRecipes(ctx context.Context, accountID uuid.UUID) ([]*models.Recipe, error)
}

// AuditRepository handles audit log persistence
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// List returns audit entries newest first
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories holds all repository instances. It is built once at startup
// and never mutated afterwards.
type Repositories struct {
	Accounts  AccountRepository
	Recipes   RecipeRepository
	Favorites FavoriteRepository
	AuditLogs AuditRepository
}
