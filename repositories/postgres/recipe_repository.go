package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

const recipeColumns = `id, title, description, ingredients, duration, instructions, images, owner_id, created_at, updated_at`

// RecipeRepository implements the repositories.RecipeRepository interface
type RecipeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *DB, logger *zap.Logger) repositories.RecipeRepository {
	return &RecipeRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new recipe
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		recipe.ID,
		recipe.Title,
		recipe.Description,
		pq.Array(recipe.Ingredients),
		recipe.Duration,
		recipe.Instructions,
		pq.Array(nonNil(recipe.Images)),
		recipe.OwnerID,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		return mapError("create recipe", err)
	}

	r.logger.Debug("recipe created",
		zap.String("id", recipe.ID.String()),
		zap.String("owner_id", recipe.OwnerID.String()),
	)
	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	recipe, err := scanRecipe(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get recipe", err)
	}
	return recipe, nil
}

// List retrieves recipes newest first
func (r *RecipeRepository) List(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	limit, offset = clampPage(limit, offset)
	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, "list recipes", query, limit, offset)
}

// ListByOwner retrieves one account's recipes newest first
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Recipe, error) {
	limit, offset = clampPage(limit, offset)
	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.query(ctx, "list recipes by owner", query, ownerID, limit, offset)
}

// ListWithOwners retrieves recipes newest first with owner summaries
func (r *RecipeRepository) ListWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	limit, offset = clampPage(limit, offset)
	query := `
		SELECT r.id, r.title, r.description, r.ingredients, r.duration, r.instructions,
		       r.images, r.owner_id, r.created_at, r.updated_at, a.handle, a.email
		FROM recipes r
		JOIN accounts a ON a.id = r.owner_id
		ORDER BY r.created_at DESC, r.id
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list recipes with owners", err)
	}
	defer rows.Close()

	recipes := make([]*models.Recipe, 0)
	for rows.Next() {
		recipe := &models.Recipe{}
		owner := &models.AccountSummary{}
		err := rows.Scan(
			&recipe.ID,
			&recipe.Title,
			&recipe.Description,
			pq.Array(&recipe.Ingredients),
			&recipe.Duration,
			&recipe.Instructions,
			pq.Array(&recipe.Images),
			&recipe.OwnerID,
			&recipe.CreatedAt,
			&recipe.UpdatedAt,
			&owner.Handle,
			&owner.Email,
		)
		if err != nil {
			return nil, mapError("scan recipe", err)
		}
		owner.ID = recipe.OwnerID
		recipe.Owner = owner
		recipe.Images = nonNil(recipe.Images)
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate recipes", err)
	}

	return recipes, nil
}

// Update updates a recipe's content. owner_id is left untouched and must
// still match the owner that was read.
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query := `
		UPDATE recipes
		SET title = $2, description = $3, ingredients = $4, duration = $5,
		    instructions = $6, images = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $9
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		recipe.ID,
		recipe.Title,
		recipe.Description,
		pq.Array(recipe.Ingredients),
		recipe.Duration,
		recipe.Instructions,
		pq.Array(nonNil(recipe.Images)),
		recipe.UpdatedAt,
		recipe.OwnerID,
	)
	if err != nil {
		return mapError("update recipe", err)
	}
	if err := requireAffected("update recipe", result); err != nil {
		return err
	}

	r.logger.Debug("recipe updated", zap.String("id", recipe.ID.String()))
	return nil
}

// SetOwner reassigns a recipe to another account
func (r *RecipeRepository) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `UPDATE recipes SET owner_id = $2, updated_at = NOW() WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return mapError("reassign recipe", err)
	}
	if err := requireAffected("reassign recipe", result); err != nil {
		return err
	}

	r.logger.Debug("recipe reassigned",
		zap.String("id", id.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return nil
}

// Delete deletes a recipe still owned by ownerID. Favorites cascade.
func (r *RecipeRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return mapError("delete recipe", err)
	}
	if err := requireAffected("delete recipe", result); err != nil {
		return err
	}

	r.logger.Debug("recipe deleted", zap.String("id", id.String()))
	return nil
}

// ImageInUse reports whether any recipe still lists imageURL
func (r *RecipeRepository) ImageInUse(ctx context.Context, imageURL string) (bool, error) {
	executor := GetExecutor(ctx, r.db)
	var inUse bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipes WHERE $1 = ANY(images))`, imageURL).Scan(&inUse)
	if err != nil {
		return false, mapError("check image usage", err)
	}
	return inUse, nil
}

func (r *RecipeRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]*models.Recipe, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	recipes := make([]*models.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, mapError("scan recipe", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}

	return recipes, nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Description,
		pq.Array(&recipe.Ingredients),
		&recipe.Duration,
		&recipe.Instructions,
		pq.Array(&recipe.Images),
		&recipe.OwnerID,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	recipe.Images = nonNil(recipe.Images)
	return recipe, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
