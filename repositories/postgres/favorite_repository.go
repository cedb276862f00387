package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

// toggleFavoriteQuery removes the pair when present and inserts it otherwise,
// in one statement. ON CONFLICT covers two concurrent first toggles.
const toggleFavoriteQuery = `
	WITH removed AS (
		DELETE FROM favorites
		WHERE account_id = $1 AND recipe_id = $2
		RETURNING recipe_id
	), added AS (
		INSERT INTO favorites (account_id, recipe_id, created_at)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (SELECT 1 FROM removed)
		ON CONFLICT (account_id, recipe_id) DO NOTHING
		RETURNING recipe_id
	)
	SELECT EXISTS (SELECT 1 FROM added)
`

// FavoriteRepository implements the repositories.FavoriteRepository interface
type FavoriteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *DB, logger *zap.Logger) repositories.FavoriteRepository {
	return &FavoriteRepository{
		db:     db,
		logger: logger,
	}
}

// Toggle flips the favorite state of recipeID for accountID
func (r *FavoriteRepository) Toggle(ctx context.Context, accountID, recipeID uuid.UUID) (bool, error) {
	executor := GetExecutor(ctx, r.db)

	var favorited bool
	err := executor.QueryRowContext(ctx, toggleFavoriteQuery, accountID, recipeID, time.Now().UTC()).Scan(&favorited)
	if err != nil {
		return false, mapError("toggle favorite", err)
	}

	r.logger.Debug("favorite toggled",
		zap.String("account_id", accountID.String()),
		zap.String("recipe_id", recipeID.String()),
		zap.Bool("favorited", favorited),
	)
	return favorited, nil
}

// ListRecipeIDs returns the recipe IDs favorited by accountID
func (r *FavoriteRepository) ListRecipeIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT recipe_id
		FROM favorites
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, mapError("list favorite ids", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scan favorite id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate favorite ids", err)
	}

	return ids, nil
}

// ListRecipes returns the favorited recipes, most recently favorited first
func (r *FavoriteRepository) ListRecipes(ctx context.Context, accountID uuid.UUID) ([]*models.Recipe, error) {
	query := `
		SELECT r.id, r.title, r.description, r.ingredients, r.duration, r.instructions,
		       r.images, r.owner_id, r.created_at, r.updated_at
		FROM favorites f
		JOIN recipes r ON r.id = f.recipe_id
		WHERE f.account_id = $1
		ORDER BY f.created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, mapError("list favorite recipes", err)
	}
	defer rows.Close()

	recipes := make([]*models.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, mapError("scan favorite recipe", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate favorite recipes", err)
	}

	return recipes, nil
}
