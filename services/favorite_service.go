package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

// ToggleResult reports the favorite state after a toggle
type ToggleResult struct {
	RecipeID  uuid.UUID   `json:"recipe_id"`
	Favorited bool        `json:"favorited"`
	Favorites []uuid.UUID `json:"favorites"`
}

// FavoriteService manages the caller's favorite recipes
type FavoriteService struct {
	favorites repositories.FavoriteRepository
	recipes   repositories.RecipeRepository
	logger    *zap.Logger
}

// NewFavoriteService creates a new FavoriteService
func NewFavoriteService(favorites repositories.FavoriteRepository, recipes repositories.RecipeRepository, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		recipes:   recipes,
		logger:    logger,
	}
}

// Toggle adds recipeID to the caller's favorites when absent and removes it when present
func (s *FavoriteService) Toggle(ctx context.Context, identity auth.Identity, recipeID uuid.UUID) (*ToggleResult, error) {
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, WrapInternal("failed to get recipe", err)
	}

	favorited, err := s.favorites.Toggle(ctx, identity.AccountID, recipeID)
	if err != nil {
		// The recipe or account vanished between the lookup and the toggle
		if errors.Is(err, repositories.ErrReferenceMissing) {
			return nil, ErrRecipeNotFound
		}
		return nil, WrapInternal("failed to toggle favorite", err)
	}

	ids, err := s.favorites.ListRecipeIDs(ctx, identity.AccountID)
	if err != nil {
		return nil, WrapInternal("failed to list favorites", err)
	}

	s.logger.Debug("favorite toggled",
		zap.String("account_id", identity.AccountID.String()),
		zap.String("recipe_id", recipeID.String()),
		zap.Bool("favorited", favorited))

	return &ToggleResult{RecipeID: recipeID, Favorited: favorited, Favorites: ids}, nil
}

// List returns the caller's favorite recipes
func (s *FavoriteService) List(ctx context.Context, identity auth.Identity) ([]*models.Recipe, error) {
	recipes, err := s.favorites.ListRecipes(ctx, identity.AccountID)
	if err != nil {
		return nil, WrapInternal("failed to list favorites", err)
	}
	return recipes, nil
}
