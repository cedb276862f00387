package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/services"
	"github.com/upb/recipe-hub/utils"
	"go.uber.org/zap"
)

// FavoriteService defines the favorite operations used by the HTTP layer
type FavoriteService interface {
	Toggle(ctx context.Context, identity auth.Identity, recipeID uuid.UUID) (*services.ToggleResult, error)
	List(ctx context.Context, identity auth.Identity) ([]*models.Recipe, error)
}

// FavoriteHandler handles the caller's favorites
type FavoriteHandler struct {
	favorites FavoriteService
	logger    *zap.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favorites FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favorites: favorites,
		logger:    logger,
	}
}

// HandleList handles GET /api/v1/favorites
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	recipes, err := h.favorites.List(r.Context(), identity)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", recipes)
}

// HandleToggle handles POST /api/v1/favorites/{recipeID}
func (h *FavoriteHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	recipeID, err := pathUUID(r, "recipeID")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.favorites.Toggle(r.Context(), identity, recipeID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	message := "Removed from favorites"
	if result.Favorited {
		message = "Added to favorites"
	}
	_ = utils.WriteOK(w, message, result)
}
