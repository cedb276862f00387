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

// RecipeService defines the recipe operations used by the HTTP layer
type RecipeService interface {
	CreateRecipe(ctx context.Context, identity auth.Identity, input services.CreateRecipeInput) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListRecipes(ctx context.Context, limit, offset int) ([]*models.Recipe, error)
	ListOwnRecipes(ctx context.Context, identity auth.Identity, limit, offset int) ([]*models.Recipe, error)
	UpdateRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID, input services.UpdateRecipeInput) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID) error
	RequestImageUpload(ctx context.Context, identity auth.Identity, input services.ImageUploadInput) (*models.ImageUpload, error)
}

// RecipeHandler handles recipe HTTP requests
type RecipeHandler struct {
	recipes RecipeService
	logger  *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipes RecipeService, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/recipes
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipes, err := h.recipes.ListRecipes(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", recipes)
}

// HandleListMine handles GET /api/v1/recipes/mine
func (h *RecipeHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipes, err := h.recipes.ListOwnRecipes(r.Context(), identity, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", recipes)
}

// HandleGet handles GET /api/v1/recipes/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipe, err := h.recipes.GetRecipe(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", recipe)
}

// HandleCreate handles POST /api/v1/recipes
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.CreateRecipeInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipe, err := h.recipes.CreateRecipe(r.Context(), identity, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Recipe created", recipe)
}

// HandleUpdate handles PUT /api/v1/recipes/{id}
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var input services.UpdateRecipeInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(r.Context(), identity, id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Recipe updated", recipe)
}

// HandleDelete handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.recipes.DeleteRecipe(r.Context(), identity, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Recipe deleted", nil)
}

// HandleImageUpload handles POST /api/v1/recipes/images
// The client PUTs the image bytes to the returned URL, then references
// image_url in the recipe's images.
func (h *RecipeHandler) HandleImageUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.ImageUploadInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	upload, err := h.recipes.RequestImageUpload(r.Context(), identity, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Upload URL issued", upload)
}
