package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

// CreateRecipeInput is the payload for creating a recipe
type CreateRecipeInput struct {
	Title        string   `json:"title" validate:"required,notblank,max=200"`
	Description  string   `json:"description" validate:"required,notblank"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1,dive,notblank"`
	Duration     string   `json:"duration" validate:"required,notblank,max=100"`
	Instructions string   `json:"instructions" validate:"required,notblank"`
	Images       []string `json:"images,omitempty" validate:"max=10,dive,url"`
}

// AdminCreateRecipeInput lets an administrator create a recipe on behalf of an owner.
// A nil OwnerID makes the administrator the owner.
type AdminCreateRecipeInput struct {
	CreateRecipeInput
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// UpdateRecipeInput is a partial update. Ingredients, when present, must be non-empty.
type UpdateRecipeInput struct {
	Title        *string   `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,notblank"`
	Ingredients  *[]string `json:"ingredients,omitempty" validate:"omitempty,min=1,dive,notblank"`
	Duration     *string   `json:"duration,omitempty" validate:"omitempty,notblank,max=100"`
	Instructions *string   `json:"instructions,omitempty" validate:"omitempty,notblank"`
	Images       *[]string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

// AdminUpdateRecipeInput additionally allows reassigning the owner
type AdminUpdateRecipeInput struct {
	UpdateRecipeInput
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// ImageUploadInput requests a presigned URL for one image
type ImageUploadInput struct {
	ContentType string `json:"content_type" validate:"required"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

// RecipeService implements recipe CRUD guarded by the ownership policy
type RecipeService struct {
	recipes  repositories.RecipeRepository
	accounts repositories.AccountRepository
	txMgr    repositories.TransactionManager
	audit    AuditRecorder
	images   ImageStore
	logger   *zap.Logger
}

// NewRecipeService creates a new RecipeService. images may be nil when
// object storage is not configured.
func NewRecipeService(
	recipes repositories.RecipeRepository,
	accounts repositories.AccountRepository,
	txMgr repositories.TransactionManager,
	audit AuditRecorder,
	images ImageStore,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:  recipes,
		accounts: accounts,
		txMgr:    txMgr,
		audit:    audit,
		images:   images,
		logger:   logger,
	}
}

// CreateRecipe creates a recipe owned by the caller
func (s *RecipeService) CreateRecipe(ctx context.Context, identity auth.Identity, input CreateRecipeInput) (*models.Recipe, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if err := s.checkImageOwnership(identity.AccountID, input.Images, nil); err != nil {
		return nil, err
	}

	recipe := newRecipeFromInput(identity.AccountID, input)
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, s.mapWriteError("failed to create recipe", err)
	}

	s.logger.Info("recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("owner_id", recipe.OwnerID.String()))

	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, WrapInternal("failed to get recipe", err)
	}
	return recipe, nil
}

// ListRecipes lists all recipes newest first
func (s *RecipeService) ListRecipes(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	recipes, err := s.recipes.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list recipes", err)
	}
	return recipes, nil
}

// ListOwnRecipes lists the caller's recipes newest first
func (s *RecipeService) ListOwnRecipes(ctx context.Context, identity auth.Identity, limit, offset int) ([]*models.Recipe, error) {
	recipes, err := s.recipes.ListByOwner(ctx, identity.AccountID, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list recipes", err)
	}
	return recipes, nil
}

// ListRecipesWithOwners lists recipes with owner summaries for administrators
func (s *RecipeService) ListRecipesWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	recipes, err := s.recipes.ListWithOwners(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list recipes", err)
	}
	return recipes, nil
}

// UpdateRecipe applies a partial update. The store is not written unless the
// ownership policy allows identity to modify the recipe.
func (s *RecipeService) UpdateRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID, input UpdateRecipeInput) (*models.Recipe, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(identity, recipe.OwnerID); !decision.Allowed {
		s.logger.Info("recipe update denied",
			zap.String("recipe_id", id.String()),
			zap.String("account_id", identity.AccountID.String()))
		return nil, NewForbiddenError(decision.Reason)
	}
	if input.Images != nil {
		if err := s.checkImageOwnership(recipe.OwnerID, *input.Images, recipe.Images); err != nil {
			return nil, err
		}
	}

	removed := applyRecipeUpdate(recipe, input)
	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, s.mapWriteError("failed to update recipe", err)
	}

	s.deleteImages(ctx, recipe.OwnerID, removed)
	return recipe, nil
}

// DeleteRecipe deletes a recipe after the ownership check. Stored images are
// removed best-effort afterwards.
func (s *RecipeService) DeleteRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if decision := auth.Authorize(identity, recipe.OwnerID); !decision.Allowed {
		s.logger.Info("recipe delete denied",
			zap.String("recipe_id", id.String()),
			zap.String("account_id", identity.AccountID.String()))
		return NewForbiddenError(decision.Reason)
	}

	if err := s.recipes.Delete(ctx, id, recipe.OwnerID); err != nil {
		return s.mapWriteError("failed to delete recipe", err)
	}

	s.logger.Info("recipe deleted",
		zap.String("recipe_id", id.String()),
		zap.String("account_id", identity.AccountID.String()))

	s.deleteImages(ctx, recipe.OwnerID, recipe.Images)
	return nil
}

// AdminCreateRecipe creates a recipe for any owner and records it in the audit trail
func (s *RecipeService) AdminCreateRecipe(ctx context.Context, actor auth.Identity, input AdminCreateRecipeInput) (*models.Recipe, error) {
	if err := validate(input.CreateRecipeInput); err != nil {
		return nil, err
	}

	owner := actor.AccountID
	if input.OwnerID != nil {
		owner = *input.OwnerID
	}
	if err := s.checkImageOwnership(owner, input.Images, nil); err != nil {
		return nil, err
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Recipe, error) {
		if err := s.ensureAccountExists(ctx, owner); err != nil {
			return nil, err
		}
		recipe := newRecipeFromInput(owner, input.CreateRecipeInput)
		if err := s.recipes.Create(ctx, recipe); err != nil {
			return nil, s.mapWriteError("failed to create recipe", err)
		}
		if err := s.audit.LogRecipeCreated(ctx, actor.AccountID, recipe); err != nil {
			return nil, WrapInternal("failed to record audit entry", err)
		}
		return recipe, nil
	})
}

// AdminUpdateRecipe updates content and optionally reassigns the owner, with audit entries
func (s *RecipeService) AdminUpdateRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID, input AdminUpdateRecipeInput) (*models.Recipe, error) {
	if err := validate(input.UpdateRecipeInput); err != nil {
		return nil, err
	}

	var (
		removed     []string
		imagesOwner uuid.UUID
	)
	recipe, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Recipe, error) {
		recipe, err := s.GetRecipe(ctx, id)
		if err != nil {
			return nil, err
		}
		imagesOwner = recipe.OwnerID
		if input.Images != nil {
			if err := s.checkImageOwnership(recipe.OwnerID, *input.Images, recipe.Images); err != nil {
				return nil, err
			}
		}

		changes := recipeChanges(input.UpdateRecipeInput)
		if len(changes) > 0 {
			removed = applyRecipeUpdate(recipe, input.UpdateRecipeInput)
			if err := s.recipes.Update(ctx, recipe); err != nil {
				return nil, s.mapWriteError("failed to update recipe", err)
			}
			if err := s.audit.LogRecipeUpdated(ctx, actor.AccountID, recipe, changes); err != nil {
				return nil, WrapInternal("failed to record audit entry", err)
			}
		}

		if input.OwnerID != nil && *input.OwnerID != recipe.OwnerID {
			if err := s.ensureAccountExists(ctx, *input.OwnerID); err != nil {
				return nil, err
			}
			if err := s.recipes.SetOwner(ctx, recipe.ID, *input.OwnerID); err != nil {
				return nil, s.mapWriteError("failed to reassign recipe", err)
			}
			if err := s.audit.LogRecipeReassigned(ctx, actor.AccountID, recipe.ID, recipe.OwnerID, *input.OwnerID); err != nil {
				return nil, WrapInternal("failed to record audit entry", err)
			}
			recipe.OwnerID = *input.OwnerID
		}

		return recipe, nil
	})
	if err != nil {
		return nil, err
	}

	s.deleteImages(ctx, imagesOwner, removed)
	return recipe, nil
}

// AdminDeleteRecipe deletes any recipe and records it in the audit trail
func (s *RecipeService) AdminDeleteRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	recipe, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Recipe, error) {
		recipe, err := s.GetRecipe(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.recipes.Delete(ctx, id, recipe.OwnerID); err != nil {
			return nil, s.mapWriteError("failed to delete recipe", err)
		}
		if err := s.audit.LogRecipeDeleted(ctx, actor.AccountID, recipe); err != nil {
			return nil, WrapInternal("failed to record audit entry", err)
		}
		return recipe, nil
	})
	if err != nil {
		return err
	}

	s.deleteImages(ctx, recipe.OwnerID, recipe.Images)
	return nil
}

// RequestImageUpload returns a presigned upload for one recipe image
func (s *RecipeService) RequestImageUpload(ctx context.Context, identity auth.Identity, input ImageUploadInput) (*models.ImageUpload, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	if _, ok := models.ImageExtension(input.ContentType); !ok {
		return nil, NewValidationError("Validation failed", map[string]string{
			"content_type": "content_type must be one of: image/jpeg image/png image/webp",
		})
	}
	if input.Size > models.MaxImageBytes {
		return nil, NewValidationError("Validation failed", map[string]string{
			"size": "size must not exceed 5MB",
		})
	}

	upload, err := s.images.PresignUpload(ctx, identity.AccountID, input.ContentType, input.Size)
	if err != nil {
		return nil, WrapInternal("failed to presign upload", err)
	}
	return upload, nil
}

// checkImageOwnership rejects image URLs that are not uploads made by owner.
// URLs in existing were accepted earlier and are not checked again.
func (s *RecipeService) checkImageOwnership(owner uuid.UUID, urls, existing []string) error {
	if s.images == nil {
		return nil
	}
	known := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		known[u] = struct{}{}
	}

	fields := make(map[string]string)
	for i, u := range urls {
		if _, ok := known[u]; ok {
			continue
		}
		if !s.images.Owns(owner, u) {
			fields[fmt.Sprintf("images[%d]", i)] = "images must be uploaded by the recipe owner"
		}
	}
	if len(fields) > 0 {
		return NewValidationError("Validation failed", fields)
	}
	return nil
}

// deleteImages removes owner's images from storage unless another recipe
// still lists them. Failures are logged, never returned.
func (s *RecipeService) deleteImages(ctx context.Context, owner uuid.UUID, urls []string) {
	if s.images == nil {
		return
	}
	for _, u := range urls {
		inUse, err := s.recipes.ImageInUse(ctx, u)
		if err != nil {
			s.logger.Warn("failed to check image usage", zap.String("url", u), zap.Error(err))
			continue
		}
		if inUse {
			s.logger.Debug("image still referenced, keeping it", zap.String("url", u))
			continue
		}
		if err := s.images.Delete(ctx, owner, u); err != nil {
			s.logger.Warn("failed to delete recipe image", zap.String("url", u), zap.Error(err))
		}
	}
}

func (s *RecipeService) ensureAccountExists(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NewValidationError("Validation failed", map[string]string{
				"owner_id": "owner_id must reference an existing account",
			})
		}
		return WrapInternal("failed to load owner", err)
	}
	return nil
}

func (s *RecipeService) mapWriteError(message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrRecipeNotFound
	case errors.Is(err, repositories.ErrReferenceMissing):
		return NewValidationError("Validation failed", map[string]string{
			"owner_id": "owner_id must reference an existing account",
		})
	default:
		return WrapInternal(message, err)
	}
}

func newRecipeFromInput(owner uuid.UUID, input CreateRecipeInput) *models.Recipe {
	return models.NewRecipe(
		owner,
		strings.TrimSpace(input.Title),
		strings.TrimSpace(input.Description),
		trimAll(input.Ingredients),
		strings.TrimSpace(input.Duration),
		strings.TrimSpace(input.Instructions),
		input.Images,
	)
}

// applyRecipeUpdate mutates recipe and returns image URLs no longer referenced
func applyRecipeUpdate(recipe *models.Recipe, input UpdateRecipeInput) []string {
	if input.Title != nil {
		recipe.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		recipe.Description = strings.TrimSpace(*input.Description)
	}
	if input.Ingredients != nil {
		recipe.Ingredients = trimAll(*input.Ingredients)
	}
	if input.Duration != nil {
		recipe.Duration = strings.TrimSpace(*input.Duration)
	}
	if input.Instructions != nil {
		recipe.Instructions = strings.TrimSpace(*input.Instructions)
	}

	var removed []string
	if input.Images != nil {
		keep := make(map[string]struct{}, len(*input.Images))
		for _, u := range *input.Images {
			keep[u] = struct{}{}
		}
		for _, u := range recipe.Images {
			if _, ok := keep[u]; !ok {
				removed = append(removed, u)
			}
		}
		recipe.Images = append([]string{}, *input.Images...)
	}

	recipe.UpdatedAt = time.Now().UTC()
	return removed
}

func recipeChanges(input UpdateRecipeInput) []string {
	var changes []string
	if input.Title != nil {
		changes = append(changes, "title")
	}
	if input.Description != nil {
		changes = append(changes, "description")
	}
	if input.Ingredients != nil {
		changes = append(changes, "ingredients")
	}
	if input.Duration != nil {
		changes = append(changes, "duration")
	}
	if input.Instructions != nil {
		changes = append(changes, "instructions")
	}
	if input.Images != nil {
		changes = append(changes, "images")
	}
	return changes
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
