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

// AdminAccountService defines the account administration operations
type AdminAccountService interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	AdminUpdateAccount(ctx context.Context, actor auth.Identity, id uuid.UUID, input services.AdminUpdateAccountInput) (*models.Account, error)
	DeleteAccount(ctx context.Context, actor auth.Identity, id uuid.UUID) error
}

// AdminRecipeService defines the recipe administration operations
type AdminRecipeService interface {
	ListRecipesWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	AdminCreateRecipe(ctx context.Context, actor auth.Identity, input services.AdminCreateRecipeInput) (*models.Recipe, error)
	AdminUpdateRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID, input services.AdminUpdateRecipeInput) (*models.Recipe, error)
	AdminDeleteRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID) error
}

// AuditLister reads the audit trail
type AuditLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// AdminHandler handles the /api/v1/admin routes. Every route is mounted
// behind RequireAuth and RequireAdmin.
type AdminHandler struct {
	accounts AdminAccountService
	recipes  AdminRecipeService
	audit    AuditLister
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accounts AdminAccountService, recipes AdminRecipeService, audit AuditLister, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		recipes:  recipes,
		audit:    audit,
		logger:   logger,
	}
}

// HandleListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", accounts)
}

// HandleGetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", account)
}

// HandleUpdateUser handles PUT /api/v1/admin/users/{id}
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var input services.AdminUpdateAccountInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.AdminUpdateAccount(r.Context(), actor, id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "User updated", account)
}

// HandleDeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "User deleted", nil)
}

// HandleListRecipes handles GET /api/v1/admin/recipes
func (h *AdminHandler) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipes, err := h.recipes.ListRecipesWithOwners(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", recipes)
}

// HandleGetRecipe handles GET /api/v1/admin/recipes/{id}
func (h *AdminHandler) HandleGetRecipe(w http.ResponseWriter, r *http.Request) {
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

// HandleCreateRecipe handles POST /api/v1/admin/recipes
func (h *AdminHandler) HandleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.AdminCreateRecipeInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipe, err := h.recipes.AdminCreateRecipe(r.Context(), actor, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Recipe created", recipe)
}

// HandleUpdateRecipe handles PUT /api/v1/admin/recipes/{id}
func (h *AdminHandler) HandleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var input services.AdminUpdateRecipeInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	recipe, err := h.recipes.AdminUpdateRecipe(r.Context(), actor, id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Recipe updated", recipe)
}

// HandleDeleteRecipe handles DELETE /api/v1/admin/recipes/{id}
func (h *AdminHandler) HandleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.recipes.AdminDeleteRecipe(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Recipe deleted", nil)
}

// HandleListAuditLogs handles GET /api/v1/admin/audit-logs
func (h *AdminHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", logs)
}
