package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/middleware"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/services"
	"github.com/upb/recipe-hub/utils"
	"go.uber.org/zap"
)

// AccountService defines the account operations used by the HTTP layer
type AccountService interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateProfile(ctx context.Context, identity auth.Identity, accountID uuid.UUID, input services.UpdateProfileInput) (*models.Account, error)
}

// AuthHandler handles registration, login and the caller's own profile
type AuthHandler struct {
	accounts AccountService
	cookie   auth.CookieSettings
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, cookie auth.CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
		logger:   logger,
	}
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.Register(r.Context(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Account registered", account)
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.accounts.Login(r.Context(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	auth.SetSessionCookie(w, h.cookie, result.Token)
	_ = utils.WriteOK(w, "Login successful", result)
}

// HandleLogout handles POST /api/v1/auth/logout
// Tokens are stateless; logout only clears the session cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookie)
	_ = utils.WriteOK(w, "Logged out", nil)
}

// HandleMe handles GET /api/v1/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", account)
}

// HandleUpdateMe handles PUT /api/v1/auth/me
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.UpdateProfileInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), identity, identity.AccountID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Profile updated", account)
}

// requireIdentity reads the identity set by RequireAuth. A missing identity
// means the route was mounted without the guard.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

// pathUUID parses a chi URL parameter as a UUID
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return utils.ParseUUID(chi.URLParam(r, name), name)
}

// pagination reads limit and offset query parameters
func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = utils.QueryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = utils.QueryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
