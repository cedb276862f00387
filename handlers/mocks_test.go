package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/middleware"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/services"
)

// MockAccountService is a mock implementation of AccountService and AdminAccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, input services.RegisterInput) (*models.Account, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*services.LoginResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, identity auth.Identity, accountID uuid.UUID, input services.UpdateProfileInput) (*models.Account, error) {
	args := m.Called(ctx, identity, accountID, input)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	args := m.Called(ctx, limit, offset)
	if a := args.Get(0); a != nil {
		return a.([]*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) AdminUpdateAccount(ctx context.Context, actor auth.Identity, id uuid.UUID, input services.AdminUpdateAccountInput) (*models.Account, error) {
	args := m.Called(ctx, actor, id, input)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockRecipeService is a mock implementation of RecipeService and AdminRecipeService
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) recipe(args mock.Arguments) (*models.Recipe, error) {
	if r := args.Get(0); r != nil {
		return r.(*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeService) recipes(args mock.Arguments) ([]*models.Recipe, error) {
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, identity auth.Identity, input services.CreateRecipeInput) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, identity, input))
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, id))
}

func (m *MockRecipeService) ListRecipes(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	return m.recipes(m.Called(ctx, limit, offset))
}

func (m *MockRecipeService) ListOwnRecipes(ctx context.Context, identity auth.Identity, limit, offset int) ([]*models.Recipe, error) {
	return m.recipes(m.Called(ctx, identity, limit, offset))
}

func (m *MockRecipeService) ListRecipesWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	return m.recipes(m.Called(ctx, limit, offset))
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID, input services.UpdateRecipeInput) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, identity, id, input))
}

func (m *MockRecipeService) DeleteRecipe(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	return m.Called(ctx, identity, id).Error(0)
}

func (m *MockRecipeService) RequestImageUpload(ctx context.Context, identity auth.Identity, input services.ImageUploadInput) (*models.ImageUpload, error) {
	args := m.Called(ctx, identity, input)
	if u := args.Get(0); u != nil {
		return u.(*models.ImageUpload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeService) AdminCreateRecipe(ctx context.Context, actor auth.Identity, input services.AdminCreateRecipeInput) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, actor, input))
}

func (m *MockRecipeService) AdminUpdateRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID, input services.AdminUpdateRecipeInput) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, actor, id, input))
}

func (m *MockRecipeService) AdminDeleteRecipe(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockFavoriteService is a mock implementation of FavoriteService
type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) Toggle(ctx context.Context, identity auth.Identity, recipeID uuid.UUID) (*services.ToggleResult, error) {
	args := m.Called(ctx, identity, recipeID)
	if r := args.Get(0); r != nil {
		return r.(*services.ToggleResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFavoriteService) List(ctx context.Context, identity auth.Identity) ([]*models.Recipe, error) {
	args := m.Called(ctx, identity)
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuditLister is a mock implementation of AuditLister
type MockAuditLister struct {
	mock.Mock
}

func (m *MockAuditLister) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, limit, offset)
	if l := args.Get(0); l != nil {
		return l.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// envelope mirrors utils.Envelope with raw data for per-test decoding
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// serve routes one request through a chi router so URL params resolve.
// identity, when non-nil, is attached as if RequireAuth had run.
func serve(t *testing.T, method, pattern, target string, body interface{}, identity *auth.Identity, h http.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}
