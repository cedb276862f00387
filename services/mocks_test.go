package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/recipe-hub/models"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	args := m.Called(ctx, phone)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	args := m.Called(ctx, limit, offset)
	if a := args.Get(0); a != nil {
		return a.([]*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Recipe, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) ListWithOwners(ctx context.Context, limit, offset int) ([]*models.Recipe, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockRecipeRepository) ImageInUse(ctx context.Context, imageURL string) (bool, error) {
	args := m.Called(ctx, imageURL)
	return args.Bool(0), args.Error(1)
}

// MockFavoriteRepository is a mock implementation of FavoriteRepository
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) Toggle(ctx context.Context, accountID, recipeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID, recipeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) ListRecipeIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, accountID)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFavoriteRepository) ListRecipes(ctx context.Context, accountID uuid.UUID) ([]*models.Recipe, error) {
	args := m.Called(ctx, accountID)
	if r := args.Get(0); r != nil {
		return r.([]*models.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) LogAccountUpdated(ctx context.Context, actorID uuid.UUID, account *models.Account, changes []string) error {
	return m.Called(ctx, actorID, account, changes).Error(0)
}

func (m *MockAuditRecorder) LogAccountDeleted(ctx context.Context, actorID uuid.UUID, account *models.Account) error {
	return m.Called(ctx, actorID, account).Error(0)
}

func (m *MockAuditRecorder) LogRecipeCreated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error {
	return m.Called(ctx, actorID, recipe).Error(0)
}

func (m *MockAuditRecorder) LogRecipeUpdated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe, changes []string) error {
	return m.Called(ctx, actorID, recipe, changes).Error(0)
}

func (m *MockAuditRecorder) LogRecipeReassigned(ctx context.Context, actorID, recipeID, fromOwner, toOwner uuid.UUID) error {
	return m.Called(ctx, actorID, recipeID, fromOwner, toOwner).Error(0)
}

func (m *MockAuditRecorder) LogRecipeDeleted(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error {
	return m.Called(ctx, actorID, recipe).Error(0)
}

func (m *MockAuditRecorder) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string, size int64) (*models.ImageUpload, error) {
	args := m.Called(ctx, ownerID, contentType, size)
	if u := args.Get(0); u != nil {
		return u.(*models.ImageUpload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockImageStore) Owns(ownerID uuid.UUID, imageURL string) bool {
	return m.Called(ownerID, imageURL).Bool(0)
}

func (m *MockImageStore) Delete(ctx context.Context, ownerID uuid.UUID, imageURL string) error {
	return m.Called(ctx, ownerID, imageURL).Error(0)
}
