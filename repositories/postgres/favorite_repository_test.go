package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

func TestFavoriteRepository_ToggleTwiceRestores(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db, zap.NewNop())
	account, recipe := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WITH removed AS")).
		WithArgs(account, recipe, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("WITH removed AS")).
		WithArgs(account, recipe, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	added, err := repo.Toggle(context.Background(), account, recipe)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Toggle(context.Background(), account, recipe)
	require.NoError(t, err)
	assert.False(t, added)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ToggleMissingRecipe(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("WITH removed AS")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "favorites_recipe_id_fkey"})

	_, err := repo.Toggle(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrReferenceMissing)
}

func TestFavoriteRepository_ListRecipeIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db, zap.NewNop())
	account := uuid.New()
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT recipe_id")).
		WithArgs(account).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id"}).AddRow(first.String()).AddRow(second.String()))

	ids, err := repo.ListRecipeIDs(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ListRecipes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db, zap.NewNop())
	account := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN recipes r ON r.id = f.recipe_id")).
		WithArgs(account).
		WillReturnRows(sqlmock.NewRows(recipeRowColumns).
			AddRow(uuid.NewString(), "Soup", "d", "{water,salt}", "1h", "i", "{}", uuid.NewString(), now, now))

	recipes, err := repo.ListRecipes(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, []string{"water", "salt"}, recipes[0].Ingredients)
	assert.NoError(t, mock.ExpectationsWereMet())
}
