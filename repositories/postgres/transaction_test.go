package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

func TestTransactionManager_CommitsRepositoryWork(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())
	recipes := NewRecipeRepository(db, zap.NewNop())
	audits := NewAuditRepository(db, zap.NewNop())
	id, owner, actor := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes")).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		_, ok := GetTransactionFromContext(ctx)
		assert.True(t, ok)
		if err := recipes.Delete(ctx, id, owner); err != nil {
			return err
		}
		return audits.Insert(ctx, models.NewAuditLog(actor, models.AuditActionRecipeDeleted, "recipe").WithResource(id))
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())
	recipes := NewRecipeRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	auditFailure := errors.New("audit insert failed")
	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		if err := recipes.Delete(ctx, uuid.New(), uuid.New()); err != nil {
			return err
		}
		return auditFailure
	})

	assert.ErrorIs(t, err, auditFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_WithoutTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	assert.Equal(t, Executor(db.DB), GetExecutor(context.Background(), db))
}
