package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/recipe-hub/models"
	"go.uber.org/zap"
)

func TestAuditRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	actor, resource := uuid.New(), uuid.New()
	entry := models.NewAuditLog(actor, models.AuditActionRecipeDeleted, "recipe").
		WithResource(resource).
		WithDetails(map[string]string{"title": "Soup"}).
		WithRequest("req-1", "10.0.0.1", "curl/8")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(entry.ID, actor, "recipe_deleted", "recipe", resource, `{"title":"Soup"}`, "10.0.0.1", "curl/8", "req-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_InsertWithoutDetails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	entry := models.NewAuditLog(uuid.New(), models.AuditActionAccountDeleted, "account")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(entry.ID, entry.ActorID, "account_deleted", "account", nil, nil, "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	resource := uuid.New()
	now := time.Now().UTC()

	columns := []string{"id", "actor_id", "action", "resource_type", "resource_id", "details", "ip_address", "user_agent", "request_id", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), uuid.NewString(), "recipe_updated", "recipe", resource.String(), []byte(`{"title":"Soup"}`), "10.0.0.1", "curl/8", "req-1", now).
			AddRow(uuid.NewString(), uuid.NewString(), "account_deleted", "account", nil, nil, nil, nil, nil, now.Add(-time.Minute)))

	logs, err := repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, models.AuditActionRecipeUpdated, logs[0].Action)
	require.NotNil(t, logs[0].ResourceID)
	assert.Equal(t, resource, *logs[0].ResourceID)
	assert.JSONEq(t, `{"title":"Soup"}`, string(logs[0].Details))

	assert.Nil(t, logs[1].ResourceID)
	assert.Nil(t, logs[1].Details)
	assert.Empty(t, logs[1].RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
