package postgres

import (
	"context"
	"database/sql"

	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry. Called with a transaction context it
// commits or rolls back together with the audited mutation.
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, resource_type, resource_id,
			details, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// lib/pq encodes []byte as bytea, so JSONB goes over the wire as text
	var details interface{}
	if len(log.Details) > 0 {
		details = string(log.Details)
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.CreatedAt,
	)
	if err != nil {
		return mapError("insert audit log", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// List retrieves audit entries newest first
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = clampPage(limit, offset)
	query := `
		SELECT id, actor_id, action, resource_type, resource_id,
		       details, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list audit logs", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		var (
			log                           = &models.AuditLog{}
			details                       []byte
			ipAddress, userAgent, request sql.NullString
		)
		err := rows.Scan(
			&log.ID,
			&log.ActorID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&details,
			&ipAddress,
			&userAgent,
			&request,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, mapError("scan audit log", err)
		}
		if len(details) > 0 {
			log.Details = details
		}
		log.IPAddress = ipAddress.String
		log.UserAgent = userAgent.String
		log.RequestID = request.String
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate audit logs", err)
	}

	return logs, nil
}
