package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

// RequestMeta identifies the HTTP request behind an audited mutation
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta returns a context carrying request metadata for audit entries
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata stored by WithRequestMeta
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

// AuditService records administrative mutations. Entries are written
// synchronously through the caller's context, so inside a transaction the
// entry commits or rolls back with the mutation it describes.
type AuditService struct {
	auditRepo repositories.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record stamps log with the request metadata found in ctx and persists it
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) error {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		log.WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	}

	if err := s.auditRepo.Insert(ctx, log); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.Error(err),
			zap.String("action", string(log.Action)),
			zap.String("actor_id", log.ActorID.String()))
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	s.logger.Info("audit entry recorded",
		zap.String("action", string(log.Action)),
		zap.String("actor_id", log.ActorID.String()),
		zap.String("request_id", log.RequestID))
	return nil
}

// List returns audit entries newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	logs, err := s.auditRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// Convenience methods for logging common events

// LogAccountUpdated records an administrative account edit
func (s *AuditService) LogAccountUpdated(ctx context.Context, actorID uuid.UUID, account *models.Account, changes []string) error {
	log := models.NewAuditLog(actorID, models.AuditActionAccountUpdated, "account").
		WithResource(account.ID).
		WithDetails(map[string]interface{}{
			"handle":  account.Handle,
			"changes": changes,
		})
	return s.Record(ctx, log)
}

// LogAccountDeleted records an administrative account deletion
func (s *AuditService) LogAccountDeleted(ctx context.Context, actorID uuid.UUID, account *models.Account) error {
	log := models.NewAuditLog(actorID, models.AuditActionAccountDeleted, "account").
		WithResource(account.ID).
		WithDetails(map[string]interface{}{
			"handle": account.Handle,
			"email":  account.Email,
		})
	return s.Record(ctx, log)
}

// LogRecipeCreated records a recipe created by an administrator on behalf of an owner
func (s *AuditService) LogRecipeCreated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error {
	log := models.NewAuditLog(actorID, models.AuditActionRecipeCreated, "recipe").
		WithResource(recipe.ID).
		WithDetails(map[string]interface{}{
			"title":    recipe.Title,
			"owner_id": recipe.OwnerID,
		})
	return s.Record(ctx, log)
}

// LogRecipeUpdated records an administrative recipe edit
func (s *AuditService) LogRecipeUpdated(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe, changes []string) error {
	log := models.NewAuditLog(actorID, models.AuditActionRecipeUpdated, "recipe").
		WithResource(recipe.ID).
		WithDetails(map[string]interface{}{
			"title":   recipe.Title,
			"changes": changes,
		})
	return s.Record(ctx, log)
}

// LogRecipeReassigned records an ownership transfer
func (s *AuditService) LogRecipeReassigned(ctx context.Context, actorID, recipeID, fromOwner, toOwner uuid.UUID) error {
	log := models.NewAuditLog(actorID, models.AuditActionRecipeReassigned, "recipe").
		WithResource(recipeID).
		WithDetails(map[string]interface{}{
			"from_owner_id": fromOwner,
			"to_owner_id":   toOwner,
		})
	return s.Record(ctx, log)
}

// LogRecipeDeleted records an administrative recipe deletion
func (s *AuditService) LogRecipeDeleted(ctx context.Context, actorID uuid.UUID, recipe *models.Recipe) error {
	log := models.NewAuditLog(actorID, models.AuditActionRecipeDeleted, "recipe").
		WithResource(recipe.ID).
		WithDetails(map[string]interface{}{
			"title":    recipe.Title,
			"owner_id": recipe.OwnerID,
		})
	return s.Record(ctx, log)
}
