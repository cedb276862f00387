package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
)

const accountColumns = `id, handle, email, phone, password_hash, is_admin, created_at, updated_at`

// AccountRepository implements the repositories.AccountRepository interface
type AccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB, logger *zap.Logger) repositories.AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		account.ID,
		account.Handle,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.IsAdmin,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return mapError("create account", err)
	}

	r.logger.Debug("account created", zap.String("id", account.ID.String()))
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, "get account", query, id)
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.getOne(ctx, "get account by email", query, email)
}

// GetByPhone retrieves the oldest account registered with phone
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone = $1 ORDER BY created_at LIMIT 1`
	return r.getOne(ctx, "get account by phone", query, phone)
}

// List retrieves accounts newest first with pagination
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	limit, offset = clampPage(limit, offset)
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, mapError("scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate accounts", err)
	}

	return accounts, nil
}

// Update updates an existing account
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET handle = $2, email = $3, phone = $4, password_hash = $5, is_admin = $6, updated_at = $7
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		account.ID,
		account.Handle,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.IsAdmin,
		account.UpdatedAt,
	)
	if err != nil {
		return mapError("update account", err)
	}
	if err := requireAffected("update account", result); err != nil {
		return err
	}

	r.logger.Debug("account updated", zap.String("id", account.ID.String()))
	return nil
}

// Delete deletes an account. Recipes and favorites cascade.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return mapError("delete account", err)
	}
	if err := requireAffected("delete account", result); err != nil {
		return err
	}

	r.logger.Debug("account deleted", zap.String("id", id.String()))
	return nil
}

func (r *AccountRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*models.Account, error) {
	executor := GetExecutor(ctx, r.db)
	account, err := scanAccount(executor.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(op, err)
	}
	return account, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Handle,
		&account.Email,
		&account.Phone,
		&account.PasswordHash,
		&account.IsAdmin,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
