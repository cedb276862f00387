package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"github.com/upb/recipe-hub/utils"
	"go.uber.org/zap"
)

// RegisterInput is the payload for creating an account
type RegisterInput struct {
	Handle          string `json:"handle" validate:"required,notblank,min=3,max=50"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone" validate:"required,phone"`
	Password        string `json:"password" validate:"required,min=8,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password,omitempty" validate:"omitempty,eqfield=Password"`
}

// LoginInput is the payload for exchanging credentials for a token
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"account"`
}

// UpdateProfileInput is a self-service partial update. Changing the password
// requires the current one.
type UpdateProfileInput struct {
	Handle          *string `json:"handle,omitempty" validate:"omitempty,notblank,min=3,max=50"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8,maxbytes=72"`
	CurrentPassword string  `json:"current_password,omitempty" validate:"required_with=Password"`
}

// AdminUpdateAccountInput is an administrative partial update
type AdminUpdateAccountInput struct {
	Handle   *string `json:"handle,omitempty" validate:"omitempty,notblank,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,maxbytes=72"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

// AccountOptions holds account policy settings
type AccountOptions struct {
	// UniquePhone rejects registration with a phone number already in use
	UniquePhone bool
}

// AccountService implements the credential store and account administration
type AccountService struct {
	accounts repositories.AccountRepository
	txMgr    repositories.TransactionManager
	audit    AuditRecorder
	hasher   PasswordHasher
	tokens   TokenIssuer
	opts     AccountOptions
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	accounts repositories.AccountRepository,
	txMgr repositories.TransactionManager,
	audit AuditRecorder,
	hasher PasswordHasher,
	tokens TokenIssuer,
	opts AccountOptions,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		txMgr:    txMgr,
		audit:    audit,
		hasher:   hasher,
		tokens:   tokens,
		opts:     opts,
		logger:   logger,
	}
}

// Register creates a regular account
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	return s.create(ctx, input, false)
}

// CreateAdmin creates an administrator account. Used to bootstrap the first admin.
func (s *AccountService) CreateAdmin(ctx context.Context, input RegisterInput) (*models.Account, error) {
	return s.create(ctx, input, true)
}

func (s *AccountService) create(ctx context.Context, input RegisterInput, isAdmin bool) (*models.Account, error) {
	input.Handle = strings.TrimSpace(input.Handle)
	input.Email = utils.NormalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validate(input); err != nil {
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, input.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.ensurePhoneAvailable(ctx, input.Phone, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	account := models.NewAccount(input.Handle, input.Email, input.Phone, hash)
	account.IsAdmin = isAdmin

	if err := s.accounts.Create(ctx, account); err != nil {
		// A concurrent registration can still win the unique index
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateEmail.Wrap(err)
		}
		return nil, WrapInternal("failed to create account", err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", account.ID.String()),
		zap.Bool("is_admin", isAdmin))

	return account, nil
}

// VerifyCredentials returns the account matching email and password. Unknown
// email and wrong password both yield ErrInvalidCredentials; the distinct
// cause (auth.ErrAccountNotFound or auth.ErrPasswordMismatch) is wrapped for logs.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials.Wrap(auth.ErrAccountNotFound)
		}
		return nil, WrapInternal("failed to load account", err)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials.Wrap(auth.ErrPasswordMismatch)
		}
		return nil, WrapInternal("failed to verify password", err)
	}

	return account, nil
}

// Login verifies credentials and issues an access token
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = utils.NormalizeEmail(input.Email)
	if err := validate(input); err != nil {
		return nil, err
	}

	account, err := s.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		if IsUnauthorizedError(err) {
			s.logger.Info("login rejected", zap.Error(err))
		}
		return nil, err
	}

	token, claims, err := s.tokens.Issue(account)
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	s.logger.Info("login succeeded", zap.String("account_id", account.ID.String()))

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		Account:   account,
	}, nil
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, WrapInternal("failed to get account", err)
	}
	return account, nil
}

// ListAccounts lists accounts newest first
func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list accounts", err)
	}
	return accounts, nil
}

// UpdateProfile applies a self-service edit to accountID on behalf of identity
func (s *AccountService) UpdateProfile(ctx context.Context, identity auth.Identity, accountID uuid.UUID, input UpdateProfileInput) (*models.Account, error) {
	if decision := auth.Authorize(identity, accountID); !decision.Allowed {
		return nil, NewForbiddenError(decision.Reason)
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if input.Handle != nil {
		account.Handle = strings.TrimSpace(*input.Handle)
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != account.Phone {
			if err := s.ensurePhoneAvailable(ctx, phone, account.ID); err != nil {
				return nil, err
			}
		}
		account.Phone = phone
	}
	if input.Password != nil {
		if err := s.hasher.Compare(account.PasswordHash, input.CurrentPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil, NewValidationError("Validation failed", map[string]string{
					"current_password": "current_password is incorrect",
				})
			}
			return nil, WrapInternal("failed to verify password", err)
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, WrapInternal("failed to hash password", err)
		}
		account.PasswordHash = hash
	}

	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, s.mapWriteError("failed to update account", err)
	}

	return account, nil
}

// AdminUpdateAccount applies an administrative edit and records it in the audit trail
func (s *AccountService) AdminUpdateAccount(ctx context.Context, actor auth.Identity, id uuid.UUID, input AdminUpdateAccountInput) (*models.Account, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Account, error) {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}

		var changes []string
		if input.Handle != nil {
			account.Handle = strings.TrimSpace(*input.Handle)
			changes = append(changes, "handle")
		}
		if input.Email != nil {
			email := utils.NormalizeEmail(*input.Email)
			if email != account.Email {
				if err := s.ensureEmailAvailable(ctx, email, account.ID); err != nil {
					return nil, err
				}
			}
			account.Email = email
			changes = append(changes, "email")
		}
		if input.Phone != nil {
			phone := strings.TrimSpace(*input.Phone)
			if phone != account.Phone {
				if err := s.ensurePhoneAvailable(ctx, phone, account.ID); err != nil {
					return nil, err
				}
			}
			account.Phone = phone
			changes = append(changes, "phone")
		}
		if input.Password != nil {
			hash, err := s.hasher.Hash(*input.Password)
			if err != nil {
				return nil, WrapInternal("failed to hash password", err)
			}
			account.PasswordHash = hash
			changes = append(changes, "password")
		}
		if input.IsAdmin != nil {
			account.IsAdmin = *input.IsAdmin
			changes = append(changes, "is_admin")
		}

		account.UpdatedAt = time.Now().UTC()
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, s.mapWriteError("failed to update account", err)
		}
		if err := s.audit.LogAccountUpdated(ctx, actor.AccountID, account, changes); err != nil {
			return nil, WrapInternal("failed to record audit entry", err)
		}
		return account, nil
	})
}

// DeleteAccount removes an account, its recipes and favorites
func (s *AccountService) DeleteAccount(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if actor.AccountID == id {
		return ErrCannotDeleteSelf
	}

	return WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if err := s.accounts.Delete(ctx, id); err != nil {
			return s.mapWriteError("failed to delete account", err)
		}
		if err := s.audit.LogAccountDeleted(ctx, actor.AccountID, account); err != nil {
			return WrapInternal("failed to record audit entry", err)
		}
		s.logger.Info("account deleted",
			zap.String("account_id", id.String()),
			zap.String("actor_id", actor.AccountID.String()))
		return nil
	})
}

// ensureEmailAvailable fails with ErrDuplicateEmail when another account uses email
func (s *AccountService) ensureEmailAvailable(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return WrapInternal("failed to check email", err)
	case existing.ID != self:
		return ErrDuplicateEmail
	}
	return nil
}

// ensurePhoneAvailable enforces the unique-phone policy when it is enabled
func (s *AccountService) ensurePhoneAvailable(ctx context.Context, phone string, self uuid.UUID) error {
	if !s.opts.UniquePhone {
		return nil
	}
	existing, err := s.accounts.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return WrapInternal("failed to check phone", err)
	case existing.ID != self:
		return ErrDuplicatePhone
	}
	return nil
}

func (s *AccountService) mapWriteError(message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return ErrDuplicateEmail.Wrap(err)
	default:
		return WrapInternal(message, err)
	}
}
