package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var notFound = fmt.Errorf("get account: %w", repositories.ErrNotFound)

type accountFixture struct {
	accounts *MockAccountRepository
	audit    *MockAuditRecorder
	txMgr    *MockTransactionManager
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	service  *AccountService
}

func newAccountFixture(t *testing.T, uniquePhone bool) *accountFixture {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f := &accountFixture{
		accounts: new(MockAccountRepository),
		audit:    new(MockAuditRecorder),
		txMgr:    new(MockTransactionManager),
		hasher:   hasher,
		tokens:   auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour, "recipe-hub"),
	}
	f.service = NewAccountService(f.accounts, f.txMgr, f.audit, f.hasher, f.tokens, AccountOptions{UniquePhone: uniquePhone}, zap.NewNop())
	return f
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Handle:          "chef",
		Email:           "chef@example.com",
		Phone:           "+15550001111",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	}
}

func TestAccountService_Register(t *testing.T) {
	f := newAccountFixture(t, true)
	ctx := context.Background()

	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, notFound)
	f.accounts.On("GetByPhone", ctx, "+15550001111").Return(nil, notFound)
	f.accounts.On("Create", ctx, mock.AnythingOfType("*models.Account")).Return(nil)

	input := validRegisterInput()
	input.Email = "  Chef@Example.COM "

	account, err := f.service.Register(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, "chef@example.com", account.Email)
	assert.False(t, account.IsAdmin)
	assert.NotEqual(t, "correct-horse", account.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("correct-horse")))
	f.accounts.AssertExpectations(t)
}

func TestAccountService_RegisterDuplicateEmail(t *testing.T) {
	f := newAccountFixture(t, true)
	ctx := context.Background()
	existing := models.NewAccount("other", "chef@example.com", "+15550009999", "hash")

	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(existing, nil)

	_, err := f.service.Register(ctx, validRegisterInput())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.True(t, IsConflictError(err))
	f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccountService_RegisterDuplicatePhone(t *testing.T) {
	t.Run("rejected when unique phone is enforced", func(t *testing.T) {
		f := newAccountFixture(t, true)
		ctx := context.Background()
		existing := models.NewAccount("other", "other@example.com", "+15550001111", "hash")

		f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, notFound)
		f.accounts.On("GetByPhone", ctx, "+15550001111").Return(existing, nil)

		_, err := f.service.Register(ctx, validRegisterInput())
		assert.ErrorIs(t, err, ErrDuplicatePhone)
		f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("accepted when unique phone is off", func(t *testing.T) {
		f := newAccountFixture(t, false)
		ctx := context.Background()

		f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, notFound)
		f.accounts.On("Create", ctx, mock.Anything).Return(nil)

		_, err := f.service.Register(ctx, validRegisterInput())
		assert.NoError(t, err)
		f.accounts.AssertNotCalled(t, "GetByPhone", mock.Anything, mock.Anything)
	})
}

func TestAccountService_RegisterConcurrentDuplicate(t *testing.T) {
	f := newAccountFixture(t, false)
	ctx := context.Background()

	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, notFound)
	f.accounts.On("Create", ctx, mock.Anything).
		Return(fmt.Errorf("create account: %w", &repositories.DuplicateError{Constraint: "accounts_email_key"}))

	_, err := f.service.Register(ctx, validRegisterInput())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"short handle", func(in *RegisterInput) { in.Handle = "ab" }, "handle"},
		{"blank handle", func(in *RegisterInput) { in.Handle = "   " }, "handle"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"bad phone", func(in *RegisterInput) { in.Phone = "12-34" }, "phone"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, "password"},
		{"mismatched confirmation", func(in *RegisterInput) { in.ConfirmPassword = "different" }, "confirm_password"},
		{"password over 72 bytes", func(in *RegisterInput) {
			in.Password = strings.Repeat("é", 40)
			in.ConfirmPassword = in.Password
		}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t, true)
			input := validRegisterInput()
			tt.mutate(&input)

			_, err := f.service.Register(context.Background(), input)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, GetErrorFields(err), tt.field)
			f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAccountService_RegisterThenLogin(t *testing.T) {
	f := newAccountFixture(t, false)
	ctx := context.Background()

	var stored *models.Account
	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, notFound).Once()
	f.accounts.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Account)
	}).Return(nil)

	_, err := f.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	require.NotNil(t, stored)

	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(stored, nil)

	result, err := f.service.Login(ctx, LoginInput{Email: "CHEF@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, stored.ID, result.Account.ID)

	claims, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.AccountID)
	assert.Equal(t, "chef", claims.Handle)
	assert.Equal(t, "chef@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)
}

func TestAccountService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAccountFixture(t, false)
	ctx := context.Background()

	hash, err := f.hasher.Hash("correct-horse")
	require.NoError(t, err)
	account := models.NewAccount("chef", "chef@example.com", "+15550001111", hash)

	f.accounts.On("GetByEmail", ctx, "ghost@example.com").Return(nil, notFound)
	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(account, nil)

	_, unknownErr := f.service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "correct-horse"})
	_, wrongErr := f.service.Login(ctx, LoginInput{Email: "chef@example.com", Password: "wrong-password"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, GetErrorMessage(unknownErr), GetErrorMessage(wrongErr))

	assert.ErrorIs(t, unknownErr, auth.ErrAccountNotFound)
	assert.ErrorIs(t, wrongErr, auth.ErrPasswordMismatch)
}

func TestAccountService_LoginRepositoryFailure(t *testing.T) {
	f := newAccountFixture(t, false)
	ctx := context.Background()
	f.accounts.On("GetByEmail", ctx, "chef@example.com").Return(nil, errors.New("connection refused"))

	_, err := f.service.Login(ctx, LoginInput{Email: "chef@example.com", Password: "x"})
	assert.True(t, IsInternalError(err))
}

func TestAccountService_GetAccountNotFound(t *testing.T) {
	f := newAccountFixture(t, false)
	id := uuid.New()
	f.accounts.On("GetByID", mock.Anything, id).Return(nil, notFound)

	_, err := f.service.GetAccount(context.Background(), id)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	t.Run("another account is forbidden", func(t *testing.T) {
		f := newAccountFixture(t, false)
		identity := auth.Identity{AccountID: uuid.New()}
		handle := "renamed"

		_, err := f.service.UpdateProfile(context.Background(), identity, uuid.New(), UpdateProfileInput{Handle: &handle})
		assert.True(t, IsForbiddenError(err))
		f.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("password change needs the current password", func(t *testing.T) {
		f := newAccountFixture(t, false)
		hash, err := f.hasher.Hash("correct-horse")
		require.NoError(t, err)
		account := models.NewAccount("chef", "chef@example.com", "+15550001111", hash)
		identity := auth.Identity{AccountID: account.ID}
		f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)

		newPassword := "battery-staple"
		_, err = f.service.UpdateProfile(context.Background(), identity, account.ID, UpdateProfileInput{
			Password:        &newPassword,
			CurrentPassword: "wrong-password",
		})
		assert.True(t, IsValidationError(err))
		assert.Contains(t, GetErrorFields(err), "current_password")
		f.accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("own profile is updated", func(t *testing.T) {
		f := newAccountFixture(t, false)
		hash, err := f.hasher.Hash("correct-horse")
		require.NoError(t, err)
		account := models.NewAccount("chef", "chef@example.com", "+15550001111", hash)
		identity := auth.Identity{AccountID: account.ID}
		f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
		f.accounts.On("Update", mock.Anything, account).Return(nil)

		handle := "  head-chef "
		newPassword := "battery-staple"
		updated, err := f.service.UpdateProfile(context.Background(), identity, account.ID, UpdateProfileInput{
			Handle:          &handle,
			Password:        &newPassword,
			CurrentPassword: "correct-horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "head-chef", updated.Handle)
		assert.NoError(t, f.hasher.Compare(updated.PasswordHash, "battery-staple"))
		f.accounts.AssertExpectations(t)
	})
}

func TestAccountService_MultibytePasswordIsRejectedBeforeHashing(t *testing.T) {
	// 40 runes pass a character limit but exceed bcrypt's 72 bytes
	long := strings.Repeat("é", 40)

	t.Run("register", func(t *testing.T) {
		f := newAccountFixture(t, true)
		input := validRegisterInput()
		input.Password, input.ConfirmPassword = long, long

		_, err := f.service.Register(context.Background(), input)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "password must be at most 72 bytes", GetErrorFields(err)["password"])
		f.accounts.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("update profile", func(t *testing.T) {
		f := newAccountFixture(t, false)
		identity := auth.Identity{AccountID: uuid.New()}

		_, err := f.service.UpdateProfile(context.Background(), identity, identity.AccountID, UpdateProfileInput{
			Password:        &long,
			CurrentPassword: "correct-horse",
		})
		assert.True(t, IsValidationError(err))
		assert.Contains(t, GetErrorFields(err), "password")
		f.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("admin update", func(t *testing.T) {
		f := newAccountFixture(t, false)
		admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}

		_, err := f.service.AdminUpdateAccount(context.Background(), admin, uuid.New(), AdminUpdateAccountInput{Password: &long})
		assert.True(t, IsValidationError(err))
		assert.Contains(t, GetErrorFields(err), "password")
		assert.Equal(t, 0, f.txMgr.committed)
	})
}

func TestAccountService_AdminUpdateAccount(t *testing.T) {
	f := newAccountFixture(t, false)
	admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}
	account := models.NewAccount("chef", "chef@example.com", "+15550001111", "hash")

	f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("Update", mock.Anything, account).Return(nil)
	f.audit.On("LogAccountUpdated", mock.MatchedBy(inTx), admin.AccountID, account, []string{"password", "is_admin"}).Return(nil)

	promote := true
	password := "reset-password"
	updated, err := f.service.AdminUpdateAccount(context.Background(), admin, account.ID, AdminUpdateAccountInput{
		Password: &password,
		IsAdmin:  &promote,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.NoError(t, f.hasher.Compare(updated.PasswordHash, "reset-password"))
	assert.Equal(t, 1, f.txMgr.committed)
	f.audit.AssertExpectations(t)
}

func TestAccountService_AdminUpdateAccountAuditFailureRollsBack(t *testing.T) {
	f := newAccountFixture(t, false)
	admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}
	account := models.NewAccount("chef", "chef@example.com", "+15550001111", "hash")

	f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("Update", mock.Anything, account).Return(nil)
	f.audit.On("LogAccountUpdated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("audit down"))

	handle := "renamed"
	_, err := f.service.AdminUpdateAccount(context.Background(), admin, account.ID, AdminUpdateAccountInput{Handle: &handle})
	assert.True(t, IsInternalError(err))
	assert.Equal(t, 1, f.txMgr.rolledback)
	assert.Equal(t, 0, f.txMgr.committed)
}

func TestAccountService_DeleteAccount(t *testing.T) {
	t.Run("cannot delete self", func(t *testing.T) {
		f := newAccountFixture(t, false)
		admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}

		err := f.service.DeleteAccount(context.Background(), admin, admin.AccountID)
		assert.ErrorIs(t, err, ErrCannotDeleteSelf)
		f.accounts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes and audits", func(t *testing.T) {
		f := newAccountFixture(t, false)
		admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}
		account := models.NewAccount("chef", "chef@example.com", "+15550001111", "hash")

		f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
		f.accounts.On("Delete", mock.MatchedBy(inTx), account.ID).Return(nil)
		f.audit.On("LogAccountDeleted", mock.MatchedBy(inTx), admin.AccountID, account).Return(nil)

		require.NoError(t, f.service.DeleteAccount(context.Background(), admin, account.ID))
		f.accounts.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})

	t.Run("missing account", func(t *testing.T) {
		f := newAccountFixture(t, false)
		admin := auth.Identity{AccountID: uuid.New(), IsAdmin: true}
		id := uuid.New()
		f.accounts.On("GetByID", mock.Anything, id).Return(nil, notFound)

		err := f.service.DeleteAccount(context.Background(), admin, id)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAccountService_CreateAdmin(t *testing.T) {
	f := newAccountFixture(t, false)
	f.accounts.On("GetByEmail", mock.Anything, "chef@example.com").Return(nil, notFound)
	f.accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool { return a.IsAdmin })).Return(nil)

	account, err := f.service.CreateAdmin(context.Background(), validRegisterInput())
	require.NoError(t, err)
	assert.True(t, account.IsAdmin)
}
