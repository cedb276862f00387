package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/models"
	"github.com/upb/recipe-hub/repositories"
	"github.com/upb/recipe-hub/utils"
	"go.uber.org/zap"
)

// bearerPrefix is the only accepted Authorization scheme, case sensitive
const bearerPrefix = "Bearer "

// TokenVerifier defines the interface for verifying access tokens
type TokenVerifier interface {
	// Verify checks the token signature and expiry and returns its claims
	Verify(token string) (*auth.Claims, error)
}

// AccountLookup loads the stored account behind a verified token
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	accounts AccountLookup
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, accounts AccountLookup, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		accounts: accounts,
		logger:   logger,
	}
}

// RequireAuth is a middleware that requires a valid bearer token in the
// Authorization header. Requests without one never reach next.
// The identity is rebuilt from the stored account, so the admin flag and
// deletions take effect before the token expires.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token, ok := extractBearerToken(r)
		if !ok {
			m.logger.Debug("missing or malformed authorization header",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Info("token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			if errors.Is(err, auth.ErrTokenExpired) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
				_ = utils.WriteUnauthorized(w, "token expired")
				return
			}
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			_ = utils.WriteUnauthorized(w, "invalid token")
			return
		}

		identity, err := claims.Identity()
		if err != nil {
			m.logger.Warn("token carries an invalid account id",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "invalid token")
			return
		}

		account, err := m.accounts.GetByID(ctx, identity.AccountID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				m.logger.Info("token for a deleted account",
					zap.String("request_id", requestID),
					zap.String("account_id", identity.AccountID.String()))
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				_ = utils.WriteUnauthorized(w, "invalid token")
				return
			}
			m.logger.Error("failed to load account",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Internal server error")
			return
		}
		identity.Handle = account.Handle
		identity.Email = account.Email
		identity.IsAdmin = account.IsAdmin

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("account_id", identity.AccountID.String()))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// RequireAdmin is a middleware that only lets administrators through.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		identity, ok := GetIdentityFromContext(ctx)
		if !ok {
			m.logger.Error("identity not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		if !identity.IsAdmin {
			m.logger.Warn("admin route denied",
				zap.String("request_id", requestID),
				zap.String("account_id", identity.AccountID.String()),
				zap.String("path", r.URL.Path))
			_ = utils.WriteForbidden(w, "Administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractBearerToken returns the token from an "Authorization: Bearer <token>"
// header. Any other scheme, casing or an empty token is rejected.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
