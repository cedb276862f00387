package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/recipe-hub/models"
)

var (
	// ErrTokenMalformed is returned for tokens that cannot be parsed or carry invalid claims
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned for correctly signed tokens past their expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenSignature is returned when the signature does not verify against the secret
	ErrTokenSignature = errors.New("token signature invalid")
)

// Claims is the JWT payload issued at login. Roles are not carried;
// they are read from the account store on every request.
type Claims struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity
func (c *Claims) Identity() (Identity, error) {
	id, err := uuid.Parse(c.AccountID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid account_id", ErrTokenMalformed)
	}
	return Identity{
		AccountID: id,
		Handle:    c.Handle,
		Email:     c.Email,
	}, nil
}

// TokenService issues and verifies HS256 bearer tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret is read once and never changes.
func NewTokenService(secret []byte, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL returns the lifetime of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for account, expiring TTL after now
func (s *TokenService) Issue(account *models.Account) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		AccountID: account.ID.String(),
		Handle:    account.Handle,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses tokenString, checking the signature before any claim.
// Errors are ErrTokenMalformed, ErrTokenExpired or ErrTokenSignature.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)

	switch {
	case err == nil && token.Valid:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return nil, ErrTokenMalformed
	}

	if _, err := claims.Identity(); err != nil {
		return nil, err
	}
	return claims, nil
}
