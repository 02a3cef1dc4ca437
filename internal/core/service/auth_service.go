package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/port"
)

// Claims carried by the session token.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	accounts   port.AccountRepository
	cache      port.CacheRepository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(accounts port.AccountRepository, cache port.CacheRepository, secret []byte, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		accounts:   accounts,
		cache:      cache,
		secret:     secret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// SignIn verifies the credential and mints a session token carrying the
// account's role. Unknown email and wrong password are indistinguishable
// to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *domain.Session, error) {
	acct, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("account lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		Username: acct.Username,
		UserID:   acct.ID,
		Role:     string(acct.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return token, &domain.Session{
		UserID:    acct.ID,
		Username:  acct.Username,
		Role:      acct.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the token until its natural expiry. Signing out an
// invalid or already-revoked token is a no-op, which keeps it idempotent.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// SessionFromToken validates a bearer token and rebuilds the session it
// carries. A token with no role claim yields RoleUnknown, which the guard
// reports as Pending rather than denying.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	revoked, err := s.cache.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      domain.Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Provision creates a cashier (or admin) account with a hashed credential.
func (s *AuthService) Provision(ctx context.Context, email, password, username string, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrNotPermitted, role)
	}
	if email == "" || username == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: email, username and a password of at least 6 characters are required", domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Revoke deletes a cashier account. Admin accounts are provisioned out of
// band and cannot be revoked through this path.
func (s *AuthService) Revoke(ctx context.Context, accountID string) error {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Role == domain.RoleAdmin {
		return fmt.Errorf("%w: admin accounts cannot be revoked", domain.ErrNotPermitted)
	}
	return s.accounts.DeleteAccount(ctx, accountID)
}

func (s *AuthService) ListCashiers(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.ListAccountsByRole(ctx, domain.RoleCashier)
}

// RoleOf looks the role up from the account row rather than the token.
func (s *AuthService) RoleOf(ctx context.Context, accountID string) (domain.Role, error) {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RoleUnknown, nil
		}
		return domain.RoleUnknown, err
	}
	return acct.Role, nil
}
