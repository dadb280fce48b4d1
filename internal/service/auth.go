package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/staffhive/staffhive/internal/config"
	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/port/database"
)

// ErrInvalidCredentials is returned for any login failure so callers
// cannot distinguish unknown emails from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionClaims are the JWT claims carried by a session cookie. TenantID
// scopes the session to one subdomain; central-domain sessions leave it
// empty.
type SessionClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid,omitempty"`
	Operator bool   `json:"op,omitempty"`
}

// AuthService handles password authentication and session tokens.
type AuthService struct {
	store  database.Store
	cfg    *config.Auth
	secret []byte
	parser *jwt.Parser
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Register creates a new platform user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	return s.register(ctx, req, false)
}

// RegisterOperator creates a platform operator. Only reachable from
// operational tooling, never from the HTTP surface.
func (s *AuthService) RegisterOperator(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	return s.register(ctx, req, true)
}

func (s *AuthService) register(ctx context.Context, req *user.CreateRequest, operator bool) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Operator:     operator,
		Enabled:      true,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials against the platform store.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !u.Enabled {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// IssueSession signs a session token for the user, scoped to the given
// tenant (empty for central-domain sessions).
func (s *AuthService) IssueSession(u *user.User, tenantID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionExpiry)),
		},
		TenantID: tenantID,
		Operator: u.Operator,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// VerifySession parses and validates a session token.
func (s *AuthService) VerifySession(tokenStr string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := s.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return &claims, nil
}

// UserFromToken verifies a session token and loads its user from the
// platform store. Disabled users are rejected even with a valid token.
func (s *AuthService) UserFromToken(ctx context.Context, tokenStr string) (*user.User, *SessionClaims, error) {
	claims, err := s.VerifySession(tokenStr)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("session user: %w", err)
	}
	if !u.Enabled {
		return nil, nil, errors.New("session user disabled")
	}
	return u, claims, nil
}

// SeedOperator creates the initial platform operator if no users exist.
func (s *AuthService) SeedOperator(ctx context.Context) error {
	if s.cfg.OperatorPass == "" {
		return nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) > 0 {
		return nil // already seeded
	}

	u, err := s.register(ctx, &user.CreateRequest{
		Email:    s.cfg.OperatorEmail,
		Name:     "Platform Operator",
		Password: s.cfg.OperatorPass,
	}, true)
	if err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}

	slog.Info("seeded platform operator", "email", u.Email)
	return nil
}

// generateToken produces an opaque random token string of n random bytes,
// hex encoded.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
