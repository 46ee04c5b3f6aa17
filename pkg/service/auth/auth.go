// Package auth authenticates guardians and dependents and issues tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	tokenContextKey   contextKey = "token"
	accountContextKey contextKey = "account_id"
)

// dummyHash is compared against when the identity is unknown so that both
// failure paths cost one bcrypt comparison.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Strategy is one way of proving who the caller is.
type Strategy interface {
	Login(ctx context.Context, identity, password string) (*account.Account, error)
	GetCurrentUserID(ctx context.Context) (uuid.UUID, error)
	GenerateToken(ctx context.Context, a *account.Account) (string, error)
}

// Service wraps a Strategy with logging.
type Service struct {
	strategy Strategy
	logger   *slog.Logger
}

func New(strategy Strategy, logger *slog.Logger) *Service {
	return &Service{strategy: strategy, logger: logger}
}

// NewWithJWT is used by the HTTP API.
func NewWithJWT(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *Service {
	return New(NewJWTStrategy(uow, cfg, logger), logger)
}

// NewWithBasic is used by the CLI, which checks the password on every session.
func NewWithBasic(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return New(NewBasicAuthStrategy(uow, logger), logger)
}

// Login checks identity (username or e-mail) and password.
func (s *Service) Login(ctx context.Context, identity, password string) (*account.Account, error) {
	log := s.logger.With("operation", "Login", "identity", identity)
	a, err := s.strategy.Login(ctx, identity, password)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			log.Error("Login failed", "error", err)
		} else {
			log.Warn("Login rejected")
		}
		return nil, err
	}
	log.Info("Login successful", "account_id", a.ID, "role", a.Role)
	return a, nil
}

// GenerateToken issues a credential for a.
func (s *Service) GenerateToken(ctx context.Context, a *account.Account) (string, error) {
	token, err := s.strategy.GenerateToken(ctx, a)
	if err != nil {
		s.logger.Error("GenerateToken failed", "account_id", a.ID, "error", err)
		return "", err
	}
	return token, nil
}

// GetCurrentUserID extracts the account id from a verified token.
func (s *Service) GetCurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	id, err := s.strategy.GetCurrentUserID(context.WithValue(context.Background(), tokenContextKey, token))
	if err != nil {
		s.logger.Warn("GetCurrentUserID failed", "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

// CurrentUserID reads the account id bound to ctx by the strategy in use.
func (s *Service) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	return s.strategy.GetCurrentUserID(ctx)
}

// WithAccountID binds an authenticated account id to ctx.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountContextKey, id)
}

func checkCredentials(
	ctx context.Context,
	uow repository.UnitOfWork,
	identity, password string,
) (*account.Account, error) {
	repo, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	var a *account.Account
	if utils.IsEmail(identity) {
		a, err = repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(identity)))
	} else {
		a, err = repo.GetByUsername(ctx, account.NormalizeUsername(identity))
	}
	if err != nil {
		return nil, err
	}
	if a == nil {
		_ = utils.CheckPasswordHash(password, dummyHash)
		return nil, domain.Errorf(domain.ErrUnauthorized, "invalid credentials")
	}
	if !utils.CheckPasswordHash(password, a.HashedPassword) {
		return nil, domain.Errorf(domain.ErrUnauthorized, "invalid credentials")
	}
	return a, nil
}

// JWTStrategy issues HS256 tokens carrying the account id and role.
type JWTStrategy struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
}

func NewJWTStrategy(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{uow: uow, cfg: cfg, logger: logger}
}

func (s *JWTStrategy) Login(ctx context.Context, identity, password string) (*account.Account, error) {
	return checkCredentials(ctx, s.uow, identity, password)
}

func (s *JWTStrategy) GenerateToken(_ context.Context, a *account.Account) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  a.ID.String(),
		"username": a.Username,
		"role":     string(a.Role),
		"exp":      time.Now().Add(s.cfg.Expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *JWTStrategy) GetCurrentUserID(ctx context.Context) (uuid.UUID, error) {
	token, ok := ctx.Value(tokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.ErrUnauthorized, "malformed user_id claim")
	}
	return id, nil
}

// BasicAuthStrategy checks the password and issues no token. The caller
// keeps the account id in its session context with WithAccountID.
type BasicAuthStrategy struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func NewBasicAuthStrategy(uow repository.UnitOfWork, logger *slog.Logger) *BasicAuthStrategy {
	return &BasicAuthStrategy{uow: uow, logger: logger}
}

func (s *BasicAuthStrategy) Login(ctx context.Context, identity, password string) (*account.Account, error) {
	return checkCredentials(ctx, s.uow, identity, password)
}

func (s *BasicAuthStrategy) GenerateToken(context.Context, *account.Account) (string, error) {
	return "", nil
}

func (s *BasicAuthStrategy) GetCurrentUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(accountContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}
