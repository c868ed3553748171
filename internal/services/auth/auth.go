// Package auth содержит регистрацию, вход и проверку токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/banner-generator/internal/lib/password"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/storage/repository"
)

// TokenTypeBearer тип токена в ответе на вход.
const TokenTypeBearer = "bearer"

var (
	// ErrInvalidCredentials неизвестная почта, неверный пароль или неактивный аккаунт.
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Incorrect email or password")
	// ErrInvalidToken токен не прошёл проверку или аккаунт не найден.
	ErrInvalidToken = apperr.New(apperr.ErrUnauthorized, "Could not validate credentials")
	// ErrInactiveAccount аккаунт отключён.
	ErrInactiveAccount = apperr.New(apperr.ErrUnauthorized, "Inactive user")
	// ErrEmailTaken почта уже зарегистрирована.
	ErrEmailTaken = apperr.New(apperr.ErrConflict, "Email already registered")
)

// AccountRepository описывает доступ к аккаунтам, нужный для аутентификации.
type AccountRepository interface {
	InsertAccount(ctx context.Context, account models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// LoginMetrics учитывает попытки входа.
type LoginMetrics interface {
	Login(success bool)
}

// Token выданный токен доступа.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// Service отвечает за регистрацию, вход и проверку токенов.
type Service struct {
	log      *slog.Logger
	accounts AccountRepository
	jwtMaker jwt.Maker
	metrics  LoginMetrics
}

// New создаёт сервис аутентификации.
func New(log *slog.Logger, accounts AccountRepository, jwtMaker jwt.Maker, metrics LoginMetrics) *Service {
	return &Service{
		log:      log,
		accounts: accounts,
		jwtMaker: jwtMaker,
		metrics:  metrics,
	}
}

// Register создаёт аккаунт на бесплатном плане. Пароль проверяется на стойкость.
func (s *Service) Register(ctx context.Context, email, rawPassword, fullName string) (*models.Account, error) {
	const op = "auth.Register"

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.New(apperr.ErrValidation, "email is required")
	}
	fullName = models.NormalizeFullName(fullName)
	if !models.ValidFullName(fullName) {
		return nil, apperr.New(apperr.ErrValidation,
			fmt.Sprintf("full_name must be between %d and %d characters", models.MinFullNameLength, models.MaxFullNameLength))
	}
	if err := password.ValidateStrength(rawPassword); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, err.Error(), err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.accounts.InsertAccount(ctx, models.Account{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		IsActive:     true,
		Plan:         models.PlanFree,
	})
	if errors.Is(err, repository.ErrAccountExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account registered", slog.String("op", op), slog.String("account_id", account.ID))
	return account, nil
}

// Login проверяет почту и пароль и выдаёт токен доступа. Любой отказ по учётным
// данным возвращает ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Token, error) {
	const op = "auth.Login"
	log := s.log.With(slog.String("op", op))

	account, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		// хэш всё равно считается, чтобы время ответа не выдавало наличие аккаунта
		password.DummyCompare(rawPassword)
		s.metrics.Login(false)
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !password.Compare(account.PasswordHash, rawPassword) || !account.IsActive {
		s.metrics.Login(false)
		log.Info("login rejected", slog.String("account_id", account.ID))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtMaker.GenerateToken(account.ID)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Login(true)
	return &Token{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// Authenticate проверяет токен и возвращает активный аккаунт его владельца.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.GetAccount(ctx, claims.Subject)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !account.IsActive {
		return nil, ErrInactiveAccount
	}
	return account, nil
}
