// Package user содержит чтение и частичное обновление профиля аккаунта.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/storage/repository"
)

// Ограничения на длину имени.
const (
	MinFullNameLength = models.MinFullNameLength
	MaxFullNameLength = models.MaxFullNameLength
)

var (
	// ErrAccountNotFound аккаунт не найден.
	ErrAccountNotFound = apperr.New(apperr.ErrNotFound, "User not found")
	// ErrEmailTaken почта занята другим аккаунтом.
	ErrEmailTaken = apperr.New(apperr.ErrConflict, "Email already registered")
)

// AccountRepository описывает доступ к аккаунтам.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, fn func(a *models.Account) error) (*models.Account, error)
}

// UpdateInput поля профиля. nil означает «не менять».
type UpdateInput struct {
	FullName    *string
	Email       *string
	IsPro       *bool
	SocialToken *string
}

// Service работает с профилем аккаунта.
type Service struct {
	log      *slog.Logger
	accounts AccountRepository
}

// New создаёт сервис профиля.
func New(log *slog.Logger, accounts AccountRepository) *Service {
	return &Service{
		log:      log,
		accounts: accounts,
	}
}

// Get возвращает аккаунт по ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	const op = "user.Get"

	account, err := s.accounts.GetAccount(ctx, id)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// Update записывает только переданные поля. Проверки выполняются до обращения к базе.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Account, error) {
	const op = "user.Update"

	if err := validate(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.UpdateAccount(ctx, id, func(a *models.Account) error {
		if in.FullName != nil {
			a.FullName = models.NormalizeFullName(*in.FullName)
		}
		if in.Email != nil {
			a.Email = models.NormalizeEmail(*in.Email)
		}
		if in.IsPro != nil {
			a.Plan = models.PlanFree
			if *in.IsPro {
				a.Plan = models.PlanPro
			}
		}
		if in.SocialToken != nil {
			token := *in.SocialToken
			a.SocialToken = &token
		}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return nil, ErrAccountNotFound
	case errors.Is(err, repository.ErrAccountExists):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account updated", slog.String("op", op), slog.String("account_id", id))
	return account, nil
}

func validate(in UpdateInput) error {
	if in.FullName != nil {
		if !models.ValidFullName(*in.FullName) {
			return apperr.New(apperr.ErrValidation,
				fmt.Sprintf("full_name must be between %d and %d characters", MinFullNameLength, MaxFullNameLength))
		}
	}
	if in.Email != nil && models.NormalizeEmail(*in.Email) == "" {
		return apperr.New(apperr.ErrValidation, "email must not be empty")
	}
	return nil
}
