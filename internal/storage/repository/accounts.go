package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/banner-generator/internal/models"
)

var (
	// ErrAccountExists аккаунт с такой почтой уже есть
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound аккаунт не найден
	ErrAccountNotFound = errors.New("account not found")
	// ErrPaymentRefTaken платёж уже записан на другой аккаунт
	ErrPaymentRefTaken = errors.New("payment already applied to another account")
)

const subscriptionRefIndex = "idx_accounts_subscription_ref"

const accountColumns = `id, email, full_name, password_hash, is_active, plan,
			      subscription_ref, social_token, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                   models.Account
		plan                string
		subRef, socialToken sql.NullString
		updatedAt           sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.FullName, &a.PasswordHash, &a.IsActive, &plan,
		&subRef, &socialToken, &a.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	a.Plan = models.Plan(plan)
	if subRef.Valid {
		a.SubscriptionRef = &subRef.String
	}
	if socialToken.Valid {
		a.SocialToken = &socialToken.String
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return &a, nil
}

// mapError приводит ошибки драйвера к ошибкам хранилища.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			if pgErr.ConstraintName == subscriptionRefIndex {
				return ErrPaymentRefTaken
			}
			return ErrAccountExists
		case pgerrcode.InvalidTextRepresentation:
			// id не является UUID
			return ErrAccountNotFound
		}
	}
	return err
}

// InsertAccount сохраняет новый аккаунт. Пустой ID заменяется новым UUID.
func (s *Storage) InsertAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	const op = "storage.InsertAccount"

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Plan == "" {
		account.Plan = models.PlanFree
	}
	account.Email = models.NormalizeEmail(account.Email)

	query := `INSERT INTO accounts (id, email, full_name, password_hash, is_active, plan)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING created_at`
	if err := s.DB.QueryRowContext(ctx, query,
		account.ID, account.Email, account.FullName, account.PasswordHash,
		account.IsActive, string(account.Plan)).Scan(&account.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &account, nil
}

// FindByEmail возвращает аккаунт по почте (почта нормализуется).
func (s *Storage) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.FindByEmail"

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE email = $1`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// GetAccount возвращает аккаунт по его ID.
func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.GetAccount"

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE id = $1`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE id = $1
			  FOR UPDATE`
	return scanAccount(tx.QueryRowContext(ctx, query, id))
}

// UpdateAccount читает аккаунт под блокировкой строки, применяет fn и сохраняет
// изменённые поля в той же транзакции. Возвращает обновлённую запись.
//
// subscription_ref через UpdateAccount не меняется, его пишет только UpgradeToPro.
func (s *Storage) UpdateAccount(ctx context.Context, id string, fn func(a *models.Account) error) (*models.Account, error) {
	const op = "storage.UpdateAccount"

	var out *models.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		a, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = fn(a); err != nil {
			return err
		}
		a.Email = models.NormalizeEmail(a.Email)

		query := `UPDATE accounts
				  SET email = $2, full_name = $3, is_active = $4, plan = $5,
				      social_token = $6, updated_at = now()
				  WHERE id = $1
				  RETURNING updated_at`
		var updatedAt time.Time
		if err = tx.QueryRowContext(ctx, query, a.ID, a.Email, a.FullName, a.IsActive,
			string(a.Plan), a.SocialToken).Scan(&updatedAt); err != nil {
			return err
		}
		a.UpdatedAt = &updatedAt
		out = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// UpgradeToPro переводит аккаунт на pro-план и записывает ref, только если
// subscription_ref ещё пуст. Если аккаунт уже pro и ref задан, ничего не пишет.
// Второе значение сообщает, выставил ли этот вызов subscription_ref.
// Один ref принадлежит не более чем одному аккаунту: чужой ref даёт
// ErrPaymentRefTaken, транзакция откатывается.
func (s *Storage) UpgradeToPro(ctx context.Context, id, ref string) (*models.Account, bool, error) {
	const op = "storage.UpgradeToPro"

	var (
		out    *models.Account
		refSet bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		a, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.IsPro() && a.SubscriptionRef != nil {
			out = a
			return nil
		}

		refSet = a.SubscriptionRef == nil
		query := `UPDATE accounts
				  SET plan = $2,
				      subscription_ref = COALESCE(subscription_ref, $3),
				      updated_at = now()
				  WHERE id = $1
				  RETURNING subscription_ref, updated_at`
		var (
			storedRef string
			updatedAt time.Time
		)
		if err = tx.QueryRowContext(ctx, query, a.ID, string(models.PlanPro), ref).
			Scan(&storedRef, &updatedAt); err != nil {
			return err
		}
		a.Plan = models.PlanPro
		a.SubscriptionRef = &storedRef
		a.UpdatedAt = &updatedAt
		out = a
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, refSet, nil
}
