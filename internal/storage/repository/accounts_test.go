package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/banner-generator/internal/models"
)

const testAccountID = "550e8400-e29b-41d4-a716-446655440000"

var accountCols = []string{
	"id", "email", "full_name", "password_hash", "is_active", "plan",
	"subscription_ref", "social_token", "created_at", "updated_at",
}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return &Storage{DB: db}, mock
}

func accountRow(plan string, ref any) *sqlmock.Rows {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(accountCols).
		AddRow(testAccountID, "ann@example.com", "Ann Lee", "$argon2id$hash", true, plan, ref, nil, created, nil)
}

func TestStorage_InsertAccount(t *testing.T) {
	tests := []struct {
		name    string
		mockErr error
		wantErr error
	}{
		{
			name: "successful insert",
		},
		{
			name:    "duplicate email",
			mockErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantErr: ErrAccountExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

			exp := mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
				WithArgs(sqlmock.AnyArg(), "ann@example.com", "Ann Lee", "hash", true, "free")
			if tt.mockErr != nil {
				exp.WillReturnError(tt.mockErr)
			} else {
				exp.WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
			}

			got, err := s.InsertAccount(context.Background(), models.Account{
				Email:        "  Ann@Example.com ",
				FullName:     "Ann Lee",
				PasswordHash: "hash",
				IsActive:     true,
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "ann@example.com", got.Email)
				assert.Equal(t, models.PlanFree, got.Plan)
				assert.Equal(t, created, got.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_FindByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE email = \\$1").
			WithArgs("ann@example.com").
			WillReturnRows(accountRow("free", nil))

		got, err := s.FindByEmail(context.Background(), "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, testAccountID, got.ID)
		assert.Equal(t, "$argon2id$hash", got.PasswordHash)
		assert.Nil(t, got.SubscriptionRef)
		assert.Nil(t, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE email = \\$1").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(accountCols))

		_, err := s.FindByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestStorage_GetAccount_BadID(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1").
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation})

	_, err := s.GetAccount(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStorage_UpdateAccount(t *testing.T) {
	t.Run("applies changes in one transaction", func(t *testing.T) {
		s, mock := newMockStorage(t)
		updated := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs(testAccountID).
			WillReturnRows(accountRow("free", nil))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
			WithArgs(testAccountID, "new@example.com", "Ann Lee", true, "free", nil).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))
		mock.ExpectCommit()

		got, err := s.UpdateAccount(context.Background(), testAccountID, func(a *models.Account) error {
			a.Email = "New@Example.com"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
		require.NotNil(t, got.UpdatedAt)
		assert.Equal(t, updated, *got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutator error rolls back", func(t *testing.T) {
		s, mock := newMockStorage(t)
		errStop := errors.New("stop")

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FOR UPDATE").
			WithArgs(testAccountID).
			WillReturnRows(accountRow("free", nil))
		mock.ExpectRollback()

		_, err := s.UpdateAccount(context.Background(), testAccountID, func(*models.Account) error {
			return errStop
		})
		require.ErrorIs(t, err, errStop)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email taken by another account", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FOR UPDATE").
			WithArgs(testAccountID).
			WillReturnRows(accountRow("free", nil))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		mock.ExpectRollback()

		_, err := s.UpdateAccount(context.Background(), testAccountID, func(a *models.Account) error {
			a.Email = "taken@example.com"
			return nil
		})
		require.ErrorIs(t, err, ErrAccountExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStorage_UpgradeToPro(t *testing.T) {
	updated := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plan       string
		storedRef  any
		expectSave bool
		wantRef    string
		wantSet    bool
	}{
		{
			name:       "free account gets plan and ref",
			plan:       "free",
			storedRef:  nil,
			expectSave: true,
			wantRef:    "pay_1",
			wantSet:    true,
		},
		{
			name:       "pro without ref gets ref",
			plan:       "pro",
			storedRef:  nil,
			expectSave: true,
			wantRef:    "pay_1",
			wantSet:    true,
		},
		{
			name:       "already upgraded is a no-op",
			plan:       "pro",
			storedRef:  "pay_0",
			expectSave: false,
			wantRef:    "pay_0",
			wantSet:    false,
		},
		{
			name:       "free with ref keeps first ref",
			plan:       "free",
			storedRef:  "pay_0",
			expectSave: true,
			wantRef:    "pay_0",
			wantSet:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)

			mock.ExpectBegin()
			mock.ExpectQuery("SELECT (.+) FOR UPDATE").
				WithArgs(testAccountID).
				WillReturnRows(accountRow(tt.plan, tt.storedRef))
			if tt.expectSave {
				mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
					WithArgs(testAccountID, "pro", "pay_1").
					WillReturnRows(sqlmock.NewRows([]string{"subscription_ref", "updated_at"}).
						AddRow(tt.wantRef, updated))
			}
			mock.ExpectCommit()

			got, set, err := s.UpgradeToPro(context.Background(), testAccountID, "pay_1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, set)
			assert.True(t, got.IsPro())
			require.NotNil(t, got.SubscriptionRef)
			assert.Equal(t, tt.wantRef, *got.SubscriptionRef)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_UpgradeToPro_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs(testAccountID).
		WillReturnRows(sqlmock.NewRows(accountCols))
	mock.ExpectRollback()

	_, _, err := s.UpgradeToPro(context.Background(), testAccountID, "pay_1")
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_UpgradeToPro_RefTakenByAnotherAccount(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs(testAccountID).
		WillReturnRows(accountRow("free", nil))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(testAccountID, "pro", "pay_1").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "idx_accounts_subscription_ref",
		})
	mock.ExpectRollback()

	_, set, err := s.UpgradeToPro(context.Background(), testAccountID, "pay_1")
	require.ErrorIs(t, err, ErrPaymentRefTaken)
	assert.NotErrorIs(t, err, ErrAccountExists)
	assert.False(t, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}
