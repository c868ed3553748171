package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/banner-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	args := m.Called(ctx, token)
	resp, _ := args.Get(0).(*models.Account)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	account := &models.Account{ID: "acc-1", IsActive: true}

	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(m *AuthenticatorMock)
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good",
			setupMock: func(m *AuthenticatorMock) {
				m.On("Authenticate", mock.Anything, "good").Return(account, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:       "lower case scheme",
			authHeader: "bearer good",
			setupMock: func(m *AuthenticatorMock) {
				m.On("Authenticate", mock.Anything, "good").Return(account, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "missing header",
			setupMock:      func(*AuthenticatorMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			setupMock:      func(*AuthenticatorMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "empty token",
			authHeader:     "Bearer   ",
			setupMock:      func(*AuthenticatorMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			setupMock: func(m *AuthenticatorMock) {
				m.On("Authenticate", mock.Anything, "bad").
					Return(nil, apperr.New(apperr.ErrUnauthorized, "Could not validate credentials")).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "store failure",
			authHeader: "Bearer good",
			setupMock: func(m *AuthenticatorMock) {
				m.On("Authenticate", mock.Anything, "good").Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthenticatorMock)
			tt.setupMock(authMock)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := middlewarectx.AccountFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "acc-1", got.ID)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatusCode == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestAccountFromContext_Empty(t *testing.T) {
	_, ok := middlewarectx.AccountFromContext(context.Background())
	assert.False(t, ok)
}
