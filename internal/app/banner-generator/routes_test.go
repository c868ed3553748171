package bannergenerator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/banner-generator/internal/config"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/social"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/textgen"
	"github.com/magabrotheeeer/banner-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/banner-generator/internal/metrics"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/paymentprovider"
	"github.com/magabrotheeeer/banner-generator/internal/ratelimit"
	"github.com/magabrotheeeer/banner-generator/internal/services/auth"
	"github.com/magabrotheeeer/banner-generator/internal/services/payment"
	"github.com/magabrotheeeer/banner-generator/internal/services/user"
	"github.com/magabrotheeeer/banner-generator/internal/storage/repository"
)

const testSecret = "rzp_test_secret"

// memoryAccounts хранилище аккаунтов в памяти с той же семантикой ошибок, что и PostgreSQL.
type memoryAccounts struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]models.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[string]models.Account)}
}

func (s *memoryAccounts) InsertAccount(_ context.Context, a models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Email = models.NormalizeEmail(a.Email)
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return nil, repository.ErrAccountExists
		}
	}
	s.seq++
	a.ID = fmt.Sprintf("acc-%d", s.seq)
	a.CreatedAt = time.Now()
	s.accounts[a.ID] = a
	return &a, nil
}

func (s *memoryAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = models.NormalizeEmail(email)
	for _, a := range s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (s *memoryAccounts) GetAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &a, nil
}

func (s *memoryAccounts) UpdateAccount(_ context.Context, id string, fn func(a *models.Account) error) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	a.Email = models.NormalizeEmail(a.Email)
	for otherID, other := range s.accounts {
		if otherID != id && other.Email == a.Email {
			return nil, repository.ErrAccountExists
		}
	}
	now := time.Now()
	a.UpdatedAt = &now
	s.accounts[id] = a
	return &a, nil
}

func (s *memoryAccounts) UpgradeToPro(_ context.Context, id, ref string) (*models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, false, repository.ErrAccountNotFound
	}
	if a.IsPro() && a.SubscriptionRef != nil {
		return &a, false, nil
	}
	refSet := a.SubscriptionRef == nil
	if refSet {
		for otherID, other := range s.accounts {
			if otherID != id && other.SubscriptionRef != nil && *other.SubscriptionRef == ref {
				return nil, false, repository.ErrPaymentRefTaken
			}
		}
		a.SubscriptionRef = &ref
	}
	a.Plan = models.PlanPro
	s.accounts[id] = a
	return &a, refSet, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, message)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testApp struct {
	router    http.Handler
	accounts  *memoryAccounts
	publisher *recordingPublisher
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithMode(t, false)
}

func newTestAppWithMode(t *testing.T, mockPayments bool) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := newMemoryAccounts()
	publisher := &recordingPublisher{}
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	maker, err := jwt.NewJWTMaker("test-jwt-secret", 30*time.Minute)
	require.NoError(t, err)

	provider := paymentprovider.NewClient(config.Razorpay{KeyID: "rzp_test_key", KeySecret: testSecret})

	router := NewRouter(logger, Dependencies{
		Auth:          auth.New(logger, accounts, maker, m),
		Users:         user.New(logger, accounts),
		Payments:      payment.New(logger, provider, accounts, publisher, m, mockPayments),
		Generator:     textgen.NewStub(),
		Social:        social.NewClient(config.Social{ClientID: "cid"}),
		Limiter:       ratelimit.NewGovernor(ratelimit.NewMemoryStore(), nil),
		Metrics:       m,
		Gatherer:      registry,
		DB:            pingOK{},
		LoginRule:     ratelimit.Rule{Limit: 12, Window: time.Minute},
		RegisterRule:  ratelimit.Rule{Limit: 6, Window: time.Minute},
		RazorpayKeyID: "rzp_test_key",
		CORSOrigins:   []string{"http://localhost:5173"},
	})

	return &testApp{router: router, accounts: accounts, publisher: publisher}
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func (a *testApp) do(t *testing.T, method, path, token, contentType, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var got map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	}
	return rec, got
}

func (a *testApp) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"full_name":"Alice"}`, email, password)
	rec, _ := a.do(t, http.MethodPost, "/api/v1/auth/register", "", "application/json", body)
	return rec
}

func (a *testApp) login(t *testing.T, email, password string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	return a.do(t, http.MethodPost, "/api/v1/auth/login", "", "application/x-www-form-urlencoded", form.Encode())
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data: %v", body)
	return d
}

func TestScenario_RegisterLoginUpgrade(t *testing.T) {
	app := newTestApp(t)

	rec := app.register(t, "alice@x.com", "Passw0rd!")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body := app.login(t, "alice@x.com", "Passw0rd!")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "bearer", body["token_type"])
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	rec, body = app.do(t, http.MethodGet, "/api/v1/users/me", token, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := data(t, body)
	assert.Equal(t, "free", me["plan"])
	assert.Nil(t, me["subscription_ref"])

	cb := fmt.Sprintf(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":%q}`,
		paymentprovider.Sign(testSecret, "order_1", "pay_1"))

	rec, body = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", cb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := data(t, body)
	account, _ := first["account"].(map[string]any)
	assert.Equal(t, "pro", account["plan"])
	assert.Equal(t, "pay_1", account["subscription_ref"])

	// повтор того же платежа
	rec, body = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", cb)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first["message"], data(t, body)["message"])

	stored, err := app.accounts.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, stored.Plan)
	require.NotNil(t, stored.SubscriptionRef)
	assert.Equal(t, "pay_1", *stored.SubscriptionRef)
	assert.Equal(t, 1, app.publisher.count())

	// другой платёж не меняет subscription_ref
	other := fmt.Sprintf(`{"razorpay_order_id":"order_2","razorpay_payment_id":"pay_2","razorpay_signature":%q}`,
		paymentprovider.Sign(testSecret, "order_2", "pay_2"))
	rec, _ = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", other)
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err = app.accounts.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", *stored.SubscriptionRef)
	assert.Equal(t, 1, app.publisher.count())

	rec, _ = app.do(t, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payment_verifications_total{outcome="upgraded"} 1`)
	assert.Contains(t, rec.Body.String(), `payment_verifications_total{outcome="replayed"} 2`)
}

func TestScenario_TamperedSignatureRejected(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.register(t, "bob@x.com", "Passw0rd!").Code)
	_, body := app.login(t, "bob@x.com", "Passw0rd!")
	token, _ := body["access_token"].(string)

	sig := paymentprovider.Sign(testSecret, "order_1", "pay_1")
	tampered := fmt.Sprintf(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_9","razorpay_signature":%q}`, sig)

	rec, body := app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", tampered)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Payment verification failed", body["error"])

	missing := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1"}`
	rec, _ = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", missing)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// без mock-режима синтетический платёж не принимается
	mockPay := `{"razorpay_order_id":"order_mock_12345","razorpay_payment_id":"pay_mock_1","razorpay_signature":"x"}`
	rec, _ = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", mockPay)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := app.accounts.FindByEmail(context.Background(), "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, stored.Plan)
	assert.Nil(t, stored.SubscriptionRef)
	assert.Equal(t, 0, app.publisher.count())
}

func TestScenario_SignedPaymentUpgradesOnlyOneAccount(t *testing.T) {
	app := newTestApp(t)

	cb := fmt.Sprintf(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":%q}`,
		paymentprovider.Sign(testSecret, "order_1", "pay_1"))

	users := []string{"alice@x.com", "mallory@x.com", "eve@x.com"}
	tokens := make(map[string]string, len(users))
	for _, email := range users {
		require.Equal(t, http.StatusOK, app.register(t, email, "Passw0rd!").Code)
		_, body := app.login(t, email, "Passw0rd!")
		tokens[email], _ = body["access_token"].(string)
		require.NotEmpty(t, tokens[email])
	}

	rec, _ := app.do(t, http.MethodPost, "/api/v1/payment/verify", tokens["alice@x.com"], "application/json", cb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, email := range users[1:] {
		rec, body := app.do(t, http.MethodPost, "/api/v1/payment/verify", tokens[email], "application/json", cb)
		assert.Equal(t, http.StatusBadRequest, rec.Code, email)
		assert.Equal(t, "Payment verification failed", body["error"])

		stored, err := app.accounts.FindByEmail(context.Background(), email)
		require.NoError(t, err)
		assert.Equal(t, models.PlanFree, stored.Plan, email)
		assert.Nil(t, stored.SubscriptionRef, email)
	}

	// владелец платежа по-прежнему может повторить проверку
	rec, _ = app.do(t, http.MethodPost, "/api/v1/payment/verify", tokens["alice@x.com"], "application/json", cb)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, app.publisher.count())
}

func TestScenario_LoginFailuresLookAlike(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.register(t, "carol@x.com", "Passw0rd!").Code)

	recWrong, wrong := app.login(t, "carol@x.com", "Passw0rd?")
	recUnknown, unknown := app.login(t, "nobody@x.com", "Passw0rd!")

	assert.Equal(t, http.StatusBadRequest, recWrong.Code)
	assert.Equal(t, http.StatusBadRequest, recUnknown.Code)
	assert.Equal(t, wrong, unknown)
	assert.Equal(t, "Incorrect email or password", wrong["error"])

	// деактивированный аккаунт получает тот же ответ
	_, err := app.accounts.UpdateAccount(context.Background(), "acc-1", func(a *models.Account) error {
		a.IsActive = false
		return nil
	})
	require.NoError(t, err)
	recInactive, inactive := app.login(t, "carol@x.com", "Passw0rd!")
	assert.Equal(t, http.StatusBadRequest, recInactive.Code)
	assert.Equal(t, unknown, inactive)
}

func TestScenario_DuplicateEmailCaseInsensitive(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.register(t, "dave@x.com", "Passw0rd!").Code)

	rec, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", "application/json",
		`{"email":"DAVE@X.COM","password":"Other1pass","full_name":"Imposter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", body["error"])

	stored, err := app.accounts.FindByEmail(context.Background(), "dave@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.FullName)
}

func TestScenario_WeakPasswordRejected(t *testing.T) {
	app := newTestApp(t)
	rec := app.register(t, "erin@x.com", "password")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_RegisterRateLimited(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 6; i++ {
		rec := app.register(t, fmt.Sprintf("user%d@x.com", i), "Passw0rd!")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := app.register(t, "user7@x.com", "Passw0rd!")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// лимит входа считается отдельно
	rec, _ = app.login(t, "user0@x.com", "Passw0rd!")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScenario_ProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/payment/create-order"},
		{http.MethodPost, "/api/v1/payment/verify"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec, _ := app.do(t, rt.method, rt.path, "", "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec, _ = app.do(t, rt.method, rt.path, "not-a-jwt", "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestScenario_ProfileUpdateAndSocialLink(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.register(t, "frank@x.com", "Passw0rd!").Code)
	_, body := app.login(t, "frank@x.com", "Passw0rd!")
	token, _ := body["access_token"].(string)

	rec, body := app.do(t, http.MethodPut, "/api/v1/users/me", token, "application/json", `{"full_name":"Frank Ocean"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Frank Ocean", data(t, body)["full_name"])
	assert.Equal(t, "frank@x.com", data(t, body)["email"])

	rec, body = app.do(t, http.MethodPost, "/api/v1/social/publish", token, "application/json", `{"text":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LinkedIn not connected", body["error"])

	rec, _ = app.do(t, http.MethodGet, "/api/v1/social/callback?code=xyz", token, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := app.accounts.FindByEmail(context.Background(), "frank@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.SocialToken)
	assert.Equal(t, "mock_linkedin_token_xyz", *stored.SocialToken)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/social/publish", token, "application/json", `{"text":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_HealthAndCORS(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.do(t, http.MethodGet, "/api/v1/health", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestScenario_MockPayments(t *testing.T) {
	app := newTestAppWithMode(t, true)
	require.Equal(t, http.StatusOK, app.register(t, "gina@x.com", "Passw0rd!").Code)
	_, body := app.login(t, "gina@x.com", "Passw0rd!")
	token, _ := body["access_token"].(string)

	rec, body := app.do(t, http.MethodPost, "/api/v1/payment/create-order", token, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	order := data(t, body)
	assert.Equal(t, "order_mock_12345", order["order_id"])
	assert.Equal(t, float64(payment.ProPlanAmount), order["amount"])
	assert.Equal(t, true, order["mock"])

	mockPay := `{"razorpay_order_id":"order_mock_12345","razorpay_payment_id":"pay_mock_1"}`
	rec, body = app.do(t, http.MethodPost, "/api/v1/payment/verify", token, "application/json", mockPay)
	require.Equal(t, http.StatusOK, rec.Code)
	account, _ := data(t, body)["account"].(map[string]any)
	assert.Equal(t, true, account["is_pro"])
	assert.Equal(t, "pay_mock_1", account["subscription_ref"])
}
