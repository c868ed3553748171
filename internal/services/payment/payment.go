// Package payment создаёт заказы у платёжного провайдера и проверяет оплату,
// переводя аккаунт на pro-план.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/magabrotheeeer/banner-generator/internal/lib/apperr"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/metrics"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/paymentprovider"
	"github.com/magabrotheeeer/banner-generator/internal/storage/repository"
)

// Параметры заказа на pro-план.
const (
	ProPlanAmount   int64 = 99900
	ProPlanCurrency       = "INR"

	// MockPaymentPrefix префикс синтетических платежей, принимаемых только в mock-режиме.
	MockPaymentPrefix = "pay_mock"
	mockOrderStart    = 12345
)

var (
	// ErrPaymentRejected подпись или данные платежа не прошли проверку.
	ErrPaymentRejected = apperr.New(apperr.ErrPaymentRejected, "Payment verification failed")
	// ErrOrderFailed провайдер не создал заказ.
	ErrOrderFailed = errors.New("failed to create order")
)

// Provider API платёжного провайдера.
type Provider interface {
	CreateOrder(ctx context.Context, req paymentprovider.CreateOrderRequest) (*models.PaymentOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// AccountUpgrader переводит аккаунт на pro-план.
type AccountUpgrader interface {
	UpgradeToPro(ctx context.Context, id, ref string) (*models.Account, bool, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, message any) error
}

// Metrics учитывает заказы и исходы проверок.
type Metrics interface {
	OrderCreated(mock bool)
	Verification(outcome string)
}

// Service проверяет оплату pro-плана.
type Service struct {
	log       *slog.Logger
	provider  Provider
	accounts  AccountUpgrader
	publisher EventPublisher
	metrics   Metrics
	mock      bool
	mockSeq   atomic.Int64
}

// New создаёт сервис. При mock == true заказы синтетические, а платежи с
// префиксом MockPaymentPrefix принимаются без подписи; provider может быть nil.
func New(log *slog.Logger, provider Provider, accounts AccountUpgrader, publisher EventPublisher, m Metrics, mock bool) *Service {
	s := &Service{
		log:       log,
		provider:  provider,
		accounts:  accounts,
		publisher: publisher,
		metrics:   m,
		mock:      mock,
	}
	s.mockSeq.Store(mockOrderStart - 1)
	return s
}

// MockMode сообщает, работает ли сервис без провайдера.
func (s *Service) MockMode() bool {
	return s.mock
}

// Receipt строит идентификатор чека для аккаунта (не длиннее 40 символов).
func Receipt(accountID string) string {
	return "receipt_" + strings.ReplaceAll(accountID, "-", "")
}

// CreateOrder создаёт заказ на pro-план для аккаунта.
func (s *Service) CreateOrder(ctx context.Context, account *models.Account) (*models.PaymentOrder, error) {
	const op = "payment.CreateOrder"
	log := s.log.With(slog.String("op", op), slog.String("account_id", account.ID))

	if s.mock {
		order := &models.PaymentOrder{
			ID:       fmt.Sprintf("order_mock_%d", s.mockSeq.Add(1)),
			Amount:   ProPlanAmount,
			Currency: ProPlanCurrency,
			Receipt:  Receipt(account.ID),
			Status:   "created",
			Mock:     true,
		}
		s.metrics.OrderCreated(true)
		log.Info("mock order created", slog.String("order_id", order.ID))
		return order, nil
	}

	order, err := s.provider.CreateOrder(ctx, paymentprovider.CreateOrderRequest{
		Amount:   ProPlanAmount,
		Currency: ProPlanCurrency,
		Receipt:  Receipt(account.ID),
		Notes:    map[string]string{"account_id": account.ID},
	})
	if err != nil {
		log.Error("provider failed to create order", sl.Err(err))
		return nil, apperr.Wrap(apperr.ErrInternal, ErrOrderFailed.Error(), fmt.Errorf("%s: %w", op, err))
	}

	s.metrics.OrderCreated(false)
	log.Info("order created", slog.String("order_id", order.ID))
	return order, nil
}

// Verify проверяет оплату и переводит аккаунт на pro. Повторная проверка того же
// платежа ничего не меняет и возвращает тот же успешный результат. Платёж,
// уже записанный на другой аккаунт, отклоняется.
func (s *Service) Verify(ctx context.Context, account *models.Account, cb models.PaymentCallback) (*models.Account, error) {
	const op = "payment.Verify"
	log := s.log.With(
		slog.String("op", op),
		slog.String("account_id", account.ID),
		slog.String("order_id", cb.OrderID),
		slog.String("payment_id", cb.PaymentID),
		sl.Redact("signature", cb.Signature),
	)

	mockPayment := s.mock && strings.HasPrefix(cb.PaymentID, MockPaymentPrefix)
	if !mockPayment {
		if err := s.checkSignature(cb); err != nil {
			s.metrics.Verification(metrics.OutcomeRejected)
			log.Warn("payment rejected", sl.Err(err))
			return nil, ErrPaymentRejected
		}
	}

	upgraded, refSet, err := s.accounts.UpgradeToPro(ctx, account.ID, cb.PaymentID)
	if errors.Is(err, repository.ErrPaymentRefTaken) {
		s.metrics.Verification(metrics.OutcomeRejected)
		log.Warn("payment already applied to another account")
		return nil, ErrPaymentRejected
	}
	if err != nil {
		s.metrics.Verification(metrics.OutcomeFailed)
		log.Error("failed to upgrade account", sl.Err(err))
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrPaymentRejected
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !refSet {
		s.metrics.Verification(metrics.OutcomeReplayed)
		log.Info("payment already applied")
		return upgraded, nil
	}

	s.metrics.Verification(metrics.OutcomeUpgraded)
	log.Info("account upgraded to pro", slog.Bool("mock", mockPayment))

	event := models.AccountUpgradedEvent{
		AccountID: upgraded.ID,
		Email:     upgraded.Email,
		PaymentID: cb.PaymentID,
		OrderID:   cb.OrderID,
		Mock:      mockPayment,
	}
	if err = s.publisher.Publish(ctx, event); err != nil {
		log.Error("failed to publish account upgraded event", sl.Err(err))
	}
	return upgraded, nil
}

func (s *Service) checkSignature(cb models.PaymentCallback) error {
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return errors.New("missing payment fields")
	}
	if s.provider == nil {
		return errors.New("payment provider is not configured")
	}
	if !s.provider.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature) {
		return errors.New("signature mismatch")
	}
	return nil
}
