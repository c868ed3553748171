// Package ratelimit ограничивает частоту запросов по паре (клиент, маршрут)
// методом фиксированного окна.
//
// Окно сбрасывается первым запросом, пришедшим после start + window. До сброса
// каждый запрос увеличивает счётчик и отклоняется, как только счётчик превысил лимит.
// На границе окон допускается всплеск до 2× лимита.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Rule задаёт лимит запросов на окно.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Window описывает состояние счётчика после инкремента.
type Window struct {
	Count int
	Start time.Time
}

// Store хранит счётчики окон. Incr обязан быть атомарным для одного ключа.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error)
}

// Decision содержит результат проверки одного запроса.
// RetryAfter считается по часам Governor и равен ResetAt минус текущее время.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Governor принимает решения по запросам, храня состояние в Store.
type Governor struct {
	store Store
	now   func() time.Time
}

// NewGovernor создаёт Governor. now == nil означает time.Now.
func NewGovernor(store Store, now func() time.Time) *Governor {
	if now == nil {
		now = time.Now
	}
	return &Governor{store: store, now: now}
}

// Allow учитывает запрос клиента clientKey к маршруту route и сообщает, пропускать ли его.
func (g *Governor) Allow(ctx context.Context, clientKey, route string, rule Rule) (Decision, error) {
	const op = "ratelimit.Allow"

	now := g.now()
	w, err := g.store.Incr(ctx, route+":"+clientKey, rule.Window, now)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	remaining := rule.Limit - w.Count
	if remaining < 0 {
		remaining = 0
	}
	resetAt := w.Start.Add(rule.Window)
	return Decision{
		Allowed:    w.Count <= rule.Limit,
		Limit:      rule.Limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}, nil
}
