// Package models содержит доменную модель аккаунта и платёжных объектов.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Ограничения на длину имени после нормализации.
const (
	MinFullNameLength = 2
	MaxFullNameLength = 120
)

// Plan обозначает тарифный план аккаунта.
type Plan string

// Допустимые значения Plan.
const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Account представляет зарегистрированный аккаунт.
type Account struct {
	ID              string     `json:"id"`               // Уникальный идентификатор, неизменяем
	Email           string     `json:"email"`            // Нормализованная почта, уникальна
	FullName        string     `json:"full_name"`        // Отображаемое имя
	PasswordHash    string     `json:"-"`                // Хэш пароля, наружу не отдаётся
	IsActive        bool       `json:"is_active"`        // Неактивный аккаунт не может войти
	Plan            Plan       `json:"plan"`             // free или pro
	SubscriptionRef *string    `json:"subscription_ref"` // ID платежа, выставляется один раз
	SocialToken     *string    `json:"-"`                // Токен соцсети после обмена кода
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// IsPro сообщает, оплачен ли pro-план.
func (a *Account) IsPro() bool {
	return a.Plan == PlanPro
}

// NormalizeFullName убирает пробелы по краям имени.
func NormalizeFullName(name string) string {
	return strings.TrimSpace(name)
}

// ValidFullName сообщает, укладывается ли нормализованное имя в допустимую длину.
func ValidFullName(name string) bool {
	n := utf8.RuneCountInString(NormalizeFullName(name))
	return n >= MinFullNameLength && n <= MaxFullNameLength
}

// NormalizeEmail приводит почту к каноническому виду: без пробелов по краям, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
