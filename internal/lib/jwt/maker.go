// Package jwt реализует выпуск и проверку подписанных токенов доступа.
//
// Maker определяет интерфейс для создания и проверки JWT токенов, в subject
// которых лежит идентификатор аккаунта. MakerImpl реализует его на HS256 с
// секретным ключом и временем жизни токена.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken возвращается на любую ошибку проверки токена: неверная
// подпись, повреждённая структура или истёкший срок неразличимы для вызывающего.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrEmptySecret возвращается NewJWTMaker, если ключ подписи не задан.
var ErrEmptySecret = errors.New("jwt secret key is empty")

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для subject и возвращает момент его истечения.
	GenerateToken(subject string) (string, time.Time, error)
	// ParseToken возвращает *CustomClaims, если токен валиден.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	issuer    string           // Значение claim iss.
	now       func() time.Time // Часы, подменяются в тестах.
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) { m.now = now }
}

// WithIssuer задаёт claim iss.
func WithIssuer(issuer string) Option {
	return func(m *MakerImpl) { m.issuer = issuer }
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) (*MakerImpl, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		issuer:    "banner-generator",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
