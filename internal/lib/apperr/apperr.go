// Package apperr описывает таксономию ошибок сервиса и их отображение в HTTP-статусы.
package apperr

import (
	"errors"
	"net/http"
)

// Базовые виды ошибок. Сервисы оборачивают их через fmt.Errorf("%w") или New.
var (
	// ErrValidation некорректные или слабые входные данные
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized неверные учётные данные или токен
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict аккаунт с такими данными уже существует
	ErrConflict = errors.New("conflict")
	// ErrRateLimited превышен лимит запросов
	ErrRateLimited = errors.New("rate limited")
	// ErrPaymentRejected платёж не прошёл проверку
	ErrPaymentRejected = errors.New("payment rejected")
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrInternal внутренняя ошибка хранилища или провайдера
	ErrInternal = errors.New("internal error")
)

// Error связывает вид ошибки с сообщением, безопасным для клиента.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// New создаёт ошибку вида kind с клиентским сообщением msg.
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap создаёт ошибку вида kind, сохраняя исходную причину для логов.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap позволяет errors.Is находить и вид ошибки, и причину.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// HTTPStatus возвращает код ответа для ошибки.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrPaymentRejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает текст, который можно показать клиенту.
// Внутренние причины наружу не выходят.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(e.Kind, ErrInternal) {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrRateLimited):
		return "too many requests"
	case errors.Is(err, ErrPaymentRejected):
		return "Payment verification failed"
	case errors.Is(err, ErrNotFound):
		return "not found"
	default:
		return "internal error"
	}
}
