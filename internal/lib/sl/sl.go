// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога,
// например, для передачи информации об ошибках или маскирования секретов.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Redact возвращает атрибут, в котором от значения остаются только первые
// четыре символа. Используется для подписей платежей и токенов.
func Redact(key, value string) slog.Attr {
	const visible = 4
	if len(value) <= visible {
		return slog.String(key, "****")
	}
	return slog.String(key, value[:visible]+"****")
}
