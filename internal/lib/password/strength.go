package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Границы длины пароля в кодовых точках.
const (
	MinLength = 8
	MaxLength = 128
)

// StrengthError перечисляет все невыполненные правила стойкости пароля.
type StrengthError struct {
	Rules []string
}

func (e *StrengthError) Error() string {
	return "password " + strings.Join(e.Rules, ", ")
}

// ValidateStrength проверяет пароль при регистрации. При входе не вызывается.
func ValidateStrength(password string) error {
	var rules []string

	n := utf8.RuneCountInString(password)
	if n < MinLength {
		rules = append(rules, "must be at least 8 characters")
	}
	if n > MaxLength {
		rules = append(rules, "must be at most 128 characters")
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower {
		rules = append(rules, "must include a lowercase letter")
	}
	if !upper {
		rules = append(rules, "must include an uppercase letter")
	}
	if !digit {
		rules = append(rules, "must include a number")
	}

	if len(rules) > 0 {
		return &StrengthError{Rules: rules}
	}
	return nil
}
