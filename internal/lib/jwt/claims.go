package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess задаёт единственный тип токена, который выпускает сервис.
const TokenTypeAccess = "access"

// CustomClaims описывает данные, хранящиеся в JWT.
type CustomClaims struct {
	TokenType            string `json:"typ"` // Тип токена
	jwt.RegisteredClaims        // sub, iat, exp, iss
}

// GenerateToken создает JWT токен для subject, подписывая его секретным ключом.
//
// Срок действия фиксируется при выпуске: now + tokenTTL.
func (j *MakerImpl) GenerateToken(subject string) (string, time.Time, error) {
	const op = "jwt.GenerateToken"

	// В JWT время хранится с точностью до секунды.
	now := j.now().Truncate(time.Second)
	expiresAt := now.Add(j.tokenTTL)
	claims := CustomClaims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expiresAt, nil
}

// ParseToken парсит JWT токен, проверяет его подпись и срок действия,
// возвращает CustomClaims, если токен корректен. Любая ошибка сводится к ErrInvalidToken.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
