// Package password реализует функции для безопасного хеширования и проверки паролей.
//
// GetHash создает argon2id-хеш пароля в PHC-формате со случайной солью.
// Compare сверяет пароль с сохранённым хешем за постоянное время. Старые
// bcrypt-хеши, оставшиеся от прежнего формата хранения, тоже проверяются.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Params описывает параметры argon2id.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams задаёт параметры, с которыми создаются новые хеши.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Верхние границы параметров, принимаемых из сохранённого хеша.
const (
	maxMemory  = 256 * 1024
	maxTime    = 10
	maxKeyLen  = 128
	maxSaltLen = 64
)

var errMalformedHash = errors.New("malformed hash")

// dummyHash используется DummyCompare, чтобы путь "пользователь не найден"
// стоил столько же, сколько проверка неверного пароля.
var dummyHash = mustHash("dummy-Passw0rd")

// GetHash принимает пароль пользователя и возвращает его argon2id‑хэш.
//
// Используется для безопасного хранения паролей в базе данных.
func GetHash(password string) (string, error) {
	return GetHashWithParams(password, DefaultParams)
}

// GetHashWithParams то же, что GetHash, но с явными параметрами.
func GetHashWithParams(password string, p Params) (string, error) {
	const op = "password.GetHash"

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare сравнивает сохранённый хэш с введённым паролем.
//
// Возвращает false для несовпадения и для любого повреждённого хэша.
func Compare(encodedHash, password string) bool {
	if isBcrypt(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}

	p, salt, key, err := decode(encodedHash)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(key, other) == 1
}

// DummyCompare выполняет холостую проверку пароля.
func DummyCompare(password string) {
	_ = Compare(dummyHash, password)
}

func isBcrypt(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}

func decode(encodedHash string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if p.Memory == 0 || p.Memory > maxMemory || p.Time == 0 || p.Time > maxTime || p.Threads == 0 {
		return p, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxSaltLen {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLen {
		return p, nil, nil, errMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}

func mustHash(password string) string {
	h, err := GetHash(password)
	if err != nil {
		panic(err)
	}
	return h
}
