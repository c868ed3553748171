// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Окружения, в которых может работать сервис.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Бэкенды счётчиков ограничения частоты запросов.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"prod"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DATABASE_URL" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	GRPCHealthAddress       string `yaml:"grpc_health_address" env:"GRPC_HEALTH_ADDRESS" env-default:":50051"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Razorpay                `yaml:"razorpay"`
	RateLimit               `yaml:"rate_limit"`
	Social                  `yaml:"social"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	CORSOrigins []string      `yaml:"cors_origins" env:"BACKEND_CORS_ORIGINS" env-separator:","`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэш и redis-счётчики.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"5m"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"AMQP_URL"`
	Exchange   string        `yaml:"exchange" env:"AMQP_EXCHANGE" env-default:"accounts"`
	RoutingKey string        `yaml:"routing_key" env:"AMQP_ROUTING_KEY" env-default:"account.upgraded"`
	Retries    int           `yaml:"retries" env:"AMQP_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"AMQP_RETRY_DELAY" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey    string `yaml:"jwt_secret_key" env:"SECRET_KEY" env-required:"true"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-default:"30"`
}

// TokenTTL возвращает время жизни токена доступа.
func (j JWTToken) TokenTTL() time.Duration {
	return time.Duration(j.TokenTTLMinutes) * time.Minute
}

// Razorpay ключи платёжного провайдера. Mock-режим включается только флагом
// payments_mock и только вне prod.
type Razorpay struct {
	KeyID             string  `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	KeySecret         string  `yaml:"key_secret" env:"RAZORPAY_KEY_SECRET"`
	APIURL            string  `yaml:"api_url" env:"RAZORPAY_API_URL" env-default:"https://api.razorpay.com"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RAZORPAY_RPS" env-default:"5"`
	Mock              bool    `yaml:"payments_mock" env:"PAYMENTS_MOCK" env-default:"false"`
}

// HasCredentials сообщает, заданы ли оба ключа провайдера.
func (r Razorpay) HasCredentials() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

// RateLimit лимиты запросов на маршруты входа и регистрации.
type RateLimit struct {
	Backend       string        `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	LoginLimit    int           `yaml:"login_limit" env:"RATE_LIMIT_LOGIN" env-default:"12"`
	RegisterLimit int           `yaml:"register_limit" env:"RATE_LIMIT_REGISTER" env-default:"6"`
	Window        time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// Social параметры OAuth-приложения соцсети для публикации баннеров.
type Social struct {
	ClientID    string `yaml:"client_id" env:"LINKEDIN_CLIENT_ID" env-default:"mock_client_id"`
	RedirectURI string `yaml:"redirect_uri" env:"LINKEDIN_REDIRECT_URI" env-default:"http://localhost:5173/app/settings"`
}

// MockPayments сообщает, что платежи обрабатываются в синтетическом режиме.
func (c *Config) MockPayments() bool {
	return c.Mock && c.Env != EnvProd
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает .env (если есть), затем YAML из CONFIG_PATH либо переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("file: %s - does not exist", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", c.Env))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("jwt secret key is required"))
	}
	if c.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if (c.KeyID == "") != (c.KeySecret == "") {
		errs = append(errs, errors.New("razorpay key id and secret must be set together"))
	}
	if c.Mock && c.Env == EnvProd {
		errs = append(errs, errors.New("mock payments are not allowed in prod"))
	}
	if !c.Mock && !c.HasCredentials() {
		errs = append(errs, errors.New("razorpay credentials are required unless payments_mock is set"))
	}
	switch c.Backend {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.AddressRedis == "" {
			errs = append(errs, errors.New("redis rate limit backend requires redis address"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit backend %q", c.Backend))
	}
	if c.LoginLimit <= 0 || c.RegisterLimit <= 0 || c.Window <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  CORSOrigins: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Razorpay:\n"+
			"  KeyID: %s\n"+
			"  MockPayments: %t\n"+
			"RateLimit:\n"+
			"  Backend: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		strings.Join(c.CORSOrigins, ","),
		mask(c.JWTSecretKey),
		c.TokenTTL(),
		c.KeyID,
		c.MockPayments(),
		c.Backend,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
