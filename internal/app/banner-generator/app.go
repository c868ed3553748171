package bannergenerator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/banner-generator/internal/cache"
	"github.com/magabrotheeeer/banner-generator/internal/config"
	"github.com/magabrotheeeer/banner-generator/internal/grpc/server"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/social"
	"github.com/magabrotheeeer/banner-generator/internal/integrations/textgen"
	"github.com/magabrotheeeer/banner-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/banner-generator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/metrics"
	"github.com/magabrotheeeer/banner-generator/internal/migrations"
	"github.com/magabrotheeeer/banner-generator/internal/models"
	"github.com/magabrotheeeer/banner-generator/internal/paymentprovider"
	"github.com/magabrotheeeer/banner-generator/internal/ratelimit"
	"github.com/magabrotheeeer/banner-generator/internal/services/auth"
	"github.com/magabrotheeeer/banner-generator/internal/services/payment"
	"github.com/magabrotheeeer/banner-generator/internal/services/user"
	"github.com/magabrotheeeer/banner-generator/internal/storage/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	sweepSchedule       = "@every 1m"
	healthCheckInterval = 10 * time.Second
)

// AccountStore хранилище аккаунтов со всеми операциями, нужными сервисам.
type AccountStore interface {
	InsertAccount(ctx context.Context, account models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, fn func(a *models.Account) error) (*models.Account, error)
	UpgradeToPro(ctx context.Context, id, ref string) (*models.Account, bool, error)
}

type eventPublisher interface {
	payment.EventPublisher
	io.Closer
}

// App HTTP-сервер и gRPC health-сервер со всеми зависимостями.
type App struct {
	server    *http.Server
	health    *server.HealthServer
	healthLis net.Listener
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	publisher eventPublisher
	sweeper   *cron.Cron
}

// New подключает хранилища, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var accounts AccountStore = db
	if cfg.AddressRedis != "" {
		a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		accounts = repository.NewCachedAccounts(logger, db, a.cache, cfg.CacheTTL)
	}

	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case config.RateLimitRedis:
		store = ratelimit.NewRedisStore(a.cache.Db)
	default:
		mem := ratelimit.NewMemoryStore()
		if a.sweeper, err = ratelimit.StartSweeper(logger, mem, sweepSchedule); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		store = mem
	}

	a.publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.Exchange, cfg.RoutingKey, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.publisher = publisher
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	jwtMaker, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var provider payment.Provider
	if cfg.MockPayments() {
		logger.Warn("mock payments enabled, signatures are not checked for pay_mock ids")
	} else {
		provider = paymentprovider.NewClient(cfg.Razorpay)
	}

	a.server = &http.Server{
		Addr: cfg.AddressHTTP,
		Handler: NewRouter(logger, Dependencies{
			Auth:          auth.New(logger, accounts, jwtMaker, m),
			Users:         user.New(logger, accounts),
			Payments:      payment.New(logger, provider, accounts, a.publisher, m, cfg.MockPayments()),
			Generator:     textgen.NewStub(),
			Social:        social.NewClient(cfg.Social),
			Limiter:       ratelimit.NewGovernor(store, nil),
			Metrics:       m,
			Gatherer:      registry,
			DB:            db,
			LoginRule:     ratelimit.Rule{Limit: cfg.LoginLimit, Window: cfg.Window},
			RegisterRule:  ratelimit.Rule{Limit: cfg.RegisterLimit, Window: cfg.Window},
			RazorpayKeyID: cfg.KeyID,
			CORSOrigins:   cfg.CORSOrigins,
		}),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	a.healthLis, err = net.Listen("tcp", cfg.GRPCHealthAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.health = server.NewHealthServer(logger, db, healthCheckInterval)

	ok = true
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает серверы.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()
	go func() {
		if err := a.health.Serve(ctx, a.healthLis); err != nil {
			errCh <- fmt.Errorf("grpc health: %w", err)
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	cancel()
	timeoutCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) close() {
	if a.sweeper != nil {
		<-a.sweeper.Stop().Done()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
