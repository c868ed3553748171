package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// AccountCache хранилище снимков аккаунтов с поколениями ключей.
type AccountCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	SetIfGeneration(ctx context.Context, key string, gen int64, value any, expiration time.Duration) (bool, error)
	Bump(ctx context.Context, key string) error
}

// CachedAccounts кэширует GetAccount поверх Storage и сбрасывает запись при любом изменении.
// В снимок не попадают хэш пароля и токен соцсети, поэтому из кэша обслуживается
// только GetAccount, а аккаунты с привязанной соцсетью всегда читаются из базы.
// Снимок, прочитанный до изменения аккаунта, в кэш не записывается: каждое
// изменение увеличивает поколение ключа. Ошибки кэша не прерывают запрос.
type CachedAccounts struct {
	*Storage
	cache AccountCache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedAccounts создаёт кэширующую обёртку над хранилищем.
func NewCachedAccounts(log *slog.Logger, storage *Storage, cache AccountCache, ttl time.Duration) *CachedAccounts {
	return &CachedAccounts{
		Storage: storage,
		cache:   cache,
		ttl:     ttl,
		log:     log,
	}
}

// accountSnapshot то, что лежит в кэше. Секретные поля Account помечены json:"-".
type accountSnapshot struct {
	models.Account
	SocialLinked bool `json:"social_linked"`
}

func accountKey(id string) string {
	return "account:" + id
}

// GetAccount возвращает аккаунт из кэша, при промахе читает базу и заполняет кэш.
func (c *CachedAccounts) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.CachedAccounts.GetAccount"
	log := c.log.With(slog.String("op", op))

	var cached accountSnapshot
	found, err := c.cache.Get(ctx, accountKey(id), &cached)
	if err != nil {
		log.Warn("cache read failed", sl.Err(err))
	}
	if found && !cached.SocialLinked {
		return &cached.Account, nil
	}

	// поколение читается до базы
	gen, genErr := c.cache.Generation(ctx, accountKey(id))
	if genErr != nil {
		log.Warn("cache generation read failed", sl.Err(genErr))
	}

	a, err := c.Storage.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return a, nil
	}
	snap := accountSnapshot{Account: *a, SocialLinked: a.SocialToken != nil && *a.SocialToken != ""}
	stored, err := c.cache.SetIfGeneration(ctx, accountKey(id), gen, snap, c.ttl)
	if err != nil {
		log.Warn("cache write failed", sl.Err(err))
	} else if !stored {
		log.Debug("stale snapshot skipped", slog.String("account_id", id))
	}
	return a, nil
}

// UpdateAccount обновляет аккаунт и сбрасывает его снимок.
func (c *CachedAccounts) UpdateAccount(ctx context.Context, id string, fn func(a *models.Account) error) (*models.Account, error) {
	a, err := c.Storage.UpdateAccount(ctx, id, fn)
	c.invalidate(ctx, id)
	return a, err
}

// UpgradeToPro переводит аккаунт на pro и сбрасывает его снимок.
func (c *CachedAccounts) UpgradeToPro(ctx context.Context, id, ref string) (*models.Account, bool, error) {
	a, set, err := c.Storage.UpgradeToPro(ctx, id, ref)
	c.invalidate(ctx, id)
	return a, set, err
}

func (c *CachedAccounts) invalidate(ctx context.Context, id string) {
	if err := c.cache.Bump(ctx, accountKey(id)); err != nil {
		c.log.Warn("cache invalidate failed", slog.String("account_id", id), sl.Err(err))
	}
}
