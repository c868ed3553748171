package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type memWindow struct {
	count  int
	start  time.Time
	length time.Duration
}

// MemoryStore хранит окна в памяти процесса. Подходит для одного инстанса.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memWindow
}

// NewMemoryStore создаёт пустое хранилище окон.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*memWindow)}
}

// Incr увеличивает счётчик окна key, при необходимости открывая новое окно.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(w.length)) {
		w = &memWindow{start: now, length: window}
		s.windows[key] = w
	}
	w.count++

	return Window{Count: w.count, Start: w.start}, nil
}

// Sweep удаляет истёкшие окна и возвращает их количество.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.start.Add(w.length)) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len возвращает число живых окон.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartSweeper запускает периодическую очистку окон по cron-расписанию spec.
// Остановить можно через возвращённый *cron.Cron.
func StartSweeper(log *slog.Logger, store *MemoryStore, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := store.Sweep(time.Now()); n > 0 {
			log.Debug("rate limit windows swept", slog.Int("removed", n))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
