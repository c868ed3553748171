// Package textgen генерирует тексты и фоны для баннеров.
// Реальной модели нет: ответы берутся из готовых шаблонов.
package textgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Виды текста.
const (
	KindHeadline = "headline"
	KindTagline  = "tagline"
)

var taglines = []string{
	"Innovate. Build. Scale.",
	"Designing for the user.",
	"Code that matters.",
	"Turning coffee into code.",
}

var backgrounds = []string{
	"https://images.unsplash.com/photo-1550751827-4bd374c3f58b?auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1557683316-973673baf926?auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1451187580459-43490279c0fa?auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1614850523459-c2f4c699c52e?auto=format&fit=crop&w=1200&q=80",
}

// Stub генератор на шаблонах.
type Stub struct {
	pick  func(n int) int
	delay time.Duration
}

// Option настраивает Stub.
type Option func(*Stub)

// WithPicker задаёт выбор варианта из n.
func WithPicker(pick func(n int) int) Option {
	return func(s *Stub) { s.pick = pick }
}

// WithDelay имитирует время ответа модели.
func WithDelay(d time.Duration) Option {
	return func(s *Stub) { s.delay = d }
}

// NewStub создаёт генератор.
func NewStub(opts ...Option) *Stub {
	s := &Stub{pick: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateText возвращает текст вида kind для профессии или темы subject.
func (s *Stub) GenerateText(ctx context.Context, subject, kind string) (string, error) {
	const op = "textgen.GenerateText"

	if err := s.wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	switch strings.ToLower(kind) {
	case KindHeadline:
		headlines := []string{
			fmt.Sprintf("Transforming Ideas into %s Reality", subject),
			fmt.Sprintf("Passionate %s | Building the Future", subject),
			fmt.Sprintf("Senior %s specializing in Scalable Systems", subject),
			fmt.Sprintf("Helping businesses grow through %s excellence", subject),
		}
		return headlines[s.pick(len(headlines))], nil
	case KindTagline:
		return taglines[s.pick(len(taglines))], nil
	default:
		return "AI generated text for " + subject, nil
	}
}

// GenerateImage возвращает ссылку на фон для баннера.
func (s *Stub) GenerateImage(ctx context.Context, _ string) (string, error) {
	const op = "textgen.GenerateImage"

	if err := s.wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return backgrounds[s.pick(len(backgrounds))], nil
}

func (s *Stub) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
