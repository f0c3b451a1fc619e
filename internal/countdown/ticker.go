package countdown

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultInterval is how often a Ticker recomputes projections.
const DefaultInterval = time.Second

var ErrRunning = errors.New("countdown ticker already running")

// Provider supplies the projector input for the day containing now.
type Provider interface {
	CountdownDay(ctx context.Context, slug string, now time.Time) (Day, error)
}

// Publisher delivers a projection for one mosque.
type Publisher interface {
	Publish(ctx context.Context, slug string, p Projection) error
}

// Ticker periodically projects every configured mosque and publishes the result.
type Ticker struct {
	provider  Provider
	publisher Publisher
	slugs     []string
	interval  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	// failing remembers which mosques last failed so errors are logged once.
	failing map[string]bool
}

func NewTicker(provider Provider, publisher Publisher, slugs []string, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{
		provider:  provider,
		publisher: publisher,
		slugs:     append([]string(nil), slugs...),
		interval:  interval,
		now:       time.Now,
		failing:   make(map[string]bool),
	}
}

// Start launches the tick loop. It stops when Stop is called or ctx ends.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel, t.done = cancel, done

	go func() {
		defer close(done)
		defer t.release(done)
		tick := time.NewTicker(t.interval)
		defer tick.Stop()

		t.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				t.Tick(ctx)
			}
		}
	}()
	log.Info().Int("mosques", len(t.slugs)).Dur("interval", t.interval).Msg("countdown ticker started")
	return nil
}

// Stop cancels the loop and waits for it to exit. Safe to call more than once.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("countdown ticker stopped")
}

// release forgets a loop that ended on its own so Running and Start see it stopped.
func (t *Ticker) release(done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == done {
		t.cancel()
		t.cancel, t.done = nil, nil
	}
}

// Running reports whether the loop is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Tick projects and publishes every mosque once.
func (t *Ticker) Tick(ctx context.Context) {
	now := t.now()
	for _, slug := range t.slugs {
		if ctx.Err() != nil {
			return
		}
		err := t.tickOne(ctx, slug, now)
		t.report(slug, err)
	}
}

func (t *Ticker) tickOne(ctx context.Context, slug string, now time.Time) error {
	day, err := t.provider.CountdownDay(ctx, slug, now)
	if err != nil {
		return err
	}
	return t.publisher.Publish(ctx, slug, Project(day, now))
}

func (t *Ticker) report(slug string, err error) {
	t.mu.Lock()
	was := t.failing[slug]
	t.failing[slug] = err != nil
	t.mu.Unlock()

	switch {
	case err != nil && !was:
		log.Error().Err(err).Str("slug", slug).Msg("countdown tick failed")
	case err == nil && was:
		log.Info().Str("slug", slug).Msg("countdown tick recovered")
	}
}
