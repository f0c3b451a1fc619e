// Package scheduler runs the periodic maintenance jobs: cache sweeps and
// DST table reloads.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
	"github.com/Nixie-Tech-LLC/iqamah/internal/dst"
)

type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))}
}

// AddSweep drops expired entries from every cache on spec.
func (s *Scheduler) AddSweep(spec string, caches []cache.Managed) error {
	_, err := s.cron.AddFunc(spec, func() { SweepAll(caches) })
	if err != nil {
		return fmt.Errorf("schedule cache sweep %q: %w", spec, err)
	}
	return nil
}

// AddDSTReload re-reads the DST table at path on spec and swaps it into
// resolver. A bad file keeps the current table.
func (s *Scheduler) AddDSTReload(spec, path string, resolver *dst.Resolver) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := ReloadDST(path, resolver); err != nil {
			log.Error().Err(err).Str("path", path).Msg("dst table reload failed, keeping current table")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dst reload %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	log.Info().Msg("scheduler stopped")
}

func SweepAll(caches []cache.Managed) int {
	removed := 0
	for _, c := range caches {
		n := c.Sweep()
		removed += n
		if n > 0 {
			log.Debug().Str("cache", c.Name()).Int("removed", n).Msg("cache swept")
		}
	}
	return removed
}

func ReloadDST(path string, resolver *dst.Resolver) error {
	fresh, err := dst.LoadFile(path)
	if err != nil {
		return err
	}
	resolver.Replace(fresh)
	log.Info().Str("path", path).Msg("dst table reloaded")
	return nil
}
