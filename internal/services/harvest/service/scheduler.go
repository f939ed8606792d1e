package service

import (
	"context"
	"sync"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/platform/browser"
	"slotwatch/internal/platform/logger"
)

// ProgressFunc receives per-clinic completion as workers finish
type ProgressFunc func(done, total int, clinic string)

// Scheduler fans clinic extractions out over the browser pool, one back-end
// at a time. The semaphore bounds in-flight tabs per back-end; one failing
// clinic yields empty observations and never aborts the run
type Scheduler struct {
	pool     *browser.Pool
	adapters map[scrape.Backend]scrape.Adapter
	parallel map[scrape.Backend]int
	log      logger.Logger
}

// NewScheduler wires the per-backend adapters and parallelism caps
func NewScheduler(pool *browser.Pool, adapters map[scrape.Backend]scrape.Adapter,
	parallel map[scrape.Backend]int, log logger.Logger) *Scheduler {
	return &Scheduler{pool: pool, adapters: adapters, parallel: parallel, log: log}
}

// Harvest runs every target and returns clinic-name → observations. Legacy
// targets complete fully before SPA targets start; within a back-end the
// workers run in parallel under the semaphore
func (s *Scheduler) Harvest(ctx context.Context, targets []scrape.Target, progress ProgressFunc) map[string]scrape.Observations {
	byBackend := map[scrape.Backend][]scrape.Target{}
	for _, t := range targets {
		byBackend[t.Backend] = append(byBackend[t.Backend], t)
	}

	out := map[string]scrape.Observations{}
	var mu sync.Mutex
	done := 0
	total := len(targets)

	for _, backend := range []scrape.Backend{scrape.BackendLegacy, scrape.BackendSPA} {
		batch := byBackend[backend]
		if len(batch) == 0 {
			continue
		}

		limit := s.parallel[backend]
		if limit <= 0 {
			limit = 1
		}
		sem := make(chan struct{}, limit)
		var wg sync.WaitGroup

		for _, target := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(t scrape.Target) {
				defer wg.Done()
				defer func() { <-sem }()

				obs := s.one(ctx, t)

				mu.Lock()
				out[t.Name] = obs
				done++
				d := done
				mu.Unlock()
				if progress != nil {
					progress(d, total, t.Name)
				}
			}(target)
		}
		wg.Wait()
	}
	return out
}

// one runs the three-step protocol for a single clinic in its own tab.
// Every failure path returns an empty map
func (s *Scheduler) one(ctx context.Context, t scrape.Target) scrape.Observations {
	log := s.log.With().Str("clinic", t.Name).Str("system", string(t.Backend)).Logger()

	adapter, ok := s.adapters[t.Backend]
	if !ok {
		log.Error().Msg("harvest: no adapter for back-end")
		return scrape.Observations{}
	}

	if ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Msg("harvest: run cancelled before clinic start")
		return scrape.Observations{}
	}

	tab, cancel, err := s.pool.NewTab(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("harvest: tab open failed")
		return scrape.Observations{}
	}
	defer cancel()

	if err := adapter.Login(tab, t); err != nil {
		log.Warn().Err(err).Msg("harvest: login failed")
		return scrape.Observations{}
	}
	if err := adapter.AdvanceToTomorrow(tab, t); err != nil {
		// proceed with today's grid; check_date still records the intent
		log.Warn().Err(err).Msg("harvest: next-day advance failed, using today")
	}
	obs, err := adapter.Extract(tab, t)
	if err != nil {
		log.Warn().Err(err).Msg("harvest: extraction failed")
		return scrape.Observations{}
	}
	log.Info().Int("staff", len(obs)).Msg("harvest: clinic done")
	return obs
}
