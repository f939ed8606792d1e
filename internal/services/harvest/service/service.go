// Package service provides the harvest engine: scheduler, aggregator,
// writer, and the run orchestrator
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"slotwatch/internal/adapters/scrape"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	ptime "slotwatch/internal/platform/time"
	"slotwatch/internal/services/harvest/domain"
	"slotwatch/internal/services/harvest/repo"
	regdomain "slotwatch/internal/services/registry/domain"
	taskdomain "slotwatch/internal/services/tasks/domain"
)

// Config for the harvest service
type Config struct {
	RunTimeout     time.Duration
	MinBlocks      int
	LegacyInterval int
	NextDayTokens  []string
	LegacyExclude  []string
	TaskTTL        time.Duration
	Clock          ptime.Clock
}

// Service implements domain.RunnerPort and domain.ResultsPort
type Service struct {
	registry regdomain.RegistryPort
	tasks    taskdomain.ManagerPort
	sched    *Scheduler
	storage  *repo.Artifacts
	clock    ptime.Clock
	log      logger.Logger
	cfg      Config
}

// New constructs the harvest service
func New(registry regdomain.RegistryPort, tasks taskdomain.ManagerPort,
	sched *Scheduler, storage *repo.Artifacts, log logger.Logger, cfg Config) *Service {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 600 * time.Second
	}
	if cfg.MinBlocks <= 0 {
		cfg.MinBlocks = 1
	}
	if cfg.TaskTTL <= 0 {
		cfg.TaskTTL = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = ptime.System{}
	}
	return &Service{
		registry: registry,
		tasks:    tasks,
		sched:    sched,
		storage:  storage,
		clock:    cfg.Clock,
		log:      log,
		cfg:      cfg,
	}
}

// Launch implements domain.RunnerPort. The run detaches from the request
// context; only the run timeout bounds it
func (s *Service) Launch(ctx context.Context, system scrape.Backend) (string, error) {
	task, err := s.tasks.Create(ctx)
	if err != nil {
		return "", err
	}
	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
		defer cancel()
		_, _, _ = s.execute(rctx, task.ID, system)
	}()
	return task.ID, nil
}

// RunOnce implements domain.RunnerPort
func (s *Service) RunOnce(ctx context.Context, system scrape.Backend) (string, domain.Artifact, error) {
	task, err := s.tasks.Create(ctx)
	if err != nil {
		return "", domain.Artifact{}, err
	}
	rctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	return s.execute(rctx, task.ID, system)
}

// execute drives one run to a terminal task state. Task-state writes after
// a timeout use a fresh context so the final transition still persists
func (s *Service) execute(ctx context.Context, taskID string, system scrape.Backend) (string, domain.Artifact, error) {
	started := ptime.NowJST(s.clock)
	if err := s.tasks.Start(ctx, taskID); err != nil {
		return "", domain.Artifact{}, err
	}

	key, art, err := s.run(ctx, taskID, system)
	if err != nil {
		msg := err.Error()
		if ctx.Err() != nil {
			msg = fmt.Sprintf("run timed out after %.0fs", ptime.NowJST(s.clock).Sub(started).Seconds())
		}
		if ferr := s.tasks.Fail(context.Background(), taskID, msg); ferr != nil {
			s.log.Error().Err(ferr).Str("task", taskID).Msg("harvest: could not record failure")
		}
		return "", domain.Artifact{}, err
	}

	if cerr := s.tasks.Complete(context.Background(), taskID, key); cerr != nil {
		s.log.Error().Err(cerr).Str("task", taskID).Msg("harvest: could not record completion")
	}
	if n, gcerr := s.tasks.Cleanup(context.Background(), s.cfg.TaskTTL); gcerr != nil {
		s.log.Warn().Err(gcerr).Msg("harvest: task cleanup failed")
	} else if n > 0 {
		s.log.Debug().Int("removed", n).Msg("harvest: pruned finished tasks")
	}
	return key, art, nil
}

// run harvests, aggregates, and persists one artifact
func (s *Service) run(ctx context.Context, taskID string, system scrape.Backend) (string, domain.Artifact, error) {
	clinics, err := s.registry.Clinics(ctx)
	if err != nil {
		return "", domain.Artifact{}, err
	}

	type entry struct {
		clinic   regdomain.Clinic
		rules    regdomain.Ruleset
		hasRules bool
	}
	var (
		entries []entry
		targets []scrape.Target
		skipped = map[string]scrape.Observations{}
	)
	for _, c := range clinics {
		if !c.Enabled {
			continue
		}
		if system != "" && c.Backend != system {
			continue
		}
		rules, hasRules, err := s.registry.Rules(ctx, c.Name)
		if err != nil {
			return "", domain.Artifact{}, err
		}
		entries = append(entries, entry{clinic: c, rules: rules, hasRules: hasRules})

		creds, err := s.registry.Credentials(ctx, c)
		if err != nil {
			s.log.Warn().Err(err).Str("clinic", c.Name).Msg("harvest: credentials unavailable, skipping")
			skipped[c.Name] = scrape.Observations{}
			continue
		}
		t := scrape.Target{
			Name:          c.Name,
			DisplayName:   c.DisplayName,
			URL:           c.URL,
			Backend:       c.Backend,
			Login:         creds,
			Exclude:       s.cfg.LegacyExclude,
			Interval:      s.cfg.LegacyInterval,
			NextDayTokens: s.cfg.NextDayTokens,
		}
		if hasRules {
			t.Disabled = rules.Disabled
		}
		targets = append(targets, t)
	}
	if len(entries) == 0 {
		return "", domain.Artifact{}, perr.NotFoundf("no enabled clinics for run")
	}

	progress := func(done, total int, clinic string) {
		if err := s.tasks.Progress(ctx, taskID, done, total, clinic); err != nil {
			s.log.Warn().Err(err).Str("task", taskID).Msg("harvest: progress update failed")
		}
	}
	observations := s.sched.Harvest(ctx, targets, progress)
	for name, obs := range skipped {
		observations[name] = obs
	}
	if ctx.Err() != nil {
		return "", domain.Artifact{}, ctx.Err()
	}

	inputs := make([]ClinicInput, 0, len(entries))
	for _, e := range entries {
		obs := observations[e.clinic.Name]
		if obs == nil {
			obs = scrape.Observations{}
		}
		inputs = append(inputs, ClinicInput{
			Clinic:       e.clinic,
			Rules:        e.rules,
			HasRules:     e.hasRules,
			Observations: obs,
		})
	}

	order, err := s.registry.Order(ctx)
	if err != nil {
		return "", domain.Artifact{}, err
	}

	art := Aggregate(inputs, order, AggregateConfig{
		MinBlocks:      s.cfg.MinBlocks,
		LegacyInterval: s.cfg.LegacyInterval,
	}, ptime.CheckDate(s.clock), ptime.NowJST(s.clock))

	runDate, runTime := ptime.RunStamp(s.clock)
	key := repo.Name(ptime.CheckDateCompact(s.clock), runDate, runTime)
	if err := s.storage.Save(ctx, key, art, RenderCSV(art)); err != nil {
		return "", domain.Artifact{}, err
	}
	s.log.Info().Str("key", key).Int("clinics", art.Summary.TotalClinics).
		Int("available", art.Summary.WithAvailability).Msg("harvest: run complete")
	return key, art, nil
}

// sortMetas orders metadata descending by the sort key, run stamp breaking
// ties
func sortMetas(metas []domain.Meta, key domain.SortKey) {
	stamp := func(m domain.Meta) string { return m.RunDate + m.RunTime }
	sort.SliceStable(metas, func(i, j int) bool {
		a, b := metas[i], metas[j]
		switch key {
		case domain.SortByCheckDate:
			if a.CheckDate != b.CheckDate {
				return a.CheckDate > b.CheckDate
			}
		case domain.SortByRunDate:
			if a.RunDate != b.RunDate {
				return a.RunDate > b.RunDate
			}
		case domain.SortByRunTime:
			if a.RunTime != b.RunTime {
				return a.RunTime > b.RunTime
			}
		}
		return stamp(a) > stamp(b)
	})
}

// Latest implements domain.ResultsPort
func (s *Service) Latest(ctx context.Context) (domain.Artifact, domain.Meta, error) {
	metas, err := s.storage.List(ctx)
	if err != nil {
		return domain.Artifact{}, domain.Meta{}, err
	}
	if len(metas) == 0 {
		return domain.Artifact{}, domain.Meta{}, perr.NotFoundf("no run artifacts")
	}
	sortMetas(metas, domain.SortByRunDate)
	art, err := s.storage.Load(ctx, metas[0].Key)
	return art, metas[0], err
}

// List implements domain.ResultsPort
func (s *Service) List(ctx context.Context, key domain.SortKey) ([]domain.Meta, error) {
	if key == "" {
		key = domain.SortByCheckDate
	}
	if !key.Valid() {
		return nil, perr.InvalidArgf("unknown sort key %q", key)
	}
	metas, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}
	sortMetas(metas, key)
	return metas, nil
}

// ByDate implements domain.ResultsPort
func (s *Service) ByDate(ctx context.Context, date string) (domain.Artifact, domain.Meta, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.Artifact{}, domain.Meta{}, perr.InvalidArgf("bad date %q, want YYYY-MM-DD", date)
	}
	metas, err := s.storage.List(ctx)
	if err != nil {
		return domain.Artifact{}, domain.Meta{}, err
	}
	var candidates []domain.Meta
	for _, m := range metas {
		if m.CheckDate == date {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return domain.Artifact{}, domain.Meta{}, perr.NotFoundf("no artifact for %s", date)
	}
	sortMetas(candidates, domain.SortByRunDate)
	art, err := s.storage.Load(ctx, candidates[0].Key)
	return art, candidates[0], err
}

// Recalculate implements domain.ResultsPort
func (s *Service) Recalculate(ctx context.Context, thresholdMinutes int) (domain.Artifact, error) {
	if thresholdMinutes <= 0 {
		return domain.Artifact{}, perr.InvalidArgf("threshold must be positive, got %d", thresholdMinutes)
	}
	art, _, err := s.Latest(ctx)
	if err != nil {
		return domain.Artifact{}, err
	}
	return Recalculate(art, thresholdMinutes, s.cfg.MinBlocks), nil
}
