// Package schedule runs bundle generation on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"promptsmith/internal/domain"
	"promptsmith/internal/infra"
)

const defaultRunTimeout = 5 * time.Minute

// Generator is satisfied by the compile controller.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error)
}

// Job is one scheduled request.
type Job struct {
	Name     string
	Schedule string
	Request  domain.GenerateRequest
}

type Options struct {
	Logger *infra.Logger
	// RunTimeout bounds one run, every semantic attempt included.
	RunTimeout time.Duration
}

// Scheduler fires Generate for each job. A run that is still going when its
// next tick arrives makes that tick a no-op.
type Scheduler struct {
	cron       *cron.Cron
	generator  Generator
	logger     *infra.Logger
	runTimeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	stats   map[string]*JobStats
	entries map[string]cron.EntryID
}

// JobStats counts outcomes of a job's runs.
type JobStats struct {
	Runs     int
	Failures int
	Bundles  int
	LastRun  time.Time
	LastErr  error
}

func NewScheduler(generator Generator, opts Options) (*Scheduler, error) {
	if generator == nil {
		return nil, errors.New("schedule: generator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	timeout := opts.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		generator:  generator,
		logger:     logger,
		runTimeout: timeout,
		ctx:        context.Background(),
		stats:      make(map[string]*JobStats),
		entries:    make(map[string]cron.EntryID),
	}, nil
}

// normalizeCron prepends "0 " to standard 5-field expressions so they work
// with the seconds-aware parser.
func normalizeCron(spec string) string {
	spec = strings.TrimSpace(spec)
	if len(strings.Fields(spec)) == 5 {
		return "0 " + spec
	}
	return spec
}

// Add validates the job's request and schedule and registers it.
func (s *Scheduler) Add(job Job) error {
	job.Name = strings.TrimSpace(job.Name)
	if job.Name == "" {
		return fmt.Errorf("%w: job name is required", domain.ErrInvalidRequest)
	}
	job.Request.Normalize()
	if err := job.Request.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("%w: job %q already scheduled", domain.ErrInvalidRequest, job.Name)
	}
	id, err := s.cron.AddFunc(normalizeCron(job.Schedule), func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", domain.ErrInvalidRequest, job.Schedule, err)
	}
	s.entries[job.Name] = id
	s.stats[job.Name] = &JobStats{}
	return nil
}

// Next reports the next activation of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Stats returns a copy of the job's counters.
func (s *Scheduler) Stats(name string) (JobStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		return JobStats{}, false
	}
	return *st, true
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	start := time.Now()
	bundles, err := s.generator.Generate(ctx, job.Request)

	s.mu.Lock()
	st := s.stats[job.Name]
	st.Runs++
	st.LastRun = start
	st.LastErr = err
	if err != nil {
		st.Failures++
	} else {
		st.Bundles += len(bundles)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", job.Name).Dur("elapsed", time.Since(start)).Msg("scheduled generation failed")
		return
	}
	s.logger.Info().
		Str("job", job.Name).
		Int("bundles", len(bundles)).
		Dur("elapsed", time.Since(start)).
		Msg("scheduled generation done")
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	logger *infra.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
