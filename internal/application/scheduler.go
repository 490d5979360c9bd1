package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var ErrSchedulerRunning = errors.New("scheduler already running")

// ScheduledJob runs once per cron tick with a fresh run id.
type ScheduledJob func(ctx context.Context, runID string)

type ScheduleEntry struct {
	Name string
	Spec string
	Next time.Time
}

// Scheduler fires dispatch jobs on cron specs. Overlapping runs of the same
// job are skipped.
type Scheduler struct {
	parser cron.Parser
	logger zerolog.Logger

	mu      sync.Mutex
	c       *cron.Cron
	entries map[cron.EntryID]string
	specs   map[cron.EntryID]string
	ctx     context.Context
	running bool
}

func NewScheduler(loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	logger = logger.With().Str("component", "scheduler").Logger()

	return &Scheduler{
		parser: parser,
		logger: logger,
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
		entries: make(map[cron.EntryID]string),
		specs:   make(map[cron.EntryID]string),
		ctx:     context.Background(),
	}
}

// Validate parses spec without registering anything.
func (s *Scheduler) Validate(spec string) error {
	if _, err := s.parser.Parse(strings.TrimSpace(spec)); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Add(name, spec string, job ScheduledJob) error {
	spec = strings.TrimSpace(spec)
	if err := s.Validate(spec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.c.AddFunc(spec, func() {
		runID := uuid.NewString()
		s.logger.Info().Str("job", name).Str("run", runID).Msg("scheduled run started")
		job(s.jobContext(), runID)
		s.logger.Info().Str("job", name).Str("run", runID).Msg("scheduled run finished")
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.entries[id] = name
	s.specs[id] = spec
	return nil
}

func (s *Scheduler) Entries() []ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]ScheduleEntry, 0, len(s.entries))
	for _, entry := range s.c.Entries() {
		next := entry.Next
		if next.IsZero() {
			next = entry.Schedule.Next(time.Now())
		}
		entries = append(entries, ScheduleEntry{Name: s.entries[entry.ID], Spec: s.specs[entry.ID], Next: next})
	}
	return entries
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.ctx = ctx
	s.c.Start()
	s.mu.Unlock()

	s.logger.Info().Int("jobs", len(s.c.Entries())).Msg("scheduler started")
	<-ctx.Done()
	<-s.c.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ctx
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
