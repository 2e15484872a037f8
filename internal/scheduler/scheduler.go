// Package scheduler runs the daily report on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc func(ctx context.Context) error

// Run calls f
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// RunHook observes the outcome of every scheduled run
type RunHook func(name string, finishedAt time.Time, err error)

// Scheduler manages scheduled report jobs
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Logger
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     map[string]cron.EntryID
	jobTimeout time.Duration
	hook       RunHook
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are
// skipped.
func NewScheduler(logger *logrus.Logger, location *time.Location) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	if location == nil {
		location = time.Local
	}
	cl := cronLogger{entry: logger.WithField("component", "scheduler")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     logger,
		jobIDs:     make(map[string]cron.EntryID),
		jobTimeout: 10 * time.Minute,
	}
}

// SetJobTimeout bounds each run
func (s *Scheduler) SetJobTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.jobTimeout = d
	}
}

// OnRun registers a hook called after every run
func (s *Scheduler) OnRun(hook RunHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Schedule registers job under name with a standard 5-field cron expression
func (s *Scheduler) Schedule(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.runJob(name, job) })
	if err != nil {
		return fmt.Errorf("failed to add job %q: %w", name, err)
	}
	s.jobIDs[name] = entryID

	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": spec,
	}).Info("Scheduled job")
	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	s.mu.RLock()
	timeout, hook := s.jobTimeout, s.hook
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	s.logger.WithField("job", name).Info("Starting scheduled job")
	err := job.Run(ctx)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Scheduled job failed")
	} else {
		entry.Info("Scheduled job completed")
	}
	if hook != nil {
		hook(name, time.Now(), err)
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next run time of job name, zero when unknown or stopped
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.jobIDs[name]
	if !ok || !s.isRunning {
		return time.Time{}
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}
	}
	return entry.Next
}

// Jobs returns the scheduled job names
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	id, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	s.cron.Remove(id)
	delete(s.jobIDs, name)
	s.logger.WithField("job", name).Info("Removed job")
	return nil
}

// cronLogger routes cron's internal logging through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
