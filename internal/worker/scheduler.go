package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/agenda-api/pkg/locker"
	"github.com/jwalitptl/agenda-api/pkg/logger"
)

// JobFunc is one scheduled run.
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	spec    string
	lockTTL time.Duration
	run     JobFunc
}

// Scheduler runs cron jobs so that only one instance executes a given run:
// each run first takes the leader lock "job:<name>".
type Scheduler struct {
	locker   locker.Locker
	logger   *logger.Logger
	location *time.Location
	jobs     []job
	cron     *cron.Cron
	cancel   context.CancelFunc
}

// NewScheduler builds a scheduler. With a nil locker every instance runs
// every job.
func NewScheduler(l locker.Locker, location *time.Location, logger *logger.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{locker: l, logger: logger, location: location}
}

// Add registers a job. lockTTL should exceed the job's longest run.
func (s *Scheduler) Add(name, spec string, lockTTL time.Duration, run JobFunc) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.jobs = append(s.jobs, job{name: name, spec: spec, lockTTL: lockTTL, run: run})
	return nil
}

// Start schedules every registered job. Runs stop when ctx is canceled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLocation(s.location))
	for _, j := range s.jobs {
		j := j
		if _, err := c.AddFunc(j.spec, func() { s.RunOnce(runCtx, j.name) }); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule job %s: %w", j.name, err)
		}
	}
	c.Start()
	s.cron, s.cancel = c, cancel
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce executes the named job now, under its leader lock.
func (s *Scheduler) RunOnce(ctx context.Context, name string) {
	var j *job
	for i := range s.jobs {
		if s.jobs[i].name == name {
			j = &s.jobs[i]
			break
		}
	}
	if j == nil {
		s.logger.Warn("unknown job", "job", name)
		return
	}

	if s.locker != nil {
		key := "job:" + j.name
		acquired, token, err := s.locker.TryLock(ctx, key, j.lockTTL)
		if err != nil {
			s.logger.Warn("leader lock attempt failed", "job", j.name, "error", err.Error())
			return
		}
		if !acquired {
			s.logger.Debug("leader lock held elsewhere", "job", j.name)
			return
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				s.logger.Warn("failed to release leader lock", "job", j.name, "error", err.Error())
			}
		}()
	}

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Error(err, "job failed", "job", j.name, "duration", time.Since(start).String())
		return
	}
	s.logger.Debug("job finished", "job", j.name, "duration", time.Since(start).String())
}
