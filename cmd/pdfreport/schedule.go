package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/logging"
)

// scheduleJobTimeout bounds a single scheduled generate+stamp run.
const scheduleJobTimeout = 10 * time.Minute

// reportJob is one scheduled unit of work.
type reportJob func(ctx context.Context) error

// reportScheduler runs a report job on a cron spec.
type reportScheduler struct {
	cron    *cron.Cron
	spec    string
	job     reportJob
	timeout time.Duration
	logger  *zap.Logger
}

// newReportScheduler creates a scheduler. The spec uses the standard
// 5-field syntax plus descriptors (@daily, @every 1h). Overlapping runs
// are skipped.
func newReportScheduler(spec string, timeout time.Duration, job reportJob, logger *zap.Logger) (*reportScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: cron spec %q: %v", ErrUsage, spec, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cl := cronLogger{s: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &reportScheduler{
		cron:    c,
		spec:    spec,
		job:     job,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Start registers the job and starts the scheduler. Runs derive their
// context from ctx.
func (s *reportScheduler) Start(ctx context.Context) error {
	s.logger.Info("starting scheduler", zap.String("cron", s.spec))

	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling report: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *reportScheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Next returns the next activation time, or the zero time before Start.
func (s *reportScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// runOnce executes the job with the per-run timeout. Failures are logged;
// the schedule keeps going.
func (s *reportScheduler) runOnce(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.logger.Info("scheduled report starting")
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled report failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return
	}
	s.logger.Info("scheduled report finished", zap.Duration("elapsed", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger. Cron's own info lines are debug
// noise at our level.
type cronLogger struct {
	s *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// runSchedule handles `pdfreport schedule`. It blocks until ctx is
// canceled (SIGINT/SIGTERM) and lets a running job finish.
func runSchedule(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseScheduleFlags(args, env)
	if err != nil {
		return err
	}
	if err := singleSource("schedule", pos, f); err != nil {
		return err
	}

	r, err := newReportRunner(f, env)
	if err != nil {
		return err
	}
	defer func() { _ = r.logger.Sync() }()

	s, err := newReportScheduler(r.cfg.Schedule.Cron, scheduleJobTimeout, r.run, logging.Named(r.logger, "schedule"))
	if err != nil {
		return err
	}

	if f.once {
		s.runOnce(ctx)
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	r.logger.Info("waiting for next run", zap.Time("next", s.Next()))

	<-ctx.Done()
	s.Stop()
	return nil
}
