// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/taskboard/internal/logging"
)

// purgeTimeout bounds one purge run.
const purgeTimeout = 30 * time.Second

// Purger deletes expired refresh tokens. *service.AuthService satisfies it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler wraps cron-based jobs. Overlapping runs of one job are
// skipped and panics are logged instead of killing the process.
type Scheduler struct {
	cron *cron.Cron
	log  logging.Logger
}

func NewScheduler(log logging.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		log: log,
	}
}

// SchedulePurge registers p under spec, a standard five-field cron
// expression or a descriptor such as "@every 1h".
func (s *Scheduler) SchedulePurge(spec string, p Purger) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, purgeJob(p, s.log))
	if err != nil {
		return 0, fmt.Errorf("schedule purge %q: %w", spec, err)
	}
	return id, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func purgeJob(p Purger, log logging.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			log.Error(ctx, "purge expired refresh tokens", "err", err)
			return
		}
		if n > 0 {
			log.Info(ctx, "purged expired refresh tokens", "count", n)
		}
	}
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct{ log logging.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(context.Background(), "cron: "+msg, append(keysAndValues, "err", err)...)
}
