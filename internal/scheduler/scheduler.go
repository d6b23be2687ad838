package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrNoJob = errors.New("backup function not set")

// Scheduler runs periodic session backups.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	backupFn func(ctx context.Context) error
	entry    cron.EntryID
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetBackupFunction(f func(ctx context.Context) error) {
	s.backupFn = f
}

// Start schedules the backup function with a standard five-field cron spec
// or a descriptor such as "@hourly" or "@every 10m".
func (s *Scheduler) Start(spec string) error {
	if s.backupFn == nil {
		return ErrNoJob
	}
	id, err := s.cron.AddFunc(spec, func() {
		slog.Info("backup_triggered", "spec", spec)
		if err := s.backupFn(s.ctx); err != nil {
			slog.Error("backup_failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	s.entry = id
	s.cron.Start()
	slog.Info("scheduler_started", "spec", spec)
	return nil
}

// Stop waits for a running job to finish and cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	slog.Info("scheduler_stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

// Next reports the next scheduled run, zero if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}
