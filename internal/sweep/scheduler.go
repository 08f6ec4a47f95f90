// AngelaMos | 2026
// scheduler.go

package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/metrics"
	"github.com/carterperez-dev/coursehub/internal/order"
)

type Sweeper interface {
	ExpireSweep(ctx context.Context, now time.Time) (order.SweepResult, error)
}

// Locker is a lease shared by every replica. core.Redis satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type Scheduler struct {
	sweeper Sweeper
	locker  Locker
	cfg     config.SweepConfig
	now     core.Clock
	logger  *slog.Logger
	token   string

	mu     sync.Mutex
	status Status
}

// Status describes the most recent sweep attempt on this replica.
type Status struct {
	LastAttemptAt *time.Time        `json:"last_attempt_at,omitempty"`
	LastRunAt     *time.Time        `json:"last_run_at,omitempty"`
	LastResult    order.SweepResult `json:"last_result"`
	LastError     string            `json:"last_error,omitempty"`
	Runs          int64             `json:"runs"`
	Skipped       int64             `json:"skipped"`
}

func NewScheduler(
	cfg config.SweepConfig,
	sweeper Sweeper,
	locker Locker,
	now core.Clock,
	logger *slog.Logger,
) *Scheduler {
	if now == nil {
		now = core.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sweeper: sweeper,
		locker:  locker,
		cfg:     cfg,
		now:     now,
		logger:  logger,
		token:   uuid.New().String(),
	}
}

// Run sweeps once immediately and then on every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	s.logger.Info("sweep scheduler started", "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce sweeps if this replica wins the lock. ran is false when another
// holder had it.
func (s *Scheduler) RunOnce(ctx context.Context) (order.SweepResult, bool, error) {
	started := s.now()

	if s.locker != nil && s.cfg.LockKey != "" {
		ok, err := s.locker.TryLock(ctx, s.cfg.LockKey, s.token, s.cfg.LockTTL)
		if err != nil {
			metrics.RecordSweepRun("error")
			s.record(started, false, order.SweepResult{}, err)
			return order.SweepResult{}, false, err
		}
		if !ok {
			metrics.RecordSweepRun("skipped")
			s.logger.Debug("sweep lock held elsewhere")
			s.record(started, false, order.SweepResult{}, nil)
			return order.SweepResult{}, false, nil
		}

		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), s.cfg.LockKey, s.token); err != nil {
				s.logger.Warn("sweep unlock failed", "error", err)
			}
		}()
	}

	res, err := s.sweeper.ExpireSweep(ctx, started)
	s.record(started, true, res, err)
	if err != nil {
		metrics.RecordSweepRun("error")
		return res, true, err
	}

	metrics.RecordSweepRun("ok")
	return res, true, nil
}

func (s *Scheduler) record(at time.Time, ran bool, res order.SweepResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LastAttemptAt = &at
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	if !ran {
		if err == nil {
			s.status.Skipped++
		}
		return
	}
	s.status.Runs++
	s.status.LastRunAt = &at
	s.status.LastResult = res
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ping reports unhealthy when no attempt has been made for two intervals
// or the last attempt failed.
func (s *Scheduler) Ping(_ context.Context) error {
	st := s.Status()
	if st.LastAttemptAt == nil {
		return nil
	}
	if st.LastError != "" {
		return fmt.Errorf("last sweep failed: %s", st.LastError)
	}
	if s.cfg.Interval > 0 && s.now().Sub(*st.LastAttemptAt) > 2*s.cfg.Interval {
		return fmt.Errorf("sweep stalled since %s", st.LastAttemptAt.Format(time.RFC3339))
	}
	return nil
}
