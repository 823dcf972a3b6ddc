// Package jobs holds the scheduled maintenance tasks of the API.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/infrastructure/metrics"
)

const sweepTimeout = time.Minute

// SessionSweeper periodically marks sessions whose token has expired as
// inactive so the ledger reflects what the token codec already rejects.
type SessionSweeper struct {
	cron     *cron.Cron
	schedule string
	sessions ports.SessionRepository
	now      func() time.Time
	log      zerolog.Logger
}

// NewSessionSweeper builds a sweeper for schedule, any spec robfig/cron
// accepts (e.g. "@every 1h" or "0 * * * *"). An empty schedule disables it.
func NewSessionSweeper(schedule string, sessions ports.SessionRepository, now func() time.Time, log zerolog.Logger) *SessionSweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SessionSweeper{
		cron:     cron.New(),
		schedule: schedule,
		sessions: sessions,
		now:      now,
		log:      log,
	}
}

func (s *SessionSweeper) Start() error {
	if s.schedule == "" {
		s.log.Info().Msg("session sweeper disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("session sweeper schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("session sweeper started")
	return nil
}

// Stop halts the scheduler; the returned context is done once a running
// sweep has finished.
func (s *SessionSweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *SessionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
	}
}

// RunOnce deactivates every active session that expired before now.
func (s *SessionSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.SessionsSweptTotal.Add(float64(n))
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("expired sessions deactivated")
	}
	return n, nil
}
