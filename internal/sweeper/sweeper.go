package sweeper

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
)

// Evictor drops matches idle since before.
type Evictor interface {
	EvictIdle(before time.Time) []cricket.Snapshot
}

// Sweeper periodically evicts abandoned matches. A match left in any phase other than MATCH_OVER
// would otherwise block its session forever.
type Sweeper struct {
	target   Evictor
	timeout  time.Duration
	interval time.Duration
	onEvict  func(cricket.Snapshot)
	now      func() time.Time
	sched    gocron.Scheduler
}

// New builds a sweeper. interval defaults to a quarter of timeout, at least one second.
func New(target Evictor, timeout, interval time.Duration, onEvict func(cricket.Snapshot)) *Sweeper {
	if interval <= 0 {
		interval = timeout / 4
		if interval < time.Second {
			interval = time.Second
		}
	}
	return &Sweeper{target: target, timeout: timeout, interval: interval, onEvict: onEvict, now: time.Now}
}

// Enabled reports whether a timeout is configured.
func (s *Sweeper) Enabled() bool { return s != nil && s.target != nil && s.timeout > 0 }

// Start schedules Sweep every interval. It is a no-op when disabled.
func (s *Sweeper) Start() error {
	if !s.Enabled() {
		obslog.L().Info("sweeper_disabled")
		return nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("sweeper scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Sweep() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("sweeper job: %w", err)
	}
	sched.Start()
	s.sched = sched
	obslog.L().Info("sweeper_start", zap.Duration("timeout", s.timeout), zap.Duration("interval", s.interval))
	return nil
}

// Sweep runs one eviction pass.
func (s *Sweeper) Sweep() []cricket.Snapshot {
	if !s.Enabled() {
		return nil
	}
	evicted := s.target.EvictIdle(s.now().Add(-s.timeout))
	for _, snap := range evicted {
		obslog.L().Info("sweeper_evict",
			zap.String("match_id", snap.MatchID),
			zap.String("session_id", snap.SessionID),
			zap.String("phase", string(snap.Phase)),
			zap.Time("updated_at", snap.UpdatedAt),
		)
		if s.onEvict != nil {
			s.onEvict(snap)
		}
	}
	return evicted
}

func (s *Sweeper) Stop() error {
	if s == nil || s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
