package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleTimerExpirer closes timer sessions idle for longer than the configured
// timeout and returns how many it closed
type IdleTimerExpirer interface {
	ExpireIdleSessions(ctx context.Context) (int, error)
}

// TimerSweeperConfig holds configuration for the idle timer sweeper
type TimerSweeperConfig struct {
	Enabled  bool
	Interval time.Duration
	// Timeout bounds one sweep
	Timeout time.Duration
}

// DefaultTimerSweeperConfig returns default configuration
func DefaultTimerSweeperConfig() TimerSweeperConfig {
	return TimerSweeperConfig{
		Enabled:  true,
		Interval: 5 * time.Minute,
		Timeout:  time.Minute,
	}
}

// TimerSweeperStats summarizes the sweeper's runs
type TimerSweeperStats struct {
	Runs         int64
	Failures     int64
	Expired      int64
	LastRunAt    time.Time
	LastDuration time.Duration
}

// TimerSweeper periodically closes idle timer sessions
type TimerSweeper struct {
	expirer   IdleTimerExpirer
	logger    *zap.Logger
	config    TimerSweeperConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	stats     TimerSweeperStats
}

// NewTimerSweeper creates a new sweeper
func NewTimerSweeper(expirer IdleTimerExpirer, logger *zap.Logger, config TimerSweeperConfig) (*TimerSweeper, error) {
	if config.Enabled && config.Interval <= 0 {
		return nil, fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &TimerSweeper{
		expirer: expirer,
		logger:  logger.Named("timer_sweeper"),
		config:  config,
	}, nil
}

// Start starts the sweep loop
func (s *TimerSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Timer sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Timer sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop stops the loop and waits for an in-flight sweep or ctx
func (s *TimerSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Timer sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timer sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *TimerSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TimerSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	expired, err := s.expirer.ExpireIdleSessions(sweepCtx)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRunAt = startTime
	s.stats.LastDuration = duration
	s.stats.Expired += int64(expired)
	if err != nil {
		s.stats.Failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Idle timer sweep failed",
			zap.Duration("duration", duration),
			zap.Int("expired", expired),
			zap.Error(err),
		)
		return
	}
	if expired > 0 {
		s.logger.Info("Idle timers closed",
			zap.Int("expired", expired),
			zap.Duration("duration", duration),
		)
	}
}

// TriggerImmediate runs one sweep in the background
func (s *TimerSweeper) TriggerImmediate(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
	}()
	return nil
}

// IsRunning returns whether the sweeper is running
func (s *TimerSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Stats returns a snapshot of the run statistics
func (s *TimerSweeper) Stats() TimerSweeperStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
