package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/store"
)

// HousekeepingService periodically purges verifiers of abandoned sign in
// flows so the table does not grow without bound.
type HousekeepingService struct {
	Verifiers store.Verifiers
	Logger    *slog.Logger
	Interval  time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService defaults interval to 15 minutes when it is not
// positive.
func NewHousekeepingService(verifiers store.Verifiers, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &HousekeepingService{
		Verifiers: verifiers,
		Logger:    logger,
		Interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop. Later calls are
// ignored.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished. Only the first
// call has an effect, and stopping a worker that never started returns at
// once.
func (s *HousekeepingService) Stop() {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes expired verifiers once.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := s.Verifiers.DeleteExpiredVerifiers(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired verifiers", "error", err)
		return
	}
	s.Logger.Debug("housekeeping cleanup completed", "verifiers_deleted", n)
}
