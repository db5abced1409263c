package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reconcileLockKey = "restaurant:reconcile"

// Reconciler один цикл фоновой сверки броней
type Reconciler interface {
	Reconcile(ctx context.Context, runID string) (service.ReconcileResult, error)
}

// Locker межпроцессная блокировка. ok=false означает, что блокировку держит другой процесс.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(ctx context.Context) error, ok bool, err error)
}

// Scheduler управляет фоновой сверкой броней
type Scheduler struct {
	reconciler Reconciler
	locker     Locker
	interval   time.Duration
	logger     *zap.Logger

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	newRunID func() string
}

// NewScheduler создаёт новый планировщик. locker может быть nil.
func NewScheduler(reconciler Reconciler, locker Locker, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		locker:     locker,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
		newRunID:   func() string { return uuid.NewString() },
	}
}

// Start запускает сверку в фоне
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping reconciliation scheduler")
		close(s.stopChan)
	})
}

// Run выполняет сверку сразу и затем каждые interval, пока не отменён ctx или не вызван Stop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting reconciliation scheduler", zap.Duration("interval", s.interval))

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("Reconciliation scheduler stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Reconciliation scheduler cancelled")
			return nil
		}
	}
}

// RunOnce выполняет один цикл. Возвращает false, если цикл пропущен.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	// Предыдущий цикл ещё идёт
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Reconciliation still running, tick skipped")
		return false
	}
	defer s.running.Store(false)

	runID := s.newRunID()
	logger := s.logger.With(zap.String("run_id", runID))

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, reconcileLockKey, s.lockTTL())
		if err != nil {
			logger.Error("Failed to acquire reconciliation lock", zap.Error(err))
			return false
		}
		if !ok {
			logger.Info("Reconciliation is running on another instance, skipped")
			return false
		}
		defer func() {
			if err := unlock(context.Background()); err != nil {
				logger.Error("Failed to release reconciliation lock", zap.Error(err))
			}
		}()
	}

	started := time.Now()
	result, err := s.reconciler.Reconcile(ctx, runID)
	if err != nil {
		logger.Error("Reconciliation finished with errors",
			zap.Int("completed", result.Completed),
			zap.Int("cancelled", result.Cancelled),
			zap.Int("failed", result.Failed),
			zap.Error(err),
		)
		return true
	}

	logger.Info("Reconciliation completed",
		zap.Int("completed", result.Completed),
		zap.Int("cancelled", result.Cancelled),
		zap.Duration("took", time.Since(started)),
	)
	return true
}

// Блокировка живёт не дольше одного интервала, упавший процесс не держит её вечно
func (s *Scheduler) lockTTL() time.Duration {
	if s.interval > time.Second {
		return s.interval
	}
	return time.Second
}
