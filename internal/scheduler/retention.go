package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/pkg/config"
)

type tenantLister interface {
	ListEnabledTenants(ctx context.Context) ([]string, error)
}

type retentionCleaner interface {
	Cleanup(ctx context.Context, tenantKey string) (int64, error)
}

// RetentionScheduler runs the retention sweep on a cron schedule, walking
// every tenant with auditing enabled and a finite retention window.
type RetentionScheduler struct {
	cron      *cron.Cron
	tenants   tenantLister
	retention retentionCleaner
	schedule  string
	logger    *zap.Logger
}

// NewRetentionScheduler constructs the scheduler. It does nothing until
// Start is called.
func NewRetentionScheduler(tenants tenantLister, retention retentionCleaner, cfg config.CleanupConfig, logger *zap.Logger) *RetentionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionScheduler{
		cron:      cron.New(),
		tenants:   tenants,
		retention: retention,
		schedule:  cfg.Schedule,
		logger:    logger,
	}
}

// Start registers the sweep job and launches the cron loop.
func (s *RetentionScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("retention scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *RetentionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("retention scheduler stopped")
}

func (s *RetentionScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	tenants, err := s.tenants.ListEnabledTenants(ctx)
	if err != nil {
		s.logger.Error("retention sweep could not list tenants", zap.Error(err))
		return
	}

	var total int64
	for _, tenantKey := range tenants {
		deleted, err := s.retention.Cleanup(ctx, tenantKey)
		if err != nil {
			s.logger.Error("retention sweep failed for tenant", zap.Error(err))
			continue
		}
		total += deleted
	}
	s.logger.Info("retention sweep finished",
		zap.Int("tenants", len(tenants)),
		zap.Int64("deleted", total))
}
