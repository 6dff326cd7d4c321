package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
)

type retentionSettingsReader interface {
	Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error)
}

type retentionLogStore interface {
	DeleteOlderThan(ctx context.Context, tenantKey string, cutoff time.Time) (int64, error)
	DeleteAllByTenant(ctx context.Context, tenantKey string) (int64, error)
}

type retentionMetrics interface {
	ObserveRetentionDeleted(count int64)
}

// RetentionService deletes audit entries past a tenant's retention
// window. Cleanup is an explicit synchronous operation; unlike recording,
// its failures propagate to the caller.
type RetentionService struct {
	settings retentionSettingsReader
	store    retentionLogStore
	metrics  retentionMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewRetentionService constructs a RetentionService.
func NewRetentionService(settings retentionSettingsReader, store retentionLogStore, metrics retentionMetrics, logger *zap.Logger) *RetentionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		settings: settings,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Cleanup deletes entries older than the tenant's retention window and
// returns the number removed. A retention of RetentionForever is a no-op,
// not an error. Cleanup is idempotent: re-running with nothing past the
// cutoff deletes zero rows.
func (s *RetentionService) Cleanup(ctx context.Context, tenantKey string) (int64, error) {
	settings, err := s.settings.Get(ctx, tenantKey)
	if err != nil {
		return 0, appErrors.FromError(err)
	}
	if settings.RetentionDays == models.RetentionForever {
		return 0, nil
	}

	cutoff := s.now().UTC().AddDate(0, 0, -settings.RetentionDays)
	deleted, err := s.store.DeleteOlderThan(ctx, tenantKey, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "retention cleanup failed")
	}

	if deleted > 0 {
		s.logger.Info("retention cleanup removed entries",
			zap.Int64("deleted", deleted),
			zap.Int("retention_days", settings.RetentionDays))
	}
	if s.metrics != nil {
		s.metrics.ObserveRetentionDeleted(deleted)
	}
	return deleted, nil
}

// ClearAll unconditionally wipes every entry for the tenant. Caller
// confirmation is validated above this layer; the engine itself does not
// gate the wipe.
func (s *RetentionService) ClearAll(ctx context.Context, tenantKey string) (int64, error) {
	deleted, err := s.store.DeleteAllByTenant(ctx, tenantKey)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "audit wipe failed")
	}
	s.logger.Info("audit trail cleared", zap.Int64("deleted", deleted))
	return deleted, nil
}
