package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error)
	Update(ctx context.Context, tenantKey string, patch models.AuditSettingsPatch) (*models.AuditSettings, error)
}

type settingsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SettingsServiceConfig tunes cache behaviour.
type SettingsServiceConfig struct {
	CacheTTL time.Duration
}

// SettingsService manages per-tenant audit configuration with a
// read-through cache in front of Postgres. The recorder consults Get on
// every mutation, so cached reads keep the hot path off the database.
type SettingsService struct {
	repo      settingsRepository
	cache     settingsCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, cache settingsCache, validate *validator.Validate, logger *zap.Logger, cfg SettingsServiceConfig) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SettingsService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cacheTTL:  ttl,
	}
}

// Get returns the tenant's settings, lazily creating the default row on
// first access. Cache failures fall back to the repository.
func (s *SettingsService) Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error) {
	cacheKey := settingsCacheKey(tenantKey)
	if s.cache != nil {
		var cached models.AuditSettings
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			cached.TenantKey = tenantKey
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.repo.Get(ctx, tenantKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit settings")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, settings, s.cacheTTL); err != nil {
			s.logger.Warn("settings cache write failed", zap.Error(err))
		}
	}
	return settings, nil
}

// Update applies a partial settings change. Settings changes are explicit
// user actions: storage failures propagate to the caller.
func (s *SettingsService) Update(ctx context.Context, tenantKey string, req dto.UpdateAuditSettingsRequest) (*models.AuditSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	if req.Enabled == nil && req.RetentionDays == nil && req.OperatorIdentifier == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no settings fields provided")
	}
	if req.RetentionDays != nil && *req.RetentionDays < models.RetentionForever {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("retention_days must be %d or a non-negative day count", models.RetentionForever))
	}

	settings, err := s.repo.Update(ctx, tenantKey, models.AuditSettingsPatch{
		Enabled:            req.Enabled,
		RetentionDays:      req.RetentionDays,
		OperatorIdentifier: req.OperatorIdentifier,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update audit settings")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey(tenantKey)); err != nil {
			s.logger.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}
	return settings, nil
}

func settingsCacheKey(tenantKey string) string {
	return "audit:settings:" + tenantKey
}
