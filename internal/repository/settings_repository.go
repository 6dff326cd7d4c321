package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stencilmail/stencil-api/internal/models"
)

// SettingsRepository persists per-tenant audit settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row for the tenant, creating the default row
// atomically when absent. ON CONFLICT DO NOTHING keeps concurrent first
// reads from racing into duplicate rows.
func (r *SettingsRepository) Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error) {
	if tenantKey == "" {
		return nil, fmt.Errorf("settings get: tenant key is required")
	}

	const insert = `INSERT INTO audit_settings (tenant_key, enabled, retention_days, updated_at)
VALUES ($1, FALSE, $2, $3)
ON CONFLICT (tenant_key) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, tenantKey, models.DefaultRetentionDays, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("ensure settings row: %w", err)
	}

	const query = `SELECT tenant_key, enabled, retention_days, operator_identifier, updated_at
FROM audit_settings WHERE tenant_key = $1`
	var settings models.AuditSettings
	if err := r.db.GetContext(ctx, &settings, query, tenantKey); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// Update applies the non-nil patch fields and refreshes updated_at. The
// row is created with defaults first when the tenant is unknown.
func (r *SettingsRepository) Update(ctx context.Context, tenantKey string, patch models.AuditSettingsPatch) (*models.AuditSettings, error) {
	if _, err := r.Get(ctx, tenantKey); err != nil {
		return nil, err
	}

	setParts := []string{"updated_at = $2"}
	args := []interface{}{tenantKey, time.Now().UTC()}

	if patch.Enabled != nil {
		args = append(args, *patch.Enabled)
		setParts = append(setParts, fmt.Sprintf("enabled = $%d", len(args)))
	}
	if patch.RetentionDays != nil {
		args = append(args, *patch.RetentionDays)
		setParts = append(setParts, fmt.Sprintf("retention_days = $%d", len(args)))
	}
	if patch.OperatorIdentifier != nil {
		args = append(args, *patch.OperatorIdentifier)
		setParts = append(setParts, fmt.Sprintf("operator_identifier = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE audit_settings SET %s WHERE tenant_key = $1
RETURNING tenant_key, enabled, retention_days, operator_identifier, updated_at`, strings.Join(setParts, ", "))

	var settings models.AuditSettings
	if err := r.db.GetContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return &settings, nil
}

// ListEnabledTenants returns tenant keys with audit enabled and a finite
// retention window, for the periodic retention sweep.
func (r *SettingsRepository) ListEnabledTenants(ctx context.Context) ([]string, error) {
	const query = `SELECT tenant_key FROM audit_settings WHERE enabled = TRUE AND retention_days >= 0`
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("list enabled tenants: %w", err)
	}
	return keys, nil
}
