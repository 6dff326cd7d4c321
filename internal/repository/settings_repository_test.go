package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencilmail/stencil-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func settingsRows(tenantKey string, enabled bool, retention int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"tenant_key", "enabled", "retention_days", "operator_identifier", "updated_at"}).
		AddRow(tenantKey, enabled, retention, nil, time.Now().UTC())
}

func TestSettingsGetCreatesDefaultRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO audit_settings").
		WithArgs("tenant-a", models.DefaultRetentionDays, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT tenant_key, enabled, retention_days").
		WithArgs("tenant-a").
		WillReturnRows(settingsRows("tenant-a", false, models.DefaultRetentionDays))

	settings, err := repo.Get(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.False(t, settings.Enabled, "auditing starts disabled")
	assert.Equal(t, models.DefaultRetentionDays, settings.RetentionDays)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsGetRequiresTenantKey(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	_, err := repo.Get(context.Background(), "")
	require.Error(t, err)
}

func TestSettingsUpdatePatchesOnlyProvidedFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO audit_settings").
		WithArgs("tenant-a", models.DefaultRetentionDays, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT tenant_key, enabled, retention_days").
		WithArgs("tenant-a").
		WillReturnRows(settingsRows("tenant-a", false, models.DefaultRetentionDays))

	mock.ExpectQuery("UPDATE audit_settings SET updated_at").
		WithArgs("tenant-a", sqlmock.AnyArg(), true).
		WillReturnRows(settingsRows("tenant-a", true, models.DefaultRetentionDays))

	enabled := true
	settings, err := repo.Update(context.Background(), "tenant-a", models.AuditSettingsPatch{Enabled: &enabled})
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsListEnabledTenantsSkipsForever(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery("SELECT tenant_key FROM audit_settings WHERE enabled").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_key"}).AddRow("tenant-a").AddRow("tenant-b"))

	keys, err := repo.ListEnabledTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-a", "tenant-b"}, keys)
}
