package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stencilmail/stencil-api/internal/models"
)

// AuditLogRepository persists and queries audit trail entries. Every
// operation is scoped by tenant key; no query can cross tenants.
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository constructs the repository.
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

const auditLogColumns = `id, tenant_key, created_at, operation_type, operation_status, operation_id,
       entity_slug, entity_name, state_before, state_after, changes,
       operator_identifier, error_message, error_details,
       is_bulk, total_count, success_count, failure_count, search_text`

// auditLogRow mirrors the audit_logs table. Snapshots, changes and error
// details live in serialized text columns; conversion to the typed entry
// happens only at this persistence edge.
type auditLogRow struct {
	ID                 int64     `db:"id"`
	TenantKey          string    `db:"tenant_key"`
	CreatedAt          time.Time `db:"created_at"`
	OperationType      string    `db:"operation_type"`
	OperationStatus    string    `db:"operation_status"`
	OperationID        *string   `db:"operation_id"`
	EntitySlug         *string   `db:"entity_slug"`
	EntityName         string    `db:"entity_name"`
	StateBefore        []byte    `db:"state_before"`
	StateAfter         []byte    `db:"state_after"`
	Changes            []byte    `db:"changes"`
	OperatorIdentifier *string   `db:"operator_identifier"`
	ErrorMessage       *string   `db:"error_message"`
	ErrorDetails       []byte    `db:"error_details"`
	IsBulk             bool      `db:"is_bulk"`
	TotalCount         *int      `db:"total_count"`
	SuccessCount       *int      `db:"success_count"`
	FailureCount       *int      `db:"failure_count"`
	SearchText         string    `db:"search_text"`
}

func toRow(entry *models.AuditLogEntry) (*auditLogRow, error) {
	row := &auditLogRow{
		ID:                 entry.ID,
		TenantKey:          entry.TenantKey,
		CreatedAt:          entry.CreatedAt,
		OperationType:      string(entry.OperationType),
		OperationStatus:    string(entry.OperationStatus),
		OperationID:        entry.OperationID,
		EntitySlug:         entry.EntitySlug,
		EntityName:         entry.EntityName,
		OperatorIdentifier: entry.OperatorIdentifier,
		ErrorMessage:       entry.ErrorMessage,
		IsBulk:             entry.IsBulk,
		TotalCount:         entry.TotalCount,
		SuccessCount:       entry.SuccessCount,
		FailureCount:       entry.FailureCount,
		SearchText:         entry.SearchText,
	}

	var err error
	if entry.StateBefore != nil {
		if row.StateBefore, err = json.Marshal(entry.StateBefore); err != nil {
			return nil, fmt.Errorf("marshal state before: %w", err)
		}
	}
	if entry.StateAfter != nil {
		if row.StateAfter, err = json.Marshal(entry.StateAfter); err != nil {
			return nil, fmt.Errorf("marshal state after: %w", err)
		}
	}
	if entry.Changes != nil {
		if row.Changes, err = json.Marshal(entry.Changes); err != nil {
			return nil, fmt.Errorf("marshal changes: %w", err)
		}
	}
	if entry.ErrorDetails != nil {
		if row.ErrorDetails, err = json.Marshal(entry.ErrorDetails); err != nil {
			return nil, fmt.Errorf("marshal error details: %w", err)
		}
	}
	return row, nil
}

func (row *auditLogRow) toEntry() (*models.AuditLogEntry, error) {
	entry := &models.AuditLogEntry{
		ID:                 row.ID,
		TenantKey:          row.TenantKey,
		CreatedAt:          row.CreatedAt,
		OperationType:      models.OperationType(row.OperationType),
		OperationStatus:    models.OperationStatus(row.OperationStatus),
		OperationID:        row.OperationID,
		EntitySlug:         row.EntitySlug,
		EntityName:         row.EntityName,
		OperatorIdentifier: row.OperatorIdentifier,
		ErrorMessage:       row.ErrorMessage,
		IsBulk:             row.IsBulk,
		TotalCount:         row.TotalCount,
		SuccessCount:       row.SuccessCount,
		FailureCount:       row.FailureCount,
		SearchText:         row.SearchText,
	}

	if len(row.StateBefore) > 0 {
		var snap models.TemplateSnapshot
		if err := json.Unmarshal(row.StateBefore, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal state before: %w", err)
		}
		entry.StateBefore = &snap
	}
	if len(row.StateAfter) > 0 {
		var snap models.TemplateSnapshot
		if err := json.Unmarshal(row.StateAfter, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal state after: %w", err)
		}
		entry.StateAfter = &snap
	}
	if len(row.Changes) > 0 {
		var changes []models.ChangeRecord
		if err := json.Unmarshal(row.Changes, &changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes: %w", err)
		}
		entry.Changes = changes
	}
	if len(row.ErrorDetails) > 0 {
		var details interface{}
		if err := json.Unmarshal(row.ErrorDetails, &details); err != nil {
			return nil, fmt.Errorf("unmarshal error details: %w", err)
		}
		entry.ErrorDetails = details
	}
	return entry, nil
}

// Insert appends one entry and returns the assigned id. created_at is
// server-assigned here and immutable afterwards.
func (r *AuditLogRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	row, err := toRow(entry)
	if err != nil {
		return 0, err
	}

	const query = `INSERT INTO audit_logs
	(tenant_key, created_at, operation_type, operation_status, operation_id,
	 entity_slug, entity_name, state_before, state_after, changes,
	 operator_identifier, error_message, error_details,
	 is_bulk, total_count, success_count, failure_count, search_text)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		row.TenantKey, row.CreatedAt, row.OperationType, row.OperationStatus, row.OperationID,
		row.EntitySlug, row.EntityName, row.StateBefore, row.StateAfter, row.Changes,
		row.OperatorIdentifier, row.ErrorMessage, row.ErrorDetails,
		row.IsBulk, row.TotalCount, row.SuccessCount, row.FailureCount, row.SearchText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	entry.ID = id
	return id, nil
}

// GetByID fetches one entry scoped to the tenant. An id belonging to a
// different tenant yields sql.ErrNoRows, indistinguishable from absence.
func (r *AuditLogRepository) GetByID(ctx context.Context, tenantKey string, id int64) (*models.AuditLogEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE tenant_key = $1 AND id = $2`, auditLogColumns)
	var row auditLogRow
	if err := r.db.GetContext(ctx, &row, query, tenantKey, id); err != nil {
		return nil, err
	}
	return row.toEntry()
}

var auditLogOrderColumns = map[string]string{
	"id":               "id",
	"created_at":       "created_at",
	"entity_name":      "entity_name",
	"operation_type":   "operation_type",
	"operation_status": "operation_status",
}

// List returns entries matching the filter, tenant-scoped.
func (r *AuditLogRepository) List(ctx context.Context, tenantKey string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	return r.query(ctx, tenantKey, filter, "")
}

// Search matches the lowercased query against the precomputed search_text
// column, combined with any additional filters.
func (r *AuditLogRepository) Search(ctx context.Context, tenantKey, query string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	return r.query(ctx, tenantKey, filter, strings.ToLower(strings.TrimSpace(query)))
}

// ListByEntity returns every entry for one entity name, newest first.
func (r *AuditLogRepository) ListByEntity(ctx context.Context, tenantKey, entityName string) ([]models.AuditLogEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_logs
WHERE tenant_key = $1 AND entity_name = $2 ORDER BY created_at DESC, id DESC`, auditLogColumns)
	var rows []auditLogRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantKey, entityName); err != nil {
		return nil, fmt.Errorf("list audit entries by entity: %w", err)
	}
	return rowsToEntries(rows)
}

func (r *AuditLogRepository) query(ctx context.Context, tenantKey string, filter models.AuditLogFilter, search string) ([]models.AuditLogEntry, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM audit_logs", auditLogColumns))

	args := []interface{}{tenantKey}
	conditions := []string{"tenant_key = $1"}

	if filter.OperationType != "" {
		args = append(args, string(filter.OperationType))
		conditions = append(conditions, fmt.Sprintf("operation_type = $%d", len(args)))
	}
	if filter.EntityName != "" {
		args = append(args, "%"+filter.EntityName+"%")
		conditions = append(conditions, fmt.Sprintf("entity_name ILIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("operation_status = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("search_text LIKE $%d", len(args)))
	}

	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))

	orderColumn, ok := auditLogOrderColumns[filter.OrderBy]
	if !ok {
		orderColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		direction = "ASC"
	}
	builder.WriteString(fmt.Sprintf(" ORDER BY %s %s, id %s", orderColumn, direction, direction))

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var rows []auditLogRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return rowsToEntries(rows)
}

// CountByTenant returns the number of entries stored for the tenant.
func (r *AuditLogRepository) CountByTenant(ctx context.Context, tenantKey string) (int, error) {
	const query = `SELECT COUNT(*) FROM audit_logs WHERE tenant_key = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, tenantKey); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes entries created before the cutoff and returns
// the number removed. Re-running with nothing past the cutoff deletes 0.
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, tenantKey string, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM audit_logs WHERE tenant_key = $1 AND created_at < $2`
	res, err := r.db.ExecContext(ctx, query, tenantKey, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired audit entries: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted audit entries: %w", err)
	}
	return deleted, nil
}

// DeleteAllByTenant wipes every entry for the tenant regardless of age.
func (r *AuditLogRepository) DeleteAllByTenant(ctx context.Context, tenantKey string) (int64, error) {
	const query = `DELETE FROM audit_logs WHERE tenant_key = $1`
	res, err := r.db.ExecContext(ctx, query, tenantKey)
	if err != nil {
		return 0, fmt.Errorf("clear audit entries: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared audit entries: %w", err)
	}
	return deleted, nil
}

func rowsToEntries(rows []auditLogRow) ([]models.AuditLogEntry, error) {
	entries := make([]models.AuditLogEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
