package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/export"
)

type auditLogReader interface {
	GetByID(ctx context.Context, tenantKey string, id int64) (*models.AuditLogEntry, error)
	List(ctx context.Context, tenantKey string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
	Search(ctx context.Context, tenantKey, query string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
	ListByEntity(ctx context.Context, tenantKey, entityName string) ([]models.AuditLogEntry, error)
	CountByTenant(ctx context.Context, tenantKey string) (int, error)
}

// AuditLogService exposes read access to the audit trail.
type AuditLogService struct {
	repo          auditLogReader
	exportMaxRows int
	logger        *zap.Logger
}

// NewAuditLogService constructs an AuditLogService.
func NewAuditLogService(repo auditLogReader, exportMaxRows int, logger *zap.Logger) *AuditLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exportMaxRows <= 0 {
		exportMaxRows = 10000
	}
	return &AuditLogService{repo: repo, exportMaxRows: exportMaxRows, logger: logger}
}

// GetByID fetches a single entry scoped to the tenant. An entry owned by
// another tenant is indistinguishable from a missing one.
func (s *AuditLogService) GetByID(ctx context.Context, tenantKey string, id int64) (*models.AuditLogEntry, error) {
	entry, err := s.repo.GetByID(ctx, tenantKey, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "audit log entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "get audit log entry")
	}
	return entry, nil
}

// List returns the tenant's entries matching the filter.
func (s *AuditLogService) List(ctx context.Context, tenantKey string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	entries, err := s.repo.List(ctx, tenantKey, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list audit log entries")
	}
	return entries, nil
}

// Search returns entries whose indexed text matches the query,
// case-insensitively, further narrowed by the filter.
func (s *AuditLogService) Search(ctx context.Context, tenantKey, query string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	entries, err := s.repo.Search(ctx, tenantKey, query, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search audit log entries")
	}
	return entries, nil
}

// ListByEntity returns the full history of one template, newest first.
func (s *AuditLogService) ListByEntity(ctx context.Context, tenantKey, entityName string) ([]models.AuditLogEntry, error) {
	entries, err := s.repo.ListByEntity(ctx, tenantKey, entityName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list entity history")
	}
	return entries, nil
}

// Count returns the total number of entries for the tenant.
func (s *AuditLogService) Count(ctx context.Context, tenantKey string) (int, error) {
	count, err := s.repo.CountByTenant(ctx, tenantKey)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count audit log entries")
	}
	return count, nil
}

// ExportDataset materialises the filtered entries as a tabular dataset for
// CSV or PDF export, capped at the configured row limit.
func (s *AuditLogService) ExportDataset(ctx context.Context, tenantKey string, filter models.AuditLogFilter) (*export.Dataset, error) {
	if filter.Limit <= 0 || filter.Limit > s.exportMaxRows {
		filter.Limit = s.exportMaxRows
	}
	entries, err := s.List(ctx, tenantKey, filter)
	if err != nil {
		return nil, err
	}

	dataset := &export.Dataset{
		Name:    fmt.Sprintf("audit-logs-%s", time.Now().UTC().Format("20060102-150405")),
		Headers: []string{"ID", "Created At", "Operation", "Status", "Entity", "Operator", "Changes", "Error"},
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         strconv.FormatInt(entry.ID, 10),
			"Created At": entry.CreatedAt.UTC().Format(time.RFC3339),
			"Operation":  string(entry.OperationType),
			"Status":     string(entry.OperationStatus),
			"Entity":     entry.EntityName,
			"Operator":   strValue(entry.OperatorIdentifier),
			"Changes":    summariseChanges(entry.Changes),
			"Error":      strValue(entry.ErrorMessage),
		})
	}
	return dataset, nil
}

func summariseChanges(changes []models.ChangeRecord) string {
	if len(changes) == 0 {
		return ""
	}
	out := ""
	for i, change := range changes {
		if i > 0 {
			out += "; "
		}
		out += change.Field
	}
	return out
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
