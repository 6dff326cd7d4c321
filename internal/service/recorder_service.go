package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/models"
)

type recorderSettingsReader interface {
	Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error)
}

type recorderLogStore interface {
	Insert(ctx context.Context, entry *models.AuditLogEntry) (int64, error)
}

type recorderMetrics interface {
	ObserveAuditRecorded(operation string)
	ObserveAuditDropped(reason string)
}

// RecordResult reports whether an entry was written. A skipped write
// (audit disabled, or an internal failure) is not an error: recording is
// advisory and the mutation it shadows stays authoritative.
type RecordResult struct {
	Recorded bool
	EntryID  int64
}

// NotRecorded is the sentinel result for skipped writes.
var NotRecorded = RecordResult{}

// RecorderService builds and persists audit entries. Every Record method
// catches its own failures; none of them ever returns an error.
type RecorderService struct {
	settings recorderSettingsReader
	store    recorderLogStore
	metrics  recorderMetrics
	logger   *zap.Logger
}

// NewRecorderService constructs a RecorderService.
func NewRecorderService(settings recorderSettingsReader, store recorderLogStore, metrics recorderMetrics, logger *zap.Logger) *RecorderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecorderService{
		settings: settings,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// RecordCreate writes an entry for a newly created template.
func (s *RecorderService) RecordCreate(ctx context.Context, tenantKey string, after *models.TemplateSnapshot, operator *string) RecordResult {
	settings, ok := s.enabledSettings(ctx, tenantKey)
	if !ok {
		return NotRecorded
	}

	entry := &models.AuditLogEntry{
		TenantKey:       tenantKey,
		OperationType:   models.OperationCreate,
		OperationStatus: models.StatusSuccess,
		StateAfter:      after,
	}
	return s.write(ctx, entry, settings, operator)
}

// RecordUpdate writes an entry with the field-level diff between the two
// snapshots. Update entries require a before snapshot; when the
// pre-mutation fetch failed the entry cannot satisfy the store invariant
// and is dropped with a log line instead.
func (s *RecorderService) RecordUpdate(ctx context.Context, tenantKey string, before, after *models.TemplateSnapshot, operator *string) RecordResult {
	settings, ok := s.enabledSettings(ctx, tenantKey)
	if !ok {
		return NotRecorded
	}
	if before == nil {
		s.dropped("missing_before_snapshot", zap.String("operation", string(models.OperationUpdate)))
		return NotRecorded
	}

	entry := &models.AuditLogEntry{
		TenantKey:       tenantKey,
		OperationType:   models.OperationUpdate,
		OperationStatus: models.StatusSuccess,
		StateBefore:     before,
		StateAfter:      after,
	}
	if before != nil && after != nil {
		entry.Changes = Diff(*before, *after)
	}
	return s.write(ctx, entry, settings, operator)
}

// RecordDelete writes an entry preserving the deleted template's last state.
func (s *RecorderService) RecordDelete(ctx context.Context, tenantKey string, before *models.TemplateSnapshot, operator *string) RecordResult {
	settings, ok := s.enabledSettings(ctx, tenantKey)
	if !ok {
		return NotRecorded
	}
	if before == nil {
		s.dropped("missing_before_snapshot", zap.String("operation", string(models.OperationDelete)))
		return NotRecorded
	}

	entry := &models.AuditLogEntry{
		TenantKey:       tenantKey,
		OperationType:   models.OperationDelete,
		OperationStatus: models.StatusSuccess,
		StateBefore:     before,
	}
	return s.write(ctx, entry, settings, operator)
}

// RecordRestore writes an entry for a template restored from a prior
// audit snapshot.
func (s *RecorderService) RecordRestore(ctx context.Context, tenantKey string, before, after *models.TemplateSnapshot, operationID *string, operator *string) RecordResult {
	settings, ok := s.enabledSettings(ctx, tenantKey)
	if !ok {
		return NotRecorded
	}

	entry := &models.AuditLogEntry{
		TenantKey:       tenantKey,
		OperationType:   models.OperationRestore,
		OperationStatus: models.StatusSuccess,
		OperationID:     operationID,
		StateBefore:     before,
		StateAfter:      after,
	}
	return s.write(ctx, entry, settings, operator)
}

// RecordBulk writes one aggregate entry for a bulk action such as an
// import. The count invariant is enforced by the entry builder.
func (s *RecorderService) RecordBulk(ctx context.Context, tenantKey string, op models.OperationType, operationID string, total, success, failure int, details interface{}, operator *string) RecordResult {
	settings, ok := s.enabledSettings(ctx, tenantKey)
	if !ok {
		return NotRecorded
	}

	entry, err := models.NewBulkEntry(tenantKey, op, total, success, failure, details, operator)
	if err != nil {
		s.dropped("invalid_bulk_entry", zap.Error(err), zap.String("operation", string(op)))
		return NotRecorded
	}
	if operationID != "" {
		entry.OperationID = &operationID
	}
	return s.write(ctx, entry, settings, operator)
}

func (s *RecorderService) enabledSettings(ctx context.Context, tenantKey string) (*models.AuditSettings, bool) {
	settings, err := s.settings.Get(ctx, tenantKey)
	if err != nil {
		s.dropped("settings_unavailable", zap.Error(err))
		return nil, false
	}
	if !settings.Enabled {
		return nil, false
	}
	return settings, true
}

func (s *RecorderService) write(ctx context.Context, entry *models.AuditLogEntry, settings *models.AuditSettings, operator *string) RecordResult {
	if entry.OperatorIdentifier == nil {
		if operator != nil {
			entry.OperatorIdentifier = operator
		} else {
			entry.OperatorIdentifier = settings.OperatorIdentifier
		}
	}
	if entry.EntityName == "" {
		entry.EntityName = snapshotName(entry.StateAfter, entry.StateBefore)
	}
	if entry.EntitySlug == nil {
		if slug := snapshotSlug(entry.StateAfter, entry.StateBefore); slug != "" {
			entry.EntitySlug = &slug
		}
	}
	entry.SearchText = buildSearchText(entry)

	id, err := s.store.Insert(ctx, entry)
	if err != nil {
		s.dropped("store_failure", zap.Error(err),
			zap.String("operation", string(entry.OperationType)),
			zap.String("entity", entry.EntityName))
		return NotRecorded
	}

	if s.metrics != nil {
		s.metrics.ObserveAuditRecorded(string(entry.OperationType))
	}
	return RecordResult{Recorded: true, EntryID: id}
}

func (s *RecorderService) dropped(reason string, fields ...zap.Field) {
	s.logger.Warn("audit entry not recorded", append(fields, zap.String("reason", reason))...)
	if s.metrics != nil {
		s.metrics.ObserveAuditDropped(reason)
	}
}

// buildSearchText derives the lowercase haystack matched by free-text
// search. It is computed once at write time and never recomputed. Labels
// are taken from whichever snapshot is present, so delete entries stay
// label-searchable.
func buildSearchText(entry *models.AuditLogEntry) string {
	parts := []string{entry.EntityName}
	if entry.EntitySlug != nil {
		parts = append(parts, *entry.EntitySlug)
	}
	if snap := firstSnapshot(entry.StateAfter, entry.StateBefore); snap != nil {
		parts = append(parts, snap.Labels...)
	}
	parts = append(parts, string(entry.OperationType), string(entry.OperationStatus))
	if entry.OperatorIdentifier != nil {
		parts = append(parts, *entry.OperatorIdentifier)
	}

	filtered := parts[:0]
	for _, part := range parts {
		if part != "" {
			filtered = append(filtered, part)
		}
	}
	return strings.ToLower(strings.Join(filtered, " "))
}

func firstSnapshot(candidates ...*models.TemplateSnapshot) *models.TemplateSnapshot {
	for _, snap := range candidates {
		if snap != nil {
			return snap
		}
	}
	return nil
}

func snapshotName(candidates ...*models.TemplateSnapshot) string {
	if snap := firstSnapshot(candidates...); snap != nil {
		return snap.Name
	}
	return ""
}

func snapshotSlug(candidates ...*models.TemplateSnapshot) string {
	if snap := firstSnapshot(candidates...); snap != nil {
		return snap.Slug
	}
	return ""
}
