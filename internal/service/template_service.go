package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	"github.com/stencilmail/stencil-api/internal/provider"
	"github.com/stencilmail/stencil-api/pkg/config"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/jobs"
)

type templateAPI interface {
	Create(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error)
	Update(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error)
	Delete(ctx context.Context, name string) (*models.TemplateSnapshot, error)
	Get(ctx context.Context, name string) (*models.TemplateSnapshot, error)
	List(ctx context.Context) ([]models.TemplateSnapshot, error)
}

type mutationRecorder interface {
	RecordCreate(ctx context.Context, tenantKey string, after *models.TemplateSnapshot, operator *string) RecordResult
	RecordUpdate(ctx context.Context, tenantKey string, before, after *models.TemplateSnapshot, operator *string) RecordResult
	RecordDelete(ctx context.Context, tenantKey string, before *models.TemplateSnapshot, operator *string) RecordResult
	RecordRestore(ctx context.Context, tenantKey string, before, after *models.TemplateSnapshot, operationID *string, operator *string) RecordResult
	RecordBulk(ctx context.Context, tenantKey string, op models.OperationType, operationID string, total, success, failure int, details interface{}, operator *string) RecordResult
}

// recordJob is the payload handed to the background recording queue.
type recordJob struct {
	tenantKey   string
	op          models.OperationType
	before      *models.TemplateSnapshot
	after       *models.TemplateSnapshot
	operationID *string
	operator    *string

	total   int
	success int
	failure int
	details interface{}
}

// TemplateService proxies template mutations to the email provider and
// records each one on the tenant's audit trail. Recording is asynchronous
// and best-effort: a mutation's outcome never depends on the audit write,
// and a recording failure never surfaces to the caller.
type TemplateService struct {
	clientFor          func(apiKey string) templateAPI
	recorder           mutationRecorder
	queue              *jobs.Queue
	beforeFetchTimeout time.Duration
	logger             *zap.Logger
}

// NewTemplateService constructs a TemplateService backed by the provider
// client, with its own recording queue.
func NewTemplateService(client *provider.Client, recorder mutationRecorder, providerCfg config.ProviderConfig, auditCfg config.AuditConfig, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TemplateService{
		clientFor: func(apiKey string) templateAPI {
			return client.ForKey(apiKey)
		},
		recorder:           recorder,
		beforeFetchTimeout: providerCfg.BeforeFetchTimeout,
		logger:             logger,
	}
	s.queue = jobs.NewQueue("audit-recorder", s.handleRecordJob, jobs.QueueConfig{
		Workers:    auditCfg.QueueWorkers,
		BufferSize: auditCfg.QueueBuffer,
		Logger:     logger,
	})
	return s
}

// Start launches the background recording workers.
func (s *TemplateService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the recording workers.
func (s *TemplateService) Stop() {
	s.queue.Stop()
}

// Get fetches a single template from the provider.
func (s *TemplateService) Get(ctx context.Context, apiKey, name string) (*models.TemplateSnapshot, error) {
	return s.clientFor(apiKey).Get(ctx, name)
}

// List fetches all templates from the provider.
func (s *TemplateService) List(ctx context.Context, apiKey string) ([]models.TemplateSnapshot, error) {
	return s.clientFor(apiKey).List(ctx)
}

// Create creates a template at the provider and records the mutation.
// Provider errors propagate unchanged; nothing is recorded for a failed
// mutation.
func (s *TemplateService) Create(ctx context.Context, tenantKey, apiKey string, req dto.CreateTemplateRequest, operator *string) (*models.TemplateSnapshot, error) {
	after, err := s.clientFor(apiKey).Create(ctx, req.Name, models.TemplateFields{
		Subject:     req.Subject,
		HTMLContent: req.HTMLContent,
		PlainText:   req.PlainText,
		FromEmail:   req.FromEmail,
		FromName:    req.FromName,
		Labels:      req.Labels,
	})
	if err != nil {
		return nil, err
	}

	s.enqueue(recordJob{tenantKey: tenantKey, op: models.OperationCreate, after: after, operator: operator})
	return after, nil
}

// Update patches a template at the provider. The pre-mutation state is
// fetched first under a bounded timeout so the audit entry can carry a
// field-level diff; if that fetch fails the update still proceeds.
func (s *TemplateService) Update(ctx context.Context, tenantKey, apiKey, name string, req dto.UpdateTemplateRequest, operator *string) (*models.TemplateSnapshot, error) {
	api := s.clientFor(apiKey)
	before := s.fetchBefore(ctx, api, name)

	fields := mergeFields(before, req)
	after, err := api.Update(ctx, name, fields)
	if err != nil {
		return nil, err
	}

	s.enqueue(recordJob{tenantKey: tenantKey, op: models.OperationUpdate, before: before, after: after, operator: operator})
	return after, nil
}

// Delete removes a template at the provider and records the deletion with
// the last known state of the template.
func (s *TemplateService) Delete(ctx context.Context, tenantKey, apiKey, name string, operator *string) error {
	api := s.clientFor(apiKey)
	before := s.fetchBefore(ctx, api, name)

	deleted, err := api.Delete(ctx, name)
	if err != nil {
		return err
	}
	if before == nil {
		before = deleted
	}

	s.enqueue(recordJob{tenantKey: tenantKey, op: models.OperationDelete, before: before, operator: operator})
	return nil
}

// Import creates a batch of templates, tolerating per-item failures, and
// records the batch as a single bulk audit entry.
func (s *TemplateService) Import(ctx context.Context, tenantKey, apiKey string, req dto.ImportTemplatesRequest, operator *string) (*dto.ImportTemplatesResponse, error) {
	api := s.clientFor(apiKey)
	operationID := uuid.NewString()

	result := &dto.ImportTemplatesResponse{
		OperationID: operationID,
		Total:       len(req.Templates),
	}
	for i, item := range req.Templates {
		_, err := api.Create(ctx, item.Name, models.TemplateFields{
			Subject:     item.Subject,
			HTMLContent: item.HTMLContent,
			PlainText:   item.PlainText,
			FromEmail:   item.FromEmail,
			FromName:    item.FromName,
			Labels:      item.Labels,
		})
		if err != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, dto.ImportFailure{
				Index: i,
				Name:  item.Name,
				Error: appErrors.FromError(err).Message,
			})
			continue
		}
		result.SuccessCount++
	}

	s.enqueue(recordJob{
		tenantKey:   tenantKey,
		op:          models.OperationImport,
		operationID: &operationID,
		operator:    operator,
		total:       result.Total,
		success:     result.SuccessCount,
		failure:     result.FailureCount,
		details:     result.Failures,
	})
	return result, nil
}

// Restore re-applies the template state captured by an audit entry. The
// entry's pre-mutation snapshot wins; a create entry falls back to its
// post-mutation snapshot. The template is updated when it still exists at
// the provider and recreated when it does not.
func (s *TemplateService) Restore(ctx context.Context, tenantKey, apiKey string, entry *models.AuditLogEntry, operator *string) (*models.TemplateSnapshot, error) {
	target := entry.StateBefore
	if target == nil {
		target = entry.StateAfter
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audit entry carries no snapshot to restore")
	}

	api := s.clientFor(apiKey)
	before := s.fetchBefore(ctx, api, target.Name)

	fields := models.TemplateFields{
		Subject:     target.Subject,
		HTMLContent: target.HTMLContent,
		PlainText:   target.PlainText,
		FromEmail:   target.FromEmail,
		FromName:    target.FromName,
		Labels:      target.Labels,
	}

	var (
		after *models.TemplateSnapshot
		err   error
	)
	if before != nil {
		after, err = api.Update(ctx, target.Name, fields)
	} else {
		after, err = api.Create(ctx, target.Name, fields)
	}
	if err != nil {
		return nil, err
	}

	sourceID := strconv.FormatInt(entry.ID, 10)
	s.enqueue(recordJob{
		tenantKey:   tenantKey,
		op:          models.OperationRestore,
		before:      before,
		after:       after,
		operationID: &sourceID,
		operator:    operator,
	})
	return after, nil
}

// fetchBefore captures the current provider state under a bounded timeout.
// Failure is tolerated: the mutation must not be blocked by audit
// bookkeeping.
func (s *TemplateService) fetchBefore(ctx context.Context, api templateAPI, name string) *models.TemplateSnapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, s.beforeFetchTimeout)
	defer cancel()

	before, err := api.Get(fetchCtx, name)
	if err != nil {
		s.logger.Warn("pre-mutation snapshot unavailable",
			zap.String("template", name),
			zap.Error(err))
		return nil
	}
	return before
}

func (s *TemplateService) enqueue(job recordJob) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(job.op),
		Payload: job,
	})
	if err != nil {
		s.logger.Error("audit record enqueue failed",
			zap.String("operation", string(job.op)),
			zap.Error(err))
	}
}

// handleRecordJob dispatches a queued mutation to the recorder. The
// recorder swallows its own failures, so the handler never retries.
func (s *TemplateService) handleRecordJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(recordJob)
	if !ok {
		s.logger.Error("unexpected record job payload", zap.String("job_id", job.ID))
		return nil
	}

	switch payload.op {
	case models.OperationCreate:
		s.recorder.RecordCreate(ctx, payload.tenantKey, payload.after, payload.operator)
	case models.OperationUpdate:
		s.recorder.RecordUpdate(ctx, payload.tenantKey, payload.before, payload.after, payload.operator)
	case models.OperationDelete:
		s.recorder.RecordDelete(ctx, payload.tenantKey, payload.before, payload.operator)
	case models.OperationRestore:
		s.recorder.RecordRestore(ctx, payload.tenantKey, payload.before, payload.after, payload.operationID, payload.operator)
	case models.OperationImport:
		var operationID string
		if payload.operationID != nil {
			operationID = *payload.operationID
		}
		s.recorder.RecordBulk(ctx, payload.tenantKey, payload.op, operationID, payload.total, payload.success, payload.failure, payload.details, payload.operator)
	}
	return nil
}

// mergeFields overlays the requested changes on the current template
// state. Without a pre-mutation snapshot only the requested fields are
// sent.
func mergeFields(before *models.TemplateSnapshot, req dto.UpdateTemplateRequest) models.TemplateFields {
	var fields models.TemplateFields
	if before != nil {
		fields = models.TemplateFields{
			Subject:     before.Subject,
			HTMLContent: before.HTMLContent,
			PlainText:   before.PlainText,
			FromEmail:   before.FromEmail,
			FromName:    before.FromName,
			Labels:      before.Labels,
		}
	}
	if req.Subject != nil {
		fields.Subject = *req.Subject
	}
	if req.HTMLContent != nil {
		fields.HTMLContent = *req.HTMLContent
	}
	if req.PlainText != nil {
		fields.PlainText = *req.PlainText
	}
	if req.FromEmail != nil {
		fields.FromEmail = *req.FromEmail
	}
	if req.FromName != nil {
		fields.FromName = *req.FromName
	}
	if req.Labels != nil {
		fields.Labels = req.Labels
	}
	return fields
}
