package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/jobs"
)

type stubTemplateAPI struct {
	createFn func(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error)
	updateFn func(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error)
	deleteFn func(ctx context.Context, name string) (*models.TemplateSnapshot, error)
	getFn    func(ctx context.Context, name string) (*models.TemplateSnapshot, error)
}

func (s *stubTemplateAPI) Create(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
	return s.createFn(ctx, name, fields)
}

func (s *stubTemplateAPI) Update(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
	return s.updateFn(ctx, name, fields)
}

func (s *stubTemplateAPI) Delete(ctx context.Context, name string) (*models.TemplateSnapshot, error) {
	return s.deleteFn(ctx, name)
}

func (s *stubTemplateAPI) Get(ctx context.Context, name string) (*models.TemplateSnapshot, error) {
	return s.getFn(ctx, name)
}

func (s *stubTemplateAPI) List(ctx context.Context) ([]models.TemplateSnapshot, error) {
	return nil, nil
}

type recordedCall struct {
	op             models.OperationType
	before         *models.TemplateSnapshot
	after          *models.TemplateSnapshot
	operationID    *string
	total, success int
	failure        int
}

type chanRecorder struct {
	calls chan recordedCall
}

func newChanRecorder() *chanRecorder {
	return &chanRecorder{calls: make(chan recordedCall, 8)}
}

func (r *chanRecorder) RecordCreate(_ context.Context, _ string, after *models.TemplateSnapshot, _ *string) RecordResult {
	r.calls <- recordedCall{op: models.OperationCreate, after: after}
	return RecordResult{Recorded: true, EntryID: 1}
}

func (r *chanRecorder) RecordUpdate(_ context.Context, _ string, before, after *models.TemplateSnapshot, _ *string) RecordResult {
	r.calls <- recordedCall{op: models.OperationUpdate, before: before, after: after}
	return RecordResult{Recorded: true, EntryID: 1}
}

func (r *chanRecorder) RecordDelete(_ context.Context, _ string, before *models.TemplateSnapshot, _ *string) RecordResult {
	r.calls <- recordedCall{op: models.OperationDelete, before: before}
	return RecordResult{Recorded: true, EntryID: 1}
}

func (r *chanRecorder) RecordRestore(_ context.Context, _ string, before, after *models.TemplateSnapshot, operationID *string, _ *string) RecordResult {
	r.calls <- recordedCall{op: models.OperationRestore, before: before, after: after, operationID: operationID}
	return RecordResult{Recorded: true, EntryID: 1}
}

func (r *chanRecorder) RecordBulk(_ context.Context, _ string, op models.OperationType, operationID string, total, success, failure int, _ interface{}, _ *string) RecordResult {
	r.calls <- recordedCall{op: op, operationID: &operationID, total: total, success: success, failure: failure}
	return RecordResult{Recorded: true, EntryID: 1}
}

func (r *chanRecorder) wait(t *testing.T) recordedCall {
	t.Helper()
	select {
	case call := <-r.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recorder call")
		return recordedCall{}
	}
}

func (r *chanRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-r.calls:
		t.Fatalf("unexpected recorder call for %s", call.op)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestTemplateService(t *testing.T, api templateAPI, recorder mutationRecorder) *TemplateService {
	t.Helper()
	s := &TemplateService{
		clientFor:          func(string) templateAPI { return api },
		recorder:           recorder,
		beforeFetchTimeout: time.Second,
		logger:             zap.NewNop(),
	}
	s.queue = jobs.NewQueue("audit-recorder", s.handleRecordJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 8,
		Logger:     zap.NewNop(),
	})
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func TestCreateRecordsMutation(t *testing.T) {
	created := baseSnapshot()
	api := &stubTemplateAPI{
		createFn: func(_ context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
			assert.Equal(t, "Welcome Email", name)
			assert.Equal(t, "Hi", fields.Subject)
			return &created, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	result, err := svc.Create(context.Background(), "tenant-a", "raw-key", dto.CreateTemplateRequest{
		Name:    "Welcome Email",
		Subject: "Hi",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, result.Slug)

	call := recorder.wait(t)
	assert.Equal(t, models.OperationCreate, call.op)
	require.NotNil(t, call.after)
	assert.Equal(t, created.Slug, call.after.Slug)
}

func TestCreateProviderErrorNotRecorded(t *testing.T) {
	api := &stubTemplateAPI{
		createFn: func(context.Context, string, models.TemplateFields) (*models.TemplateSnapshot, error) {
			return nil, appErrors.ErrProvider
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	_, err := svc.Create(context.Background(), "tenant-a", "raw-key", dto.CreateTemplateRequest{Name: "Broken"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProvider.Code, appErrors.FromError(err).Code)
	recorder.expectNone(t)
}

func TestUpdateMergesOverBeforeSnapshot(t *testing.T) {
	before := baseSnapshot()
	after := baseSnapshot()
	after.Subject = "Hello"

	var sentFields models.TemplateFields
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) { return &before, nil },
		updateFn: func(_ context.Context, _ string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
			sentFields = fields
			return &after, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	newSubject := "Hello"
	_, err := svc.Update(context.Background(), "tenant-a", "raw-key", "Welcome Email", dto.UpdateTemplateRequest{Subject: &newSubject}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello", sentFields.Subject)
	assert.Equal(t, before.FromEmail, sentFields.FromEmail, "untouched fields carry over")
	assert.Equal(t, before.HTMLContent, sentFields.HTMLContent)

	call := recorder.wait(t)
	assert.Equal(t, models.OperationUpdate, call.op)
	require.NotNil(t, call.before)
	assert.Equal(t, "Hi", call.before.Subject)
	require.NotNil(t, call.after)
	assert.Equal(t, "Hello", call.after.Subject)
}

func TestUpdateProceedsWhenBeforeFetchFails(t *testing.T) {
	after := baseSnapshot()
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) {
			return nil, errors.New("provider timeout")
		},
		updateFn: func(context.Context, string, models.TemplateFields) (*models.TemplateSnapshot, error) {
			return &after, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	_, err := svc.Update(context.Background(), "tenant-a", "raw-key", "Welcome Email", dto.UpdateTemplateRequest{}, nil)
	require.NoError(t, err, "audit bookkeeping must not block the mutation")

	call := recorder.wait(t)
	assert.Equal(t, models.OperationUpdate, call.op)
	assert.Nil(t, call.before)
}

func TestDeleteFallsBackToProviderSnapshot(t *testing.T) {
	deleted := baseSnapshot()
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) {
			return nil, errors.New("provider timeout")
		},
		deleteFn: func(context.Context, string) (*models.TemplateSnapshot, error) {
			return &deleted, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	require.NoError(t, svc.Delete(context.Background(), "tenant-a", "raw-key", "Welcome Email", nil))

	call := recorder.wait(t)
	assert.Equal(t, models.OperationDelete, call.op)
	require.NotNil(t, call.before)
	assert.Equal(t, deleted.Slug, call.before.Slug)
}

func TestImportRecordsOneBulkEntry(t *testing.T) {
	api := &stubTemplateAPI{
		createFn: func(_ context.Context, name string, _ models.TemplateFields) (*models.TemplateSnapshot, error) {
			if name == "Bad" {
				return nil, appErrors.ErrProvider
			}
			snap := baseSnapshot()
			snap.Name = name
			return &snap, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	result, err := svc.Import(context.Background(), "tenant-a", "raw-key", dto.ImportTemplatesRequest{
		Templates: []dto.CreateTemplateRequest{{Name: "One"}, {Name: "Bad"}, {Name: "Three"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.NotEmpty(t, result.OperationID)

	call := recorder.wait(t)
	assert.Equal(t, models.OperationImport, call.op)
	assert.Equal(t, 3, call.total)
	assert.Equal(t, 2, call.success)
	assert.Equal(t, 1, call.failure)
	require.NotNil(t, call.operationID)
	assert.Equal(t, result.OperationID, *call.operationID)
}

func TestRestoreUpdatesExistingTemplate(t *testing.T) {
	current := baseSnapshot()
	current.Subject = "Hello"
	restored := baseSnapshot()

	var sentFields models.TemplateFields
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) { return &current, nil },
		updateFn: func(_ context.Context, _ string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
			sentFields = fields
			return &restored, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	target := baseSnapshot()
	entry := &models.AuditLogEntry{ID: 42, OperationType: models.OperationUpdate, StateBefore: &target}
	result, err := svc.Restore(context.Background(), "tenant-a", "raw-key", entry, nil)
	require.NoError(t, err)
	assert.Equal(t, restored.Subject, result.Subject)
	assert.Equal(t, target.Subject, sentFields.Subject)

	call := recorder.wait(t)
	assert.Equal(t, models.OperationRestore, call.op)
	require.NotNil(t, call.operationID)
	assert.Equal(t, "42", *call.operationID)
}

func TestRestoreRecreatesMissingTemplate(t *testing.T) {
	restored := baseSnapshot()
	createCalled := false
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) {
			return nil, appErrors.ErrNotFound
		},
		createFn: func(context.Context, string, models.TemplateFields) (*models.TemplateSnapshot, error) {
			createCalled = true
			return &restored, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	target := baseSnapshot()
	entry := &models.AuditLogEntry{ID: 7, OperationType: models.OperationDelete, StateBefore: &target}
	_, err := svc.Restore(context.Background(), "tenant-a", "raw-key", entry, nil)
	require.NoError(t, err)
	assert.True(t, createCalled)

	call := recorder.wait(t)
	assert.Equal(t, models.OperationRestore, call.op)
	assert.Nil(t, call.before)
}

func TestRestoreCreateEntryUsesAfterSnapshot(t *testing.T) {
	restored := baseSnapshot()
	api := &stubTemplateAPI{
		getFn: func(context.Context, string) (*models.TemplateSnapshot, error) {
			return nil, appErrors.ErrNotFound
		},
		createFn: func(_ context.Context, name string, _ models.TemplateFields) (*models.TemplateSnapshot, error) {
			assert.Equal(t, "Welcome Email", name)
			return &restored, nil
		},
	}
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, api, recorder)

	target := baseSnapshot()
	entry := &models.AuditLogEntry{ID: 9, OperationType: models.OperationCreate, StateAfter: &target}
	_, err := svc.Restore(context.Background(), "tenant-a", "raw-key", entry, nil)
	require.NoError(t, err)
	recorder.wait(t)
}

func TestRestoreWithoutSnapshotRejected(t *testing.T) {
	recorder := newChanRecorder()
	svc := newTestTemplateService(t, &stubTemplateAPI{}, recorder)

	entry := &models.AuditLogEntry{ID: 3, OperationType: models.OperationImport, IsBulk: true}
	_, err := svc.Restore(context.Background(), "tenant-a", "raw-key", entry, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	recorder.expectNone(t)
}
