package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencilmail/stencil-api/internal/middleware"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/export"
)

type auditLogServiceMock struct {
	entries    []models.AuditLogEntry
	entry      *models.AuditLogEntry
	getErr     error
	lastFilter models.AuditLogFilter
	lastQuery  string
}

func (m *auditLogServiceMock) GetByID(context.Context, string, int64) (*models.AuditLogEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entry, nil
}

func (m *auditLogServiceMock) List(_ context.Context, _ string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	m.lastFilter = filter
	return m.entries, nil
}

func (m *auditLogServiceMock) Search(_ context.Context, _ string, query string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	m.lastQuery = query
	m.lastFilter = filter
	return m.entries, nil
}

func (m *auditLogServiceMock) ListByEntity(context.Context, string, string) ([]models.AuditLogEntry, error) {
	return m.entries, nil
}

func (m *auditLogServiceMock) CountByTenant(context.Context, string) (int, error) {
	return len(m.entries), nil
}

func (m *auditLogServiceMock) Count(context.Context, string) (int, error) {
	return len(m.entries), nil
}

func (m *auditLogServiceMock) ExportDataset(context.Context, string, models.AuditLogFilter) (*export.Dataset, error) {
	return &export.Dataset{
		Name:    "audit-logs-test",
		Headers: []string{"ID", "Entity"},
		Rows:    []map[string]string{{"ID": "1", "Entity": "Welcome Email"}},
	}, nil
}

func newAuditLogHandlerUnderTest(svc auditLogService) *AuditLogHandler {
	return NewAuditLogHandler(svc, export.NewCSVExporter(), export.NewPDFExporter(), nil)
}

func newAuditLogContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextTenantKey, "tenant-a")
	return c, w
}

func TestAuditLogHandlerListParsesFilter(t *testing.T) {
	svc := &auditLogServiceMock{}
	handler := newAuditLogHandlerUnderTest(svc)

	c, w := newAuditLogContext(t, "/audit-logs?operation_type=update&entity_name=Welcome&limit=10&order_by=created_at&order_dir=asc&date_from=2025-05-01")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OperationUpdate, svc.lastFilter.OperationType)
	assert.Equal(t, "Welcome", svc.lastFilter.EntityName)
	assert.Equal(t, 10, svc.lastFilter.Limit)
	assert.Equal(t, "asc", svc.lastFilter.OrderDir)
	require.NotNil(t, svc.lastFilter.DateFrom)
	assert.Equal(t, "2025-05-01", svc.lastFilter.DateFrom.Format("2006-01-02"))
}

func TestAuditLogHandlerListRejectsBadOperation(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{})

	c, w := newAuditLogContext(t, "/audit-logs?operation_type=bogus")
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditLogHandlerSearchRequiresQuery(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{})

	c, w := newAuditLogContext(t, "/audit-logs/search")
	handler.Search(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditLogHandlerSearchPassesQuery(t *testing.T) {
	svc := &auditLogServiceMock{}
	handler := newAuditLogHandlerUnderTest(svc)

	c, w := newAuditLogContext(t, "/audit-logs/search?q=welcome")
	handler.Search(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "welcome", svc.lastQuery)
}

func TestAuditLogHandlerGetInvalidID(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{})

	c, w := newAuditLogContext(t, "/audit-logs/abc")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditLogHandlerGetNotFound(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{getErr: appErrors.ErrNotFound})

	c, w := newAuditLogContext(t, "/audit-logs/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditLogHandlerExportCSV(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{})

	c, w := newAuditLogContext(t, "/audit-logs/export?format=csv")
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit-logs-test.csv")
	assert.Contains(t, w.Body.String(), "Welcome Email")
}

func TestAuditLogHandlerExportRejectsUnknownFormat(t *testing.T) {
	handler := newAuditLogHandlerUnderTest(&auditLogServiceMock{})

	c, w := newAuditLogContext(t, "/audit-logs/export?format=xlsx")
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
