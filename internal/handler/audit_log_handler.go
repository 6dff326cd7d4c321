package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/export"
	"github.com/stencilmail/stencil-api/pkg/response"
)

type auditLogService interface {
	GetByID(ctx context.Context, tenantKey string, id int64) (*models.AuditLogEntry, error)
	List(ctx context.Context, tenantKey string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
	Search(ctx context.Context, tenantKey, query string, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
	ListByEntity(ctx context.Context, tenantKey, entityName string) ([]models.AuditLogEntry, error)
	Count(ctx context.Context, tenantKey string) (int, error)
	ExportDataset(ctx context.Context, tenantKey string, filter models.AuditLogFilter) (*export.Dataset, error)
}

// AuditLogHandler exposes read access to the audit trail.
type AuditLogHandler struct {
	logs     auditLogService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	validate *validator.Validate
}

// NewAuditLogHandler constructs handler.
func NewAuditLogHandler(logs auditLogService, csv *export.CSVExporter, pdf *export.PDFExporter, validate *validator.Validate) *AuditLogHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AuditLogHandler{logs: logs, csv: csv, pdf: pdf, validate: validate}
}

// List godoc
// @Summary List audit log entries
// @Tags AuditLogs
// @Produce json
// @Param operation_type query string false "Filter by operation type"
// @Param entity_name query string false "Filter by template name"
// @Param operation_status query string false "Filter by status"
// @Param date_from query string false "Entries at or after this time"
// @Param date_to query string false "Entries at or before this time"
// @Param order_by query string false "Sort column"
// @Param order_dir query string false "Sort direction"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditLogHandler) List(c *gin.Context) {
	filter, err := h.bindFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	tenantKey := tenantKeyFrom(c)
	entries, err := h.logs.List(c.Request.Context(), tenantKey, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.logs.Count(c.Request.Context(), tenantKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, Count: total})
}

// Search godoc
// @Summary Search audit log entries
// @Tags AuditLogs
// @Produce json
// @Param q query string true "Search term"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/search [get]
func (h *AuditLogHandler) Search(c *gin.Context) {
	var query dto.SearchAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	filter, err := toFilter(query.ListAuditLogsQuery)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.logs.Search(c.Request.Context(), tenantKeyFrom(c), query.Query, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get a single audit log entry
// @Tags AuditLogs
// @Produce json
// @Param id path int true "Entry ID"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/{id} [get]
func (h *AuditLogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid entry id"))
		return
	}
	entry, err := h.logs.GetByID(c.Request.Context(), tenantKeyFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// History godoc
// @Summary Full audit history of one template
// @Tags AuditLogs
// @Produce json
// @Param name path string true "Template name"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/entity/{name} [get]
func (h *AuditLogHandler) History(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing template name"))
		return
	}
	entries, err := h.logs.ListByEntity(c.Request.Context(), tenantKeyFrom(c), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export audit log entries as CSV or PDF
// @Tags AuditLogs
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Security ApiKeyAuth
// @Success 200 {file} file
// @Router /audit-logs/export [get]
func (h *AuditLogHandler) Export(c *gin.Context) {
	filter, err := h.bindFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset, err := h.logs.ExportDataset(c.Request.Context(), tenantKeyFrom(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		payload, err := h.csv.Render(*dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "render csv export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", dataset.Name))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(*dataset, "Audit Log")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "render pdf export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", dataset.Name))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func (h *AuditLogHandler) bindFilter(c *gin.Context) (models.AuditLogFilter, error) {
	var query dto.ListAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return models.AuditLogFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query")
	}
	if err := h.validate.Struct(query); err != nil {
		return models.AuditLogFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query")
	}
	return toFilter(query)
}

func toFilter(query dto.ListAuditLogsQuery) (models.AuditLogFilter, error) {
	filter := models.AuditLogFilter{
		OperationType: models.OperationType(query.OperationType),
		EntityName:    query.EntityName,
		Status:        models.OperationStatus(query.OperationStatus),
		OrderBy:       query.OrderBy,
		OrderDir:      query.OrderDir,
		Limit:         query.Limit,
		Offset:        query.Offset,
	}

	var err error
	if filter.DateFrom, err = parseTime(query.DateFrom); err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "invalid date_from")
	}
	if filter.DateTo, err = parseTime(query.DateTo); err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "invalid date_to")
	}
	return filter, nil
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("unrecognised time %q", raw)
}
