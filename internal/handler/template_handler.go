package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/response"
)

type templateService interface {
	Get(ctx context.Context, apiKey, name string) (*models.TemplateSnapshot, error)
	List(ctx context.Context, apiKey string) ([]models.TemplateSnapshot, error)
	Create(ctx context.Context, tenantKey, apiKey string, req dto.CreateTemplateRequest, operator *string) (*models.TemplateSnapshot, error)
	Update(ctx context.Context, tenantKey, apiKey, name string, req dto.UpdateTemplateRequest, operator *string) (*models.TemplateSnapshot, error)
	Delete(ctx context.Context, tenantKey, apiKey, name string, operator *string) error
	Import(ctx context.Context, tenantKey, apiKey string, req dto.ImportTemplatesRequest, operator *string) (*dto.ImportTemplatesResponse, error)
	Restore(ctx context.Context, tenantKey, apiKey string, entry *models.AuditLogEntry, operator *string) (*models.TemplateSnapshot, error)
}

type auditEntryReader interface {
	GetByID(ctx context.Context, tenantKey string, id int64) (*models.AuditLogEntry, error)
}

// TemplateHandler proxies template management through the audited wrapper.
type TemplateHandler struct {
	templates templateService
	entries   auditEntryReader
	validate  *validator.Validate
}

// NewTemplateHandler constructs handler.
func NewTemplateHandler(templates templateService, entries auditEntryReader, validate *validator.Validate) *TemplateHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &TemplateHandler{templates: templates, entries: entries, validate: validate}
}

// List godoc
// @Summary List templates
// @Tags Templates
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context(), apiKeyFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get a template
// @Tags Templates
// @Produce json
// @Param name path string true "Template name"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /templates/{name} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.Get(c.Request.Context(), apiKeyFrom(c), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Create godoc
// @Summary Create a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template payload"
// @Security ApiKeyAuth
// @Success 201 {object} response.Envelope
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.templates.Create(c.Request.Context(), tenantKeyFrom(c), apiKeyFrom(c), req, operatorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// Update godoc
// @Summary Update a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param name path string true "Template name"
// @Param payload body dto.UpdateTemplateRequest true "Template patch"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /templates/{name} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.templates.Update(c.Request.Context(), tenantKeyFrom(c), apiKeyFrom(c), c.Param("name"), req, operatorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Delete godoc
// @Summary Delete a template
// @Tags Templates
// @Param name path string true "Template name"
// @Security ApiKeyAuth
// @Success 204
// @Router /templates/{name} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), tenantKeyFrom(c), apiKeyFrom(c), c.Param("name"), operatorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import a batch of templates
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.ImportTemplatesRequest true "Batch payload"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /templates/import [post]
func (h *TemplateHandler) Import(c *gin.Context) {
	var req dto.ImportTemplatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.templates.Import(c.Request.Context(), tenantKeyFrom(c), apiKeyFrom(c), req, operatorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Restore godoc
// @Summary Restore the template state captured by an audit entry
// @Tags Templates
// @Produce json
// @Param id path int true "Audit entry ID"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/{id}/restore [post]
func (h *TemplateHandler) Restore(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid entry id"))
		return
	}

	tenantKey := tenantKeyFrom(c)
	entry, err := h.entries.GetByID(c.Request.Context(), tenantKey, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	template, err := h.templates.Restore(c.Request.Context(), tenantKey, apiKeyFrom(c), entry, operatorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}
