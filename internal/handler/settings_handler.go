package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/models"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, tenantKey string) (*models.AuditSettings, error)
	Update(ctx context.Context, tenantKey string, req dto.UpdateAuditSettingsRequest) (*models.AuditSettings, error)
}

// SettingsHandler exposes per-tenant audit settings.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Get audit settings for the calling tenant
// @Tags Settings
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), tenantKeyFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update audit settings for the calling tenant
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAuditSettingsRequest true "Settings patch"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateAuditSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), tenantKeyFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
