package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stencilmail/stencil-api/internal/dto"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/response"
)

type cleanupService interface {
	Cleanup(ctx context.Context, tenantKey string) (int64, error)
	ClearAll(ctx context.Context, tenantKey string) (int64, error)
}

type confirmationIssuer interface {
	Issue(tenantKey string) (string, error)
	Verify(token, tenantKey string) error
	TTL() time.Duration
}

// CleanupHandler triggers retention cleanup and confirmation-gated wipes.
type CleanupHandler struct {
	retention    cleanupService
	confirmation confirmationIssuer
}

// NewCleanupHandler constructs handler.
func NewCleanupHandler(retention cleanupService, confirmation confirmationIssuer) *CleanupHandler {
	return &CleanupHandler{retention: retention, confirmation: confirmation}
}

// Confirm godoc
// @Summary Issue a confirmation token authorising a full audit wipe
// @Tags Cleanup
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/cleanup/confirm [post]
func (h *CleanupHandler) Confirm(c *gin.Context) {
	token, err := h.confirmation.Issue(tenantKeyFrom(c))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "issue confirmation token"))
		return
	}
	response.JSON(c, http.StatusOK, dto.ConfirmationResponse{
		ConfirmationToken: token,
		ExpiresIn:         int(h.confirmation.TTL().Seconds()),
	}, nil)
}

// Cleanup godoc
// @Summary Delete audit entries past the retention window, or wipe the trail
// @Tags Cleanup
// @Accept json
// @Produce json
// @Param payload body dto.CleanupRequest false "Cleanup options"
// @Security ApiKeyAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs/cleanup [post]
func (h *CleanupHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	tenantKey := tenantKeyFrom(c)
	if req.ClearAll {
		if err := h.confirmation.Verify(req.ConfirmationToken, tenantKey); err != nil {
			response.Error(c, err)
			return
		}
		if _, err := h.retention.ClearAll(c.Request.Context(), tenantKey); err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dto.CleanupResponse{Deleted: "all"}, nil)
		return
	}

	deleted, err := h.retention.Cleanup(c.Request.Context(), tenantKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CleanupResponse{Deleted: deleted}, nil)
}
