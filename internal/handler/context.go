package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stencilmail/stencil-api/internal/middleware"
)

func tenantKeyFrom(c *gin.Context) string {
	return c.GetString(middleware.ContextTenantKey)
}

func apiKeyFrom(c *gin.Context) string {
	return c.GetString(middleware.ContextAPIKey)
}

func operatorFrom(c *gin.Context) *string {
	if operator := c.GetHeader("X-Operator"); operator != "" {
		return &operator
	}
	return nil
}
