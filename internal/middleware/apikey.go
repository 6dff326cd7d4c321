package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stencilmail/stencil-api/internal/tenant"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/response"
)

const (
	// ContextTenantKey stores the derived tenant key in the gin context.
	ContextTenantKey = "tenantKey"
	// ContextAPIKey stores the raw provider credential for the duration of
	// the request. It is forwarded to the email provider only and must not
	// be persisted anywhere.
	ContextAPIKey = "apiKey"

	apiKeyHeader = "X-API-Key"
)

// APIKey requires the provider credential header on every request and
// derives the tenant key the engine scopes all reads and writes by.
func APIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(apiKeyHeader)
		if raw == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing API key"))
			c.Abort()
			return
		}

		c.Set(ContextAPIKey, raw)
		c.Set(ContextTenantKey, tenant.DeriveKey(raw))
		c.Next()
	}
}
