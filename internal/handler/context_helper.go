package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/middleware"
	"github.com/openedu/registrar-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.APIClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.APIClaims)
	if !ok {
		return nil
	}
	return claims
}

// apiPrefix extracts the versioned facade prefix ("/v1", "/v2") of the
// current route so generated URLs point back at the facade the client used.
func apiPrefix(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.Index(trimmed, "/"); idx > 0 {
		return "/" + trimmed[:idx]
	}
	return "/" + trimmed
}
