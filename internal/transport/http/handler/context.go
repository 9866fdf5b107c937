package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/model"
	"creditmemo/internal/transport/http/middleware"
	"creditmemo/internal/transport/http/response"
)

// requireTenant reads the scope set by middleware.ResolveTenant and writes
// a 403 when it is missing.
func requireTenant(c *gin.Context) (model.TenantScope, bool) {
	scope, ok := middleware.TenantScope(c)
	if !ok {
		response.Error(c, http.StatusForbidden, response.CodeNoTenant, "tenant scope missing")
		return model.TenantScope{}, false
	}
	return scope, true
}
