package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/model"
	"creditmemo/internal/transport/http/response"
)

const ContextTenantScopeKey = "tenant_scope"

type TenantResolver interface {
	ResolveTenant(ctx context.Context, userID string) (model.TenantScope, error)
}

// ResolveTenant must run after AuthJWT. It stores the caller's TenantScope
// on the context and rejects users without a membership.
func ResolveTenant(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
			c.Abort()
			return
		}

		scope, err := resolver.ResolveTenant(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, app.ErrNoTenant) {
				response.Error(c, http.StatusForbidden, response.CodeNoTenant, "no tenant membership for user")
			} else {
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resolve tenant failed")
			}
			c.Abort()
			return
		}

		c.Set(ContextTenantScopeKey, scope)
		c.Next()
	}
}

func TenantScope(c *gin.Context) (model.TenantScope, bool) {
	v, exists := c.Get(ContextTenantScopeKey)
	if !exists {
		return model.TenantScope{}, false
	}
	scope, ok := v.(model.TenantScope)
	return scope, ok && scope.Valid()
}
