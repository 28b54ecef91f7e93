package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/service"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
	"github.com/oncoward/ward-api/pkg/response"
)

// ContextUserKey is where the authenticated subject lands in gin's context.
const ContextUserKey = "auth.subject"

// JWT guards routes with a bearer token issued by the auth service. When
// auth is not configured the middleware passes everything through, which is
// how trusted single-ward deployments run.
func JWT(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, ""))
			c.Abort()
			return
		}

		subject, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, subject)
		c.Next()
	}
}
