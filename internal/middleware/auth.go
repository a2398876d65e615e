package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/service"
)

// TokenAuth guards a link-creation endpoint with a bearer access token.
// The token must be active and scoped to the given kind.
func TokenAuth(svc *service.Service, required model.LinkKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := bearerToken(c.GetHeader("Authorization"))

		token, err := svc.Authorize(c.Request.Context(), value, required)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid or missing access token",
				})
			case errors.Is(err, service.ErrTokenForbidden):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "access token not valid for this link type",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "failed to verify access token",
				})
			}
			return
		}

		c.Set("access_token", token)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return strings.TrimSpace(header)
}
