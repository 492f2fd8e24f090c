package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appauth "atrium/internal/application/auth"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/logger"
	"atrium/internal/shared/utils"
)

// RequireAuth verifies the bearer token through the active provider and
// exposes the authenticated user to downstream handlers. This is the hot
// path: one token verification plus a single user existence/ban lookup.
func RequireAuth(facade *appauth.Facade, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		identity, err := facade.VerifyToken(c.Request.Context(), token)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, identity.User.SID())
		c.Set(constants.ContextKeyProvider, string(identity.Provider))
		c.Next()
	}
}

// AuthenticatedUserSID reads the user SID set by RequireAuth.
func AuthenticatedUserSID(c *gin.Context) string {
	if sid, ok := c.Get(constants.ContextKeyUserID); ok {
		if s, ok := sid.(string); ok {
			return s
		}
	}
	return ""
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
