package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/service"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/response"
)

// ContextUserKey is the gin context key holding the authenticated user
const ContextUserKey = "auth_user"

// RequireAuth resolves the Authorization header to an account and aborts
// with a typed error code when it cannot. Each failure mode gets its own
// code so clients can react without parsing messages.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoToken):
				response.AbortError(c, http.StatusUnauthorized, "NO_TOKEN", "Access token is required")
			case errors.Is(err, service.ErrTokenExpired):
				response.AbortError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
			case errors.Is(err, service.ErrInvalidToken):
				response.AbortError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Access token is invalid")
			case errors.Is(err, service.ErrUserNotFound):
				response.AbortError(c, http.StatusUnauthorized, "USER_NOT_FOUND", "Account no longer exists")
			default:
				response.AbortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireRole allows only the given roles past. Must run after RequireAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "NO_TOKEN", "Access token is required")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		response.AbortError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "You do not have permission to access this resource")
	}
}

// CurrentUser returns the authenticated user set by RequireAuth
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}
