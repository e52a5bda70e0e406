package middleware

import (
	"net/http"
	"strings"

	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The second return is false when the header is missing or malformed.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func abortWithError(c *gin.Context, status int, code, message string) {
	utils.RespondWithError(c, utils.NewAPIError(status, code, message, message))
	c.Abort()
}

// AuthMiddleware validates the Bearer JWT on staff routes and stores the
// claims (userID, username, userRole) in the gin context for downstream
// handlers and role checks.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header with Bearer token required.")
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware allows the request through only when the role stored by
// AuthMiddleware matches one of allowedRoles (case-insensitive). It must run
// after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("userRole")
		role, ok := userRole.(string)
		if !exists || !ok {
			abortWithError(c, http.StatusForbidden, utils.ErrCodeForbidden, "No role associated with this request.")
			return
		}

		for _, allowed := range allowedRoles {
			if strings.EqualFold(role, allowed) {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, utils.ErrCodeForbidden, "Required role: "+strings.Join(allowedRoles, " or ")+".")
	}
}
