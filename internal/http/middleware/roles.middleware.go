package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/utils"
)

func AdminOnly() gin.HandlerFunc {
	return requireRole(utils.IsAdmin)
}

func HROrAdmin() gin.HandlerFunc {
	return requireRole(utils.IsHROrAdmin)
}

func requireRole(allowed func(*entity.UserMetadata) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := utils.GetCurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !allowed(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
