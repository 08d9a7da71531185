package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"go.uber.org/zap"
)

func SearchUsers(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := ctx.Users.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(ctx, c, err, "Failed to search users")
			return
		}

		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

func UpsertUser(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuidParam(c.Param("id"))
		if err != nil || id == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}

		var request services.UserInput
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		user, err := ctx.Users.Upsert(c.Request.Context(), id, request)
		if err != nil {
			respondError(ctx, c, err, "Failed to save user")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
