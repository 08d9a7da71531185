package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"go.uber.org/zap"
)

func GetArticles(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		id, err := uuidParam(c.Query("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		if id != uuid.Nil {
			article, err := ctx.Articles.Get(c.Request.Context(), id, user.ID)
			if err != nil {
				respondError(ctx, c, err, "Failed to fetch article")
				return
			}
			c.JSON(http.StatusOK, article)
			return
		}

		articles, err := ctx.Articles.List(c.Request.Context(), user.ID)
		if err != nil {
			respondError(ctx, c, err, "Failed to fetch articles")
			return
		}

		c.JSON(http.StatusOK, gin.H{"articles": articles})
	}
}

func CreateArticle(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.ArticleInput
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		user, ok := currentUser(c)
		if !ok {
			return
		}

		article, err := ctx.Articles.Create(c.Request.Context(), user.ID, request)
		if err != nil {
			respondError(ctx, c, err, "Failed to create article")
			return
		}

		c.JSON(http.StatusCreated, article)
	}
}

func UpdateArticle(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type updateArticleRequest struct {
			services.ArticleInput
			ID string `json:"id"`
		}

		var request updateArticleRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		rawID := c.Query("id")
		if rawID == "" {
			rawID = request.ID
		}
		id, err := uuidParam(rawID)
		if err != nil || id == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		user, ok := currentUser(c)
		if !ok {
			return
		}

		article, err := ctx.Articles.Update(c.Request.Context(), user.ID, id, request.ArticleInput)
		if err != nil {
			respondError(ctx, c, err, "Failed to update article")
			return
		}

		c.JSON(http.StatusOK, article)
	}
}

func DeleteArticle(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuidParam(c.Query("id"))
		if err != nil || id == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		user, ok := currentUser(c)
		if !ok {
			return
		}

		if err := ctx.Articles.Delete(c.Request.Context(), user.ID, id); err != nil {
			respondError(ctx, c, err, "Failed to delete article")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
	}
}
