package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"go.uber.org/zap"
)

func GetDocuments(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		switch c.Query("mode") {
		case "view":
			fileID, err := uuidParam(c.Query("fileId"))
			if err != nil || fileID == uuid.Nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileId"})
				return
			}
			url, err := ctx.Documents.SignedURL(c.Request.Context(), fileID, user)
			if err != nil {
				respondError(ctx, c, err, "Failed to generate download link")
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(services.SignedURLTTL.Seconds())})

		case "labels":
			documents, err := ctx.Documents.ListVisible(c.Request.Context(), user)
			if err != nil {
				respondError(ctx, c, err, "Failed to list documents")
				return
			}
			c.JSON(http.StatusOK, gin.H{"documents": documents})

		case "permissions":
			fileID, err := uuidParam(c.Query("fileId"))
			if err != nil || fileID == uuid.Nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileId"})
				return
			}
			permissions, err := ctx.Documents.Permissions(c.Request.Context(), fileID, user)
			if err != nil {
				respondError(ctx, c, err, "Failed to fetch document permissions")
				return
			}
			c.JSON(http.StatusOK, permissions)

		case "userSearch":
			users, err := ctx.Users.Search(c.Request.Context(), c.Query("q"))
			if err != nil {
				respondError(ctx, c, err, "Failed to search users")
				return
			}
			c.JSON(http.StatusOK, gin.H{"users": users})

		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be one of view, labels, permissions, userSearch"})
		}
	}
}

func UploadDocument(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			ctx.Logger.Debug("Failed to get file from request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
			return
		}

		src, err := file.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
			return
		}
		defer src.Close()

		fileName := c.PostForm("fileName")
		if fileName == "" {
			fileName = file.Filename
		}

		stored, err := ctx.Documents.Upload(c.Request.Context(), user.ID, services.UploadInput{
			FileName:    fileName,
			Viewers:     formList(c, "viewers", ","),
			FolderPath:  formList(c, "folderPath", "/"),
			Body:        src,
			Size:        file.Size,
			ContentType: file.Header.Get("Content-Type"),
			Type:        entity.FileTypeDocument,
		})
		if err != nil {
			respondError(ctx, c, err, "Failed to upload file")
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func UpdateDocument(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		fileID, err := uuidParam(c.Query("fileId"))
		if err != nil || fileID == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileId"})
			return
		}

		var request services.SharingInput
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		updated, err := ctx.Documents.UpdateSharing(c.Request.Context(), fileID, user, request)
		if err != nil {
			respondError(ctx, c, err, "Failed to update document")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteDocument(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		fileID, err := uuidParam(c.Query("fileId"))
		if err != nil || fileID == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileId"})
			return
		}

		if err := ctx.Documents.Delete(c.Request.Context(), fileID, user); err != nil {
			respondError(ctx, c, err, "Failed to delete document")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
	}
}

func UploadAvatar(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			ctx.Logger.Debug("Failed to get file from request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
			return
		}

		contentType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type, only images are allowed"})
			return
		}

		src, err := file.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
			return
		}
		defer src.Close()

		stored, err := ctx.Documents.Upload(c.Request.Context(), user.ID, services.UploadInput{
			FileName:    file.Filename,
			Body:        src,
			Size:        file.Size,
			ContentType: contentType,
			Type:        entity.FileTypeAvatar,
		})
		if err != nil {
			respondError(ctx, c, err, "Failed to upload avatar")
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func GetAvatar(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuidParam(c.Param("id"))
		if err != nil || userID == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}

		url, err := ctx.Documents.AvatarURL(c.Request.Context(), userID)
		if err != nil {
			respondError(ctx, c, err, "Failed to generate avatar link")
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(services.SignedURLTTL.Seconds())})
	}
}

// formList reads a multi-valued form field. A single value may also carry a JSON
// array or a sep-delimited list.
func formList(c *gin.Context, key, sep string) []string {
	values := c.PostFormArray(key)
	if len(values) != 1 {
		return values
	}

	single := strings.TrimSpace(values[0])
	if strings.HasPrefix(single, "[") {
		var list []string
		if err := json.Unmarshal([]byte(single), &list); err == nil {
			return list
		}
	}
	if single == "" {
		return nil
	}
	return strings.Split(single, sep)
}
