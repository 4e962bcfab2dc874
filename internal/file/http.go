package file

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sharedrive/sharedrive/internal/auth"
)

// RegisterRoutes mounts personal-library file operations.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFile)
	group.GET("/files", handler.listFiles)
	group.GET("/files/:publicID/download", handler.downloadFile)
	group.PATCH("/files/:publicID", handler.updateFile)
	group.DELETE("/files/:publicID", handler.deleteFile)
	group.POST("/files/bulk-delete", handler.bulkDelete)
}

type httpHandler struct {
	service *Service
}

type filePayload struct {
	File
	Protected bool `json:"protected"`
}

func marshalFile(meta File) filePayload {
	return filePayload{File: meta, Protected: meta.Protected()}
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	meta, err := h.service.Upload(c.Request.Context(), userID, fileHeader)
	if err != nil {
		switch err {
		case ErrFileTooLarge:
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		case ErrQuotaExceeded:
			c.JSON(http.StatusBadRequest, gin.H{"error": "storage quota exceeded"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		}
		return
	}

	c.JSON(http.StatusCreated, marshalFile(meta))
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	payload := make([]filePayload, 0, len(list))
	for _, meta := range list {
		payload = append(payload, marshalFile(meta))
	}
	c.JSON(http.StatusOK, gin.H{"files": payload})
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	meta, reader, err := h.service.Download(c.Request.Context(), userID, c.Param("publicID"))
	if err != nil {
		switch err {
		case ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download file"})
		}
		return
	}
	defer reader.Close()

	c.Header("Content-Type", meta.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.OriginalFilename))
	c.Header("Content-Length", fmt.Sprintf("%d", meta.SizeBytes))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}

type updateFileRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=255"`
	Password      *string `json:"password" binding:"omitempty,max=72"`
	ClearPassword bool    `json:"clear_password"`
}

func (h *httpHandler) updateFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil && req.Password == nil && !req.ClearPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	publicID := c.Param("publicID")
	var meta File
	var err error

	if req.Name != nil {
		meta, err = h.service.Rename(c.Request.Context(), userID, publicID, *req.Name)
		if err != nil {
			respondFileError(c, err)
			return
		}
	}
	if req.Password != nil || req.ClearPassword {
		password := ""
		if req.Password != nil && !req.ClearPassword {
			password = *req.Password
		}
		meta, err = h.service.SetPassword(c.Request.Context(), userID, publicID, password)
		if err != nil {
			respondFileError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, marshalFile(meta))
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("publicID")); err != nil {
		respondFileError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1"`
}

func (h *httpHandler) bulkDelete(c *gin.Context) {
	userID, user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.BulkDelete(c.Request.Context(), userID, user.IsAdmin, req.FileIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete files"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondFileError(c *gin.Context, err error) {
	switch err {
	case ErrFileNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case ErrNotOwner:
		c.JSON(http.StatusForbidden, gin.H{"error": "not the file owner"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "file operation failed"})
	}
}
