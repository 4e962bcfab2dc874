package share

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sharedrive/sharedrive/internal/auth"
	"github.com/sharedrive/sharedrive/internal/file"
)

// RegisterRoutes mounts the unauthenticated share endpoint. The password
// travels in a query parameter so the link can be opened from a browser.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}
	router.GET("/s/:publicID", handler.resolve)
}

// RegisterOwnerRoutes mounts the authenticated link-minting endpoint.
func RegisterOwnerRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/files/:publicID/share-link", handler.create)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) resolve(c *gin.Context) {
	link, err := h.service.Resolve(c.Request.Context(), c.Param("publicID"), c.Query("password"))
	if err != nil {
		switch {
		case errors.Is(err, file.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, ErrPasswordRequired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "password required"})
		case errors.Is(err, ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve share link"})
		}
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) create(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	link, err := h.service.Create(c.Request.Context(), userID, c.Param("publicID"))
	if err != nil {
		switch {
		case errors.Is(err, file.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create share link"})
		}
		return
	}

	c.JSON(http.StatusOK, link)
}
