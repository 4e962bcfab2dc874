package team

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sharedrive/sharedrive/internal/auth"
	"github.com/sharedrive/sharedrive/internal/file"
)

// RegisterRoutes mounts the team endpoints. Teams are addressed by join
// code except for deletion, which takes the team id.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/teams", handler.createTeam)
	group.GET("/teams", handler.listTeams)
	group.DELETE("/teams/:teamID", handler.deleteTeam)
	group.POST("/teams/join/:joinCode", handler.joinTeam)
	group.POST("/teams/join/:joinCode/leave", handler.leaveTeam)
	group.PATCH("/teams/join/:joinCode/visibility", handler.toggleVisibility)
	group.GET("/teams/join/:joinCode/members", handler.listMembers)
	group.POST("/teams/join/:joinCode/files", handler.addFiles)
	group.GET("/teams/join/:joinCode/files", handler.listFiles)
	group.DELETE("/teams/join/:joinCode/files/:publicID", handler.removeFile)
	group.POST("/teams/join/:joinCode/files/bulk-remove", handler.bulkRemoveFiles)
	group.GET("/teams/join/:joinCode/files/:publicID/download", handler.downloadFile)
	group.POST("/teams/join/:joinCode/invite", handler.invite)
	group.GET("/teams/join/:joinCode/activity", handler.listActivity)
}

type httpHandler struct {
	service *Service
}

type createTeamRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	IsPublic    bool   `json:"is_public"`
}

func (h *httpHandler) createTeam(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		respondTeamError(c, err, "failed to create team")
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *httpHandler) listTeams(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	teams, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list teams"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (h *httpHandler) deleteTeam(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	teamID, err := uuid.Parse(c.Param("teamID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), userID, teamID)
	if err != nil {
		respondTeamError(c, err, "failed to delete team")
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": deleted})
}

func (h *httpHandler) joinTeam(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.Join(c.Request.Context(), userID, c.Param("joinCode"))
	if err != nil {
		respondTeamError(c, err, "failed to join team")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) leaveTeam(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.Leave(c.Request.Context(), userID, c.Param("joinCode"))
	if err != nil {
		respondTeamError(c, err, "failed to leave team")
		return
	}

	c.JSON(http.StatusOK, result)
}

type visibilityRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

func (h *httpHandler) toggleVisibility(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsPublic == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_public is required"})
		return
	}

	team, err := h.service.ToggleVisibility(c.Request.Context(), userID, c.Param("joinCode"), *req.IsPublic)
	if err != nil {
		respondTeamError(c, err, "failed to update team visibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": team})
}

func (h *httpHandler) listMembers(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	members, err := h.service.Members(c.Request.Context(), userID, c.Param("joinCode"))
	if err != nil {
		respondTeamError(c, err, "failed to list team members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

type teamFilesRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1"`
}

func (h *httpHandler) addFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req teamFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids is required"})
		return
	}

	result, err := h.service.AddFiles(c.Request.Context(), userID, c.Param("joinCode"), req.FileIDs)
	if err != nil {
		respondTeamError(c, err, "failed to add files to team")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := h.service.ListFiles(c.Request.Context(), userID, c.Param("joinCode"))
	if err != nil {
		respondTeamError(c, err, "failed to list team files")
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *httpHandler) removeFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.RemoveFile(c.Request.Context(), userID, c.Param("joinCode"), c.Param("publicID"))
	if err != nil {
		respondTeamError(c, err, "failed to remove file from team")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) bulkRemoveFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req teamFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids is required"})
		return
	}

	result, err := h.service.RemoveFiles(c.Request.Context(), userID, c.Param("joinCode"), req.FileIDs)
	if err != nil {
		respondTeamError(c, err, "failed to remove files from team")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	meta, reader, err := h.service.OpenFile(c.Request.Context(), userID, c.Param("joinCode"), c.Param("publicID"))
	if err != nil {
		respondTeamError(c, err, "failed to download team file")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", meta.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.OriginalFilename))
	c.Header("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *httpHandler) invite(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	result, err := h.service.Invite(c.Request.Context(), userID, c.Param("joinCode"), req.Email)
	if err != nil {
		respondTeamError(c, err, "failed to invite member")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) listActivity(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultActivityPageSize)))

	result, err := h.service.Activity(c.Request.Context(), userID, c.Param("joinCode"), page, limit)
	if err != nil {
		respondTeamError(c, err, "failed to list team activity")
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondTeamError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
	case errors.Is(err, ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, file.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "already a member of this team"})
	case errors.Is(err, ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this team"})
	case errors.Is(err, ErrLeaderCannotLeave):
		c.JSON(http.StatusForbidden, gin.H{"error": "the team leader cannot leave the team"})
	case errors.Is(err, ErrNotLeader):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the team leader may do this"})
	case errors.Is(err, ErrNoAccess):
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this team"})
	case errors.Is(err, ErrNotUploader):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the uploader may remove this file"})
	case errors.Is(err, ErrNoFilesResolved):
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching files"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
