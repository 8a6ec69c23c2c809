package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/albertomtferreira/devflow/internal/middleware"
	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/status"
)

// StatusHandler handles a project's custom status workflow endpoints.
type StatusHandler struct {
	statuses *status.Service
	catalog  *status.Catalog
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(statuses *status.Service, catalog *status.Catalog) *StatusHandler {
	return &StatusHandler{statuses: statuses, catalog: catalog}
}

// ListTemplates lists the status template catalog.
func (h *StatusHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Templates())
}

// GetStatuses returns the project's status list.
func (h *StatusHandler) GetStatuses(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	statuses, err := h.statuses.GetStatuses(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, statuses)
}

// ReplaceStatuses replaces the whole status list; order is re-derived
// from array position server-side.
func (h *StatusHandler) ReplaceStatuses(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var statuses []models.ProjectStatus
	if err := c.ShouldBindJSON(&statuses); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.statuses.ReplaceStatuses(c.Request.Context(), c.Param("id"), user.ID, statuses); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "statuses updated"})
}

// AddStatus appends a new status and returns it.
func (h *StatusHandler) AddStatus(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req status.NewStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}
	if !models.IsValidColor(req.Color) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown color"})
		return
	}

	added, err := h.statuses.AddStatus(c.Request.Context(), c.Param("id"), user.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

// UpdateStatus patches one status's mutable fields.
func (h *StatusHandler) UpdateStatus(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var patch status.StatusPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if patch.Color != nil && !models.IsValidColor(*patch.Color) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown color"})
		return
	}

	err := h.statuses.UpdateStatus(c.Request.Context(), c.Param("id"), user.ID, c.Param("statusId"), patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// DeleteStatus removes one status from the project's list.
func (h *StatusHandler) DeleteStatus(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	err := h.statuses.DeleteStatus(c.Request.Context(), c.Param("id"), user.ID, c.Param("statusId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status deleted"})
}

// SetCurrentStatusRequest names the status to make current.
type SetCurrentStatusRequest struct {
	StatusID string `json:"statusId"`
}

// SetCurrentStatus moves the project's current-status pointer.
func (h *StatusHandler) SetCurrentStatus(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req SetCurrentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StatusID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "statusId is required"})
		return
	}

	err := h.statuses.SetCurrentStatus(c.Request.Context(), c.Param("id"), user.ID, req.StatusID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "current status updated"})
}
