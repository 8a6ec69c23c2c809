package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/albertomtferreira/devflow/internal/middleware"
	"github.com/albertomtferreira/devflow/internal/project"
)

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projects *project.Service
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProjectRequest represents a project creation request.
type CreateProjectRequest struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
	TechStack        []string `json:"techStack"`
	Skills           []string `json:"skills"`
	LiveURL          string   `json:"liveUrl"`
	RepoURL          string   `json:"repoUrl"`
	Tags             []string `json:"tags"`
	StatusTemplate   string   `json:"statusTemplate"`
	CurrentStatus    string   `json:"currentStatus"`
}

// ListProjects lists all projects owned by the authenticated user.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

// CreateProject creates a new project and returns the normalized
// aggregate.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	id, err := h.projects.Add(c.Request.Context(), project.NewProjectData{
		UserID:           user.ID,
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		TechStack:        req.TechStack,
		Skills:           req.Skills,
		LiveURL:          req.LiveURL,
		RepoURL:          req.RepoURL,
		Tags:             req.Tags,
		StatusTemplate:   req.StatusTemplate,
		CurrentStatus:    req.CurrentStatus,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := h.projects.Get(c.Request.Context(), id, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetProject retrieves one project by id.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProject applies a partial update and returns the re-read
// aggregate.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var patch project.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	projectID := c.Param("id")
	if err := h.projects.Update(c.Request.Context(), projectID, user.ID, patch); err != nil {
		writeError(c, err)
		return
	}

	updated, err := h.projects.Get(c.Request.Context(), projectID, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProjectRequest carries the confirmation title logged with the
// deletion.
type DeleteProjectRequest struct {
	Title string `json:"title"`
}

// DeleteProject deletes a project.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req DeleteProjectRequest
	// The body is optional; deleting without a title just logs less.
	_ = c.ShouldBindJSON(&req)

	if err := h.projects.Delete(c.Request.Context(), c.Param("id"), user.ID, req.Title); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}
