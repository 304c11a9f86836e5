package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"ugc-studio/internal/models"
	"ugc-studio/internal/supabase"
)

const maxUploadBytes = 32 << 20

type ProjectRepository interface {
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	GetProject(ctx context.Context, projectID, userID string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	ListPublished(ctx context.Context) ([]models.Project, error)
	TogglePublished(ctx context.Context, projectID, userID string) (bool, error)
	DeleteProject(ctx context.Context, projectID, userID string) error
	SetError(ctx context.Context, projectID, errorMsg string) error
}

type FileStore interface {
	UploadFile(storagePath, contentType string, data []byte) (string, error)
	DeleteProjectFiles(userID, projectID string) error
}

type JobQueue interface {
	EnqueueImageJob(ctx context.Context, projectID string) error
}

type ProjectsHandler struct {
	store ProjectRepository
	files FileStore
	queue JobQueue
	log   zerolog.Logger
}

func NewProjectsHandler(store ProjectRepository, files FileStore, queue JobQueue, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		store: store,
		files: files,
		queue: queue,
		log:   log,
	}
}

// CreateProject godoc
// @Summary     Create a generation project
// @Description Uploads the subject and model photos, stores the project and queues image generation.
// @Tags        projects
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.CreateProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/project [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var form models.CreateProjectForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, "invalid form", err.Error())
		return
	}
	if strings.TrimSpace(form.ProductName) == "" {
		respondError(c, http.StatusBadRequest, "invalid form", "Product name is required")
		return
	}

	multipartForm, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to parse multipart form", err.Error())
		return
	}
	images := multipartForm.File["images"]
	if len(images) != 2 {
		respondError(c, http.StatusBadRequest, "invalid images", "Please upload both a product image and a model image")
		return
	}

	projectID := uuid.NewString()
	uploaded := make([]string, 0, len(images))
	for i, header := range images {
		name := "subject"
		if i == 1 {
			name = "model"
		}
		url, err := h.storeUpload(userID, projectID, name, header)
		if err != nil {
			h.cleanup(userID, projectID)
			respondError(c, http.StatusBadRequest, "failed to store upload", err.Error())
			return
		}
		uploaded = append(uploaded, url)
	}

	project, err := h.store.CreateProject(c.Request.Context(), models.Project{
		ID:                 projectID,
		UserID:             userID,
		ProductName:        strings.TrimSpace(form.ProductName),
		ProductDescription: strings.TrimSpace(form.ProductDescription),
		UserPrompt:         strings.TrimSpace(form.UserPrompt),
		AspectRatio:        models.ParseAspectRatio(form.AspectRatio),
		UploadedImages:     uploaded,
		IsGenerating:       true,
	})
	if err != nil {
		h.cleanup(userID, projectID)
		h.log.Error().Err(err).Msg("create project failed")
		respondError(c, http.StatusInternalServerError, "failed to create project", "Failed to create project")
		return
	}

	if err := h.queue.EnqueueImageJob(c.Request.Context(), project.ID); err != nil {
		h.log.Error().Err(err).Str("project_id", project.ID).Msg("enqueue image job failed")
		if serr := h.store.SetError(context.WithoutCancel(c.Request.Context()), project.ID, "Failed to start generation"); serr != nil {
			h.log.Error().Err(serr).Str("project_id", project.ID).Msg("failed to record enqueue error")
		}
		respondError(c, http.StatusInternalServerError, "failed to queue generation", "Failed to start generation")
		return
	}

	c.JSON(http.StatusOK, models.CreateProjectResponse{ProjectID: project.ID})
}

func (h *ProjectsHandler) storeUpload(userID, projectID, name string, header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%s is not an image", header.Filename)
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	if ext == "" {
		ext = ".png"
	}
	return h.files.UploadFile(supabase.ObjectPath(userID, projectID, name+ext), contentType, data)
}

func (h *ProjectsHandler) cleanup(userID, projectID string) {
	if err := h.files.DeleteProjectFiles(userID, projectID); err != nil {
		h.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to clean up uploads")
	}
}

// ListProjects godoc
// @Summary     List the caller's projects
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProjectListResponse
// @Router      /api/user/projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	projects, err := h.store.ListProjects(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list projects failed")
		respondError(c, http.StatusInternalServerError, "failed to list projects", "Failed to load projects")
		return
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projects})
}

// ListPublished godoc
// @Summary     Community listing of published projects
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProjectListResponse
// @Router      /api/project/published [get]
func (h *ProjectsHandler) ListPublished(c *gin.Context) {
	projects, err := h.store.ListPublished(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list published failed")
		respondError(c, http.StatusInternalServerError, "failed to list projects", "Failed to load projects")
		return
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projects})
}

// GetProject godoc
// @Summary     Get a project's current state
// @Description Returns 404 while a freshly created project is not yet visible.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/user/projects/{id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c, c.Param("id"))
	if !ok {
		return
	}

	project, err := h.store.GetProject(c.Request.Context(), projectID, userID)
	if err != nil {
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProjectResponse{Project: *project})
}

// TogglePublish godoc
// @Summary     Publish or unpublish a project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Project ID (UUID)"
// @Success     200 {object} models.PublishResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/user/publish/{id} [post]
func (h *ProjectsHandler) TogglePublish(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c, c.Param("id"))
	if !ok {
		return
	}

	published, err := h.store.TogglePublished(c.Request.Context(), projectID, userID)
	if err != nil {
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PublishResponse{IsPublished: published})
}

// DeleteProject godoc
// @Summary     Delete a project and its stored artifacts
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Project ID (UUID)"
// @Success     200 {object} models.MessageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/project/{id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c, c.Param("id"))
	if !ok {
		return
	}

	if err := h.store.DeleteProject(c.Request.Context(), projectID, userID); err != nil {
		h.storeError(c, err)
		return
	}

	// Database row is gone; stored files are removed best-effort.
	h.cleanup(userID, projectID)

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Project deleted successfully"})
}

func (h *ProjectsHandler) storeError(c *gin.Context, err error) {
	if errors.Is(err, supabase.ErrNotFound) {
		respondError(c, http.StatusNotFound, "project not found", "Project not found")
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("project store error")
	respondError(c, http.StatusInternalServerError, "internal error", "Something went wrong")
}
