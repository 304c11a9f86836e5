package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"ugc-studio/internal/models"
	"ugc-studio/internal/services"
	"ugc-studio/internal/supabase"
)

type VideoGenerator interface {
	GenerateVideo(ctx context.Context, projectID, userID string) (string, error)
}

type VideoHandler struct {
	generator VideoGenerator
	log       zerolog.Logger
}

func NewVideoHandler(generator VideoGenerator, log zerolog.Logger) *VideoHandler {
	return &VideoHandler{generator: generator, log: log}
}

// GenerateVideo godoc
// @Summary     Animate a project's generated image
// @Description Blocks until the video is generated and stored.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.VideoRequest true "Project to animate"
// @Success     200 {object} models.VideoResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/project/video [post]
func (h *VideoHandler) GenerateVideo(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", "projectId is required")
		return
	}
	projectID, ok := requireProjectID(c, req.ProjectID)
	if !ok {
		return
	}

	videoURL, err := h.generator.GenerateVideo(c.Request.Context(), projectID, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.VideoResponse{VideoURL: videoURL})
	case errors.Is(err, supabase.ErrNotFound):
		respondError(c, http.StatusNotFound, "project not found", "Project not found")
	case errors.Is(err, services.ErrNoImage), errors.Is(err, supabase.ErrNoImage):
		respondError(c, http.StatusBadRequest, "no generated image", "Generate an image before requesting a video")
	default:
		h.log.Error().Err(err).Str("project_id", projectID).Msg("video generation failed")
		respondError(c, http.StatusInternalServerError, "video generation failed", "Video generation failed: "+err.Error())
	}
}
