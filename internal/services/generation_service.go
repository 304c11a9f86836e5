package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"ugc-studio/internal/imagen"
	"ugc-studio/internal/models"
	"ugc-studio/internal/supabase"
)

var ErrNoImage = errors.New("generate an image before requesting a video")

type ProjectStore interface {
	GetProject(ctx context.Context, projectID, userID string) (*models.Project, error)
	SetGeneratedImage(ctx context.Context, projectID, imageURL string) error
	SetGeneratedVideo(ctx context.Context, projectID, videoURL string) error
	SetGenerating(ctx context.Context, projectID string, generating bool) error
	SetError(ctx context.Context, projectID, errorMsg string) error
}

type ArtifactStore interface {
	UploadFile(storagePath, contentType string, data []byte) (string, error)
	DownloadFile(storagePath string) ([]byte, error)
	PathFromPublicURL(publicURL string) (string, bool)
}

type Generator interface {
	GenerateImage(ctx context.Context, req imagen.ImageRequest) (*imagen.GeneratedImage, error)
	GenerateVideo(ctx context.Context, req imagen.VideoRequest) ([]byte, error)
}

// GenerationService runs the image job consumed from the queue and the
// synchronous video step. Every failure path clears is_generating.
type GenerationService struct {
	store        ProjectStore
	artifacts    ArtifactStore
	generator    Generator
	videoTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

func NewGenerationService(store ProjectStore, artifacts ArtifactStore, generator Generator, videoTimeout time.Duration, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		store:        store,
		artifacts:    artifacts,
		generator:    generator,
		videoTimeout: videoTimeout,
		log:          log,
		now:          time.Now,
	}
}

func (s *GenerationService) HandleImageJob(ctx context.Context, projectID string) error {
	project, err := s.store.GetProject(ctx, projectID, "")
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if !project.IsGenerating {
		s.log.Info().Str("project_id", projectID).Msg("project already settled, skipping image job")
		return nil
	}

	imageURL, err := s.generateImage(ctx, project)
	if err != nil {
		if serr := s.store.SetError(ctx, projectID, err.Error()); serr != nil {
			s.log.Error().Err(serr).Str("project_id", projectID).Msg("failed to record generation error")
		}
		return err
	}

	if err := s.store.SetGeneratedImage(ctx, projectID, imageURL); err != nil {
		return fmt.Errorf("save generated image: %w", err)
	}
	return nil
}

func (s *GenerationService) generateImage(ctx context.Context, project *models.Project) (string, error) {
	if len(project.UploadedImages) < 2 {
		return "", errors.New("two uploaded images are required")
	}

	inputs := make([]imagen.InputImage, 0, len(project.UploadedImages))
	for _, url := range project.UploadedImages {
		img, err := s.download(url)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, img)
	}

	generated, err := s.generator.GenerateImage(ctx, imagen.ImageRequest{
		Prompt:      imagen.BuildImagePrompt(*project),
		Images:      inputs,
		AspectRatio: project.AspectRatio,
	})
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("generated_%s%s", s.now().Format("20060102_150405"), extensionFor(generated.MIMEType))
	url, err := s.artifacts.UploadFile(supabase.ObjectPath(project.UserID, project.ID, filename), generated.MIMEType, generated.Data)
	if err != nil {
		return "", fmt.Errorf("failed to store generated image: %w", err)
	}
	return url, nil
}

// GenerateVideo animates the project's generated image and returns the stored video URL.
func (s *GenerationService) GenerateVideo(ctx context.Context, projectID, userID string) (string, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if !project.HasImage() {
		return "", ErrNoImage
	}

	if err := s.store.SetGenerating(ctx, projectID, true); err != nil {
		return "", fmt.Errorf("mark project generating: %w", err)
	}

	videoURL, err := s.generateVideo(ctx, project)
	if err != nil {
		s.clearGenerating(ctx, projectID)
		return "", err
	}

	// The video is already stored; persist it even if the caller went away.
	if err := s.store.SetGeneratedVideo(context.WithoutCancel(ctx), projectID, videoURL); err != nil {
		s.clearGenerating(ctx, projectID)
		return "", fmt.Errorf("save generated video: %w", err)
	}
	return videoURL, nil
}

func (s *GenerationService) clearGenerating(ctx context.Context, projectID string) {
	if err := s.store.SetGenerating(context.WithoutCancel(ctx), projectID, false); err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("failed to clear generating flag")
	}
}

func (s *GenerationService) generateVideo(ctx context.Context, project *models.Project) (string, error) {
	image, err := s.download(project.GeneratedImage)
	if err != nil {
		return "", err
	}

	if s.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.videoTimeout)
		defer cancel()
	}

	data, err := s.generator.GenerateVideo(ctx, imagen.VideoRequest{
		Prompt:      imagen.BuildVideoPrompt(*project),
		Image:       image,
		AspectRatio: project.AspectRatio,
	})
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("video_%s.mp4", s.now().Format("20060102_150405"))
	url, err := s.artifacts.UploadFile(supabase.ObjectPath(project.UserID, project.ID, filename), "video/mp4", data)
	if err != nil {
		return "", fmt.Errorf("failed to store generated video: %w", err)
	}
	return url, nil
}

func (s *GenerationService) download(publicURL string) (imagen.InputImage, error) {
	path, ok := s.artifacts.PathFromPublicURL(publicURL)
	if !ok {
		return imagen.InputImage{}, fmt.Errorf("image %q is not in project storage", publicURL)
	}
	data, err := s.artifacts.DownloadFile(path)
	if err != nil {
		return imagen.InputImage{}, err
	}
	return imagen.InputImage{Data: data, MIMEType: http.DetectContentType(data)}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
