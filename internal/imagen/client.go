package imagen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
	"ugc-studio/internal/config"
	"ugc-studio/internal/models"
)

var defaultBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

type Client struct {
	genai        *genai.Client
	imageModel   string
	videoModel   string
	pollInterval time.Duration
}

type InputImage struct {
	Data     []byte
	MIMEType string
}

type ImageRequest struct {
	Prompt      string
	Images      []InputImage
	AspectRatio models.AspectRatio
}

type VideoRequest struct {
	Prompt      string
	Image       InputImage
	AspectRatio models.AspectRatio
}

type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

func NewClient(ctx context.Context, cfg config.GenAIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genai:        client,
		imageModel:   cfg.ImageModel,
		videoModel:   cfg.VideoModel,
		pollInterval: 10 * time.Second,
	}, nil
}

// GenerateImage composites the input photos into a single marketing image.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	if len(req.Images) == 0 {
		return nil, errors.New("at least one input image is required")
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			},
		})
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	content := &genai.Content{Role: genai.RoleUser, Parts: parts}

	var result *genai.GenerateContentResponse
	err := RetryWithBackoff(ctx, func() error {
		var err error
		result, err = c.genai.Models.GenerateContent(ctx, c.imageModel, []*genai.Content{content}, &genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig: &genai.ImageConfig{
				AspectRatio: string(req.AspectRatio),
			},
		})
		return err
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	if img := firstInlineImage(result); img != nil {
		return img, nil
	}
	return nil, errors.New("model returned no image")
}

func firstInlineImage(result *genai.GenerateContentResponse) *GeneratedImage {
	if result == nil {
		return nil
	}
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &GeneratedImage{Data: part.InlineData.Data, MIMEType: mime}
		}
	}
	return nil
}

// GenerateVideo animates an image and blocks until the long-running
// operation completes or ctx is done.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	op, err := c.genai.Models.GenerateVideos(ctx, c.videoModel, req.Prompt, &genai.Image{
		ImageBytes: req.Image.Data,
		MIMEType:   req.Image.MIMEType,
	}, &genai.GenerateVideosConfig{
		AspectRatio:    string(req.AspectRatio),
		NumberOfVideos: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video generation did not finish: %w", ctx.Err())
		case <-ticker.C:
		}

		op, err = c.genai.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get video operation: %w", err)
		}
	}

	if op.Error != nil {
		return nil, fmt.Errorf("video generation failed: %v", op.Error["message"])
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, errors.New("model returned no video")
	}

	generated := op.Response.GeneratedVideos[0]
	if len(generated.Video.VideoBytes) > 0 {
		return generated.Video.VideoBytes, nil
	}

	data, err := c.genai.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(generated), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	return data, nil
}

// BuildImagePrompt turns the project's descriptive fields into the
// compositing instruction sent alongside the two photos.
func BuildImagePrompt(p models.Project) string {
	var b strings.Builder
	b.WriteString("Combine the person and product into a realistic photo. ")
	b.WriteString("Make the person naturally hold or use the product. ")
	b.WriteString("Match lighting, shadows, scale and perspective. ")
	b.WriteString("Keep the person and product identities unchanged. ")
	b.WriteString("Output an e-commerce quality, photorealistic image.")
	if p.ProductName != "" {
		fmt.Fprintf(&b, "\nProduct: %s.", p.ProductName)
	}
	if p.ProductDescription != "" {
		fmt.Fprintf(&b, "\nProduct description: %s.", p.ProductDescription)
	}
	if p.UserPrompt != "" {
		fmt.Fprintf(&b, "\nAdditional direction: %s", p.UserPrompt)
	}
	return b.String()
}

func BuildVideoPrompt(p models.Project) string {
	prompt := "Animate this image into a short, natural-looking product showcase video with subtle camera movement."
	if p.ProductName != "" {
		prompt += " Showcase " + p.ProductName + "."
	}
	if p.UserPrompt != "" {
		prompt += " " + p.UserPrompt
	}
	return prompt
}

// RetryWithBackoff executes fn up to maxRetries times, sleeping between
// attempts according to backoffs (1s, 2s, 4s when none are given).
func RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int, backoffs ...time.Duration) error {
	if len(backoffs) == 0 {
		backoffs = defaultBackoffs
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i == maxRetries-1 {
			break
		}
		if i < len(backoffs) {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d attempts: %w", i+1, ctx.Err())
			case <-time.After(backoffs[i]):
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
