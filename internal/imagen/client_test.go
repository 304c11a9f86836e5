package imagen_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"ugc-studio/internal/imagen"
	"ugc-studio/internal/models"
)

func TestRetryWithBackoff(t *testing.T) {
	callCount := 0
	err := imagen.RetryWithBackoff(context.Background(), func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3, time.Millisecond, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	callCount := 0
	err := imagen.RetryWithBackoff(context.Background(), func() error {
		callCount++
		return assert.AnError
	}, 3, time.Millisecond)

	assert.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	err := imagen.RetryWithBackoff(ctx, func() error {
		callCount++
		return assert.AnError
	}, 3, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := imagen.BuildImagePrompt(models.Project{
		ProductName:        "Aurora Serum",
		ProductDescription: "vitamin C face serum",
		UserPrompt:         "sunlit bathroom",
	})

	assert.Contains(t, prompt, "Product: Aurora Serum.")
	assert.Contains(t, prompt, "Product description: vitamin C face serum.")
	assert.Contains(t, prompt, "Additional direction: sunlit bathroom")
}

func TestBuildImagePrompt_OmitsEmptyFields(t *testing.T) {
	prompt := imagen.BuildImagePrompt(models.Project{})

	assert.NotContains(t, prompt, "Product:")
	assert.NotContains(t, prompt, "Additional direction")
}

func TestBuildVideoPrompt(t *testing.T) {
	prompt := imagen.BuildVideoPrompt(models.Project{ProductName: "Aurora Serum"})
	assert.Contains(t, prompt, "Showcase Aurora Serum.")
}
