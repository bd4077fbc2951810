// Package imagegen renders "image" visuals through the Gemini Imagen API
// and writes the result to disk for embedding into the deck.
package imagegen

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"slideforge/internal/logging"
)

// Generator produces an image for a prompt and saves it to outPath.
type Generator interface {
	Generate(ctx context.Context, prompt, outPath string) error
}

// =============================================================================
// GOOGLE GENAI IMAGE ENGINE
// =============================================================================

// GenAIEngine generates images using Google's Imagen models.
type GenAIEngine struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIEngine creates a new GenAI image engine. timeout bounds each
// Generate call independently of the caller's context.
func NewGenAIEngine(apiKey, model string, timeout time.Duration) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	if model == "" {
		model = "imagen-3.0-generate-002"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GenAIEngine{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate produces a single image for the prompt and writes it to outPath.
func (e *GenAIEngine) Generate(ctx context.Context, prompt, outPath string) error {
	logging.Image("[Imagen] generating image model=%s prompt_len=%d", e.model, len(prompt))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.client.Models.GenerateImages(ctx,
		e.model,
		prompt,
		&genai.GenerateImagesConfig{
			NumberOfImages: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("GenAI image generation failed: %w", err)
	}

	if len(result.GeneratedImages) == 0 || result.GeneratedImages[0].Image == nil {
		return fmt.Errorf("no image returned")
	}

	data := result.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return fmt.Errorf("empty image returned")
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	logging.Image("[Imagen] wrote %d bytes to %s", len(data), outPath)
	return nil
}

// Name returns the engine name.
func (e *GenAIEngine) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}
