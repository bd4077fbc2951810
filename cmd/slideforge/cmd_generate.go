package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"slideforge/internal/config"
	"slideforge/internal/gemini"
	"slideforge/internal/imagegen"
	"slideforge/internal/pipeline"
	"slideforge/internal/plan"
	"slideforge/internal/render"
	"slideforge/internal/translate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	slideCount     int
	includeVisuals bool
	outputDir      string
	templatePath   string
)

// generateCmd runs the full document-to-deck flow
var generateCmd = &cobra.Command{
	Use:   "generate [document]",
	Short: "Generate a presentation from a PDF or Word document",
	Long: `Extracts the document text, asks the model for a slide plan and
renders it onto the deck template.

The slide count includes the three fixed slides (title, introduction,
recommendations). With --include-visuals every body slide carries a visual
suggestion rendered as a follow-up slide, so body content and visuals each
take half of the remaining budget.

Example:
  slideforge generate report.pdf --slides 12 --include-visuals`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&slideCount, "slides", 10, fmt.Sprintf("Total slide count (minimum %d)", plan.MinSlideCount))
	generateCmd.Flags().BoolVar(&includeVisuals, "include-visuals", false, "Add a visual follow-up slide per body slide")
	generateCmd.Flags().StringVar(&outputDir, "out", "", "Output directory (default from config)")
	generateCmd.Flags().StringVar(&templatePath, "template", "", "Deck template path (default from config)")
}

// newImagePipeline builds the translator and image engine for image visuals.
// The model may suggest image visuals whether or not they count toward the
// slide budget, so both are wired on every run; an unavailable engine
// degrades image visuals to notices while chart visuals still render.
func newImagePipeline(c *config.Config) (translate.Translator, imagegen.Generator) {
	translator := translate.NewClient(c.Translate.BaseURL, c.GetTranslateTimeout())
	engine, err := imagegen.NewGenAIEngine(c.Gemini.APIKey, c.Image.Model, c.GetImageTimeout())
	if err != nil {
		logger.Warn("Image engine unavailable", zap.Error(err))
		return translator, nil
	}
	logger.Info("Image engine ready", zap.String("model", engine.Name()))
	return translator, engine
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if outputDir != "" {
		cfg.Render.OutputDir = outputDir
	}
	if templatePath != "" {
		cfg.Render.TemplatePath = templatePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := os.MkdirAll(cfg.Render.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	completer := gemini.NewClient(cfg.Gemini, cfg.GetGeminiTimeout())
	logger.Info("Model client ready", zap.String("model", completer.Model()))

	translator, images := newImagePipeline(cfg)
	renderer := render.New(translator, images, cfg.Render.WorkDir)
	p := pipeline.New(completer, renderer, cfg.Render.TemplatePath, cfg.Render.OutputDir)

	logger.Info("Generating deck",
		zap.String("document", args[0]),
		zap.Int("slides", slideCount),
		zap.Bool("visuals", includeVisuals))

	res, err := p.Run(ctx, pipeline.Request{
		DocumentPath:   args[0],
		SlideCount:     slideCount,
		IncludeVisuals: includeVisuals,
	})
	if err != nil {
		return err
	}

	logger.Info("Deck generated",
		zap.String("output", res.OutputPath),
		zap.Int("body_slides", len(res.Plan.Mains)))
	fmt.Printf("Presentation saved to %s\n", res.OutputPath)
	return nil
}
