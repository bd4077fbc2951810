// Package pipeline runs the end-to-end generation flow: document text in,
// rendered deck file out. Each stage is injected so the expensive external
// collaborators can be substituted in tests.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"slideforge/internal/extract"
	"slideforge/internal/gemini"
	"slideforge/internal/logging"
	"slideforge/internal/plan"
	"slideforge/internal/pptx"
	"slideforge/internal/prompt"
	"slideforge/internal/render"
)

// Request describes one generation run.
type Request struct {
	// DocumentPath is the input document (.pdf or .docx).
	DocumentPath string

	// SlideCount is the requested deck size, including the three fixed
	// slides.
	SlideCount int

	// IncludeVisuals asks for a visual suggestion on every body slide.
	IncludeVisuals bool
}

// Result reports where the deck landed.
type Result struct {
	OutputPath string
	Plan       *plan.DeckPlan
	MIMEType   string
}

// Pipeline wires the stages together. TemplatePath and OutputDir come from
// configuration; the renderer carries the image collaborators.
type Pipeline struct {
	completer    gemini.Completer
	renderer     *render.Renderer
	templatePath string
	outputDir    string
	openDeck     func(path string) (render.Deck, error)
}

// New builds a Pipeline.
func New(completer gemini.Completer, renderer *render.Renderer, templatePath, outputDir string) *Pipeline {
	return &Pipeline{
		completer:    completer,
		renderer:     renderer,
		templatePath: templatePath,
		outputDir:    outputDir,
		openDeck: func(path string) (render.Deck, error) {
			return pptx.Open(path)
		},
	}
}

// Run executes the full flow for one request. The output file name is a
// fresh UUID so concurrent runs never collide.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "generation run")
	defer timer.StopWithInfo()

	cp, err := plan.ComputeCountPlan(req.SlideCount, req.IncludeVisuals)
	if err != nil {
		return nil, err
	}

	text, err := extract.Text(req.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("document extraction: %w", err)
	}

	userPrompt := prompt.Build(text, cp)
	logging.PromptDebug("prompt built: %d chars for %d body slides", len(userPrompt), cp.MainSlides)

	raw, err := p.completer.CompleteWithSystem(ctx, prompt.SystemInstruction, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}

	deckPlan, err := plan.Parse(raw)
	if err != nil {
		return nil, err
	}
	logging.Plan("plan validated: %d elements, %d body slides", deckPlan.SlideCount(), len(deckPlan.Mains))

	deck, err := p.openDeck(p.templatePath)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", p.templatePath, err)
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	outPath := filepath.Join(p.outputDir, uuid.NewString()+".pptx")

	if err := p.renderer.Render(ctx, deck, deckPlan, outPath); err != nil {
		return nil, err
	}

	return &Result{
		OutputPath: outPath,
		Plan:       deckPlan,
		MIMEType:   pptx.MIMEType,
	}, nil
}
