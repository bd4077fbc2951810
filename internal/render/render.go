// Package render walks a validated slide plan and drives deck mutations
// against the positional template: fixed slots on the first two template
// slides, cloned layout slides for the body, and the scaffold cleanup at
// the end.
package render

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"slideforge/internal/imagegen"
	"slideforge/internal/logging"
	"slideforge/internal/plan"
	"slideforge/internal/pptx"
	"slideforge/internal/translate"
	"slideforge/internal/visual"
)

// Template layout positions for generated slides, matching the layout order
// of the master in the shipped template.
const (
	bodyLayout   = 12
	visualLayout = 3
)

const (
	introFontPt          = 17
	recommendationFontPt = 21
	recommendationTitle  = "Növbəti addımlar"
)

// The template's third and fourth slides are authoring scaffolds. They are
// unlisted after all generated slides are in place; removing 3 first keeps
// index 2 stable for the second removal.
const (
	scaffoldSlideA = 3
	scaffoldSlideB = 2
)

// ErrImagePipeline marks translation or image generation failures. They
// never abort the deck; the visual degrades to its textual notice.
var ErrImagePipeline = errors.New("image pipeline failed")

// Deck is the template mutation surface the renderer drives. *pptx.Deck
// implements it; tests substitute a recorder.
type Deck interface {
	SetSlotText(slot, text string) error
	AddTextBoxBelow(slot, text string, fontPt int) error
	AppendSlideFromLayout(layoutIndex int) (int, error)
	SetTitle(index int, text string) error
	FillBodyPlaceholders(index int, points []string, style pptx.ParagraphStyle) error
	AppendBulletParagraphs(index int, lines []string, style pptx.ParagraphStyle) error
	InsertChart(index int, ch visual.Chart) error
	InsertPicture(index int, imagePath string) error
	InsertNotice(index int, text string) error
	RemoveSlide(index int) error
	Save(path string) error
}

// Renderer renders deck plans. Translator and images may be nil, in which
// case image visuals degrade to their textual notice.
type Renderer struct {
	translator translate.Translator
	images     imagegen.Generator
	workDir    string
	now        func() time.Time
}

// New creates a Renderer. workDir receives generated image files.
func New(translator translate.Translator, images imagegen.Generator, workDir string) *Renderer {
	return &Renderer{
		translator: translator,
		images:     images,
		workDir:    workDir,
		now:        time.Now,
	}
}

// Render populates the deck from the plan and saves it to outPath.
// Template slot failures abort; per-visual failures downgrade to in-deck
// notices so the rest of the deck still renders.
func (r *Renderer) Render(ctx context.Context, d Deck, p *plan.DeckPlan, outPath string) error {
	timer := logging.StartTimer(logging.CategoryRender, "deck rendering")
	defer timer.StopWithInfo()

	if err := d.SetSlotText(pptx.SlotTitle, p.Title.Title); err != nil {
		return fmt.Errorf("title slide: %w", err)
	}
	date := "Tarix: " + r.now().Format("02/01/2006")
	if err := d.SetSlotText(pptx.SlotDate, date); err != nil {
		return fmt.Errorf("title slide: %w", err)
	}

	if err := r.renderIntro(d, p.Intro); err != nil {
		return fmt.Errorf("intro slide: %w", err)
	}

	for i, m := range p.Mains {
		if err := r.renderMain(ctx, d, m); err != nil {
			return fmt.Errorf("body slide %d: %w", i+1, err)
		}
	}

	if err := r.renderRecommendation(d, p.Recommendation); err != nil {
		return fmt.Errorf("recommendation slide: %w", err)
	}

	if err := d.RemoveSlide(scaffoldSlideA); err != nil {
		return fmt.Errorf("scaffold cleanup: %w", err)
	}
	if err := d.RemoveSlide(scaffoldSlideB); err != nil {
		return fmt.Errorf("scaffold cleanup: %w", err)
	}

	if err := d.Save(outPath); err != nil {
		return fmt.Errorf("failed to save deck: %w", err)
	}
	logging.Render("deck saved to %s (%d body slides)", outPath, len(p.Mains))
	return nil
}

// renderIntro writes the generated summary and aim beneath the template's
// heading shapes. Empty values leave the heading alone.
func (r *Renderer) renderIntro(d Deck, intro plan.IntroSlide) error {
	if s := strings.TrimSpace(intro.Summary); s != "" {
		if err := d.AddTextBoxBelow(pptx.SlotContent, s, introFontPt); err != nil {
			return err
		}
	} else {
		logging.RenderWarn("intro summary is empty, heading left bare")
	}
	if a := strings.TrimSpace(intro.Aim); a != "" {
		if err := d.AddTextBoxBelow(pptx.SlotPurpose, a, introFontPt); err != nil {
			return err
		}
	} else {
		logging.RenderWarn("intro aim is empty, heading left bare")
	}
	return nil
}

func (r *Renderer) renderMain(ctx context.Context, d Deck, m plan.MainSlide) error {
	idx, err := d.AppendSlideFromLayout(bodyLayout)
	if err != nil {
		return err
	}
	if err := d.SetTitle(idx, m.Title); err != nil {
		return err
	}

	// Points map positionally onto the layout's placeholders; an empty
	// point leaves its placeholder blank rather than shifting the rest.
	if err := d.FillBodyPlaceholders(idx, m.Points[:], pptx.ParagraphStyle{FontPt: introFontPt}); err != nil {
		return err
	}
	logging.RenderDebug("body slide %d: %q", idx, m.Title)

	return r.renderVisual(ctx, d, m)
}

// renderVisual appends the follow-up visual slide for a body slide, if its
// suggestion calls for one. Chart data and image pipeline failures insert a
// notice instead of aborting the deck.
func (r *Renderer) renderVisual(ctx context.Context, d Deck, m plan.MainSlide) error {
	instr, rerr := visual.Resolve(m.Visual)
	if rerr != nil {
		var cerr *visual.NumericCoercionError
		if !errors.As(rerr, &cerr) {
			return rerr
		}
		logging.RenderWarn("chart data for %q rejected: %v", m.Title, cerr)
		idx, err := r.appendVisualSlide(d, m.Title, m.Visual.Title)
		if err != nil {
			return err
		}
		return d.InsertNotice(idx, fmt.Sprintf("[Qrafik məlumatı oxunmadı: %q]", cerr.Value))
	}

	switch v := instr.(type) {
	case visual.NoVisual:
		return nil

	case visual.Chart:
		idx, err := r.appendVisualSlide(d, m.Title, v.Title)
		if err != nil {
			return err
		}
		return d.InsertChart(idx, v)

	case visual.Image:
		idx, err := r.appendVisualSlide(d, m.Title, v.Title)
		if err != nil {
			return err
		}
		path, genErr := r.generateImage(ctx, v)
		if genErr != nil {
			logging.ImageWarn("image for %q failed, inserting notice: %v", v.Title, genErr)
			return d.InsertNotice(idx, fmt.Sprintf("[Şəkil təsviri: %s]", v.Description))
		}
		if err := d.InsertPicture(idx, path); err != nil {
			logging.ImageWarn("picture placement for %q failed, inserting notice: %v", v.Title, err)
			return d.InsertNotice(idx, fmt.Sprintf("[Şəkil təsviri: %s]", v.Description))
		}
		return nil

	case visual.Unsupported:
		idx, err := r.appendVisualSlide(d, m.Title, m.Visual.Title)
		if err != nil {
			return err
		}
		return d.InsertNotice(idx, fmt.Sprintf("[Vizual növü '%s' hələ dəstəklənmir]", v.RawType))

	default:
		return fmt.Errorf("unhandled visual instruction %T", instr)
	}
}

// appendVisualSlide adds the visual follow-up slide and titles it
// "{body title} - {visual title}".
func (r *Renderer) appendVisualSlide(d Deck, mainTitle, visualTitle string) (int, error) {
	if visualTitle == "" {
		visualTitle = "Visual"
	}
	idx, err := d.AppendSlideFromLayout(visualLayout)
	if err != nil {
		return 0, err
	}
	if err := d.SetTitle(idx, fmt.Sprintf("%s - %s", mainTitle, visualTitle)); err != nil {
		return 0, err
	}
	return idx, nil
}

// generateImage translates the Azerbaijani description to English and runs
// the image engine. Any failure along the way fails the whole visual; the
// caller degrades to a notice.
func (r *Renderer) generateImage(ctx context.Context, v visual.Image) (string, error) {
	if r.images == nil {
		return "", fmt.Errorf("%w: no image engine configured", ErrImagePipeline)
	}

	description := v.Description
	if r.translator != nil {
		translated, err := r.translator.Translate(ctx, description, "az", "en")
		if err != nil {
			return "", fmt.Errorf("%w: translation: %v", ErrImagePipeline, err)
		}
		description = translated
	}

	path := filepath.Join(r.workDir, imageFileName(v.Title))
	if err := r.images.Generate(ctx, description, path); err != nil {
		return "", fmt.Errorf("%w: generation: %v", ErrImagePipeline, err)
	}
	logging.Image("generated %s for %q", path, v.Title)
	return path, nil
}

// imageFileName derives a stable file name from the first ten characters of
// the visual title.
func imageFileName(title string) string {
	runes := []rune(title)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	return "generated_image_" + strings.ReplaceAll(string(runes), " ", "_") + ".png"
}

// renderRecommendation appends the closing slide with up to five next-step
// bullets at outline level one.
func (r *Renderer) renderRecommendation(d Deck, rec plan.RecommendationSlide) error {
	idx, err := d.AppendSlideFromLayout(visualLayout)
	if err != nil {
		return err
	}
	if err := d.SetTitle(idx, recommendationTitle); err != nil {
		return err
	}
	lines := make([]string, 0, len(rec.Recommendations))
	for _, line := range rec.Recommendations {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		logging.RenderWarn("recommendation slide has no usable lines")
		return nil
	}
	return d.AppendBulletParagraphs(idx, lines, pptx.ParagraphStyle{
		Level:  1,
		FontPt: recommendationFontPt,
		Color:  "000000",
	})
}
