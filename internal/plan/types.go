// Package plan defines the slide-plan contract between the generation model
// and the deck renderer: the typed slide variants, the parser that validates
// the model's raw output against them, and the slide-count arithmetic that
// drives both the prompt and the renderer's expectations.
package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"slideforge/internal/visual"
)

// Slide type discriminator values.
const (
	TypeTitle          = "title"
	TypeIntro          = "intro"
	TypeMain           = "main"
	TypeRecommendation = "recommendation"
)

// TitleSlide names the presentation.
type TitleSlide struct {
	Title string `json:"title"`
}

// IntroSlide carries the aim and the short summary shown on the second
// template slide.
type IntroSlide struct {
	Aim     string `json:"aim"`
	Summary string `json:"summary"`
}

// MainSlide is one body slide: a title, four content points and a visual
// suggestion. A point may be empty, which clears its placeholder.
type MainSlide struct {
	Title  string
	Points [4]string
	Visual visual.Spec
}

// RecommendationSlide closes the deck. Recommendations holds the present
// numbered fields in order; the parser guarantees at least four.
type RecommendationSlide struct {
	Recommendations []string
}

// DeckPlan is the validated, ordered slide sequence. Its shape materializes
// the ordering invariant the renderer relies on: exactly one title, one
// intro, zero or more body slides, one recommendation. A DeckPlan is
// immutable after Parse succeeds.
type DeckPlan struct {
	Title          TitleSlide
	Intro          IntroSlide
	Mains          []MainSlide
	Recommendation RecommendationSlide
}

// SlideCount returns the number of plan elements (not rendered slides;
// visuals add follow-up slides at render time).
func (p *DeckPlan) SlideCount() int {
	return 3 + len(p.Mains)
}

// MarshalJSON re-serializes the plan to the wire array form, suitable for
// feeding back through Parse.
func (p *DeckPlan) MarshalJSON() ([]byte, error) {
	items := make([]map[string]interface{}, 0, p.SlideCount())

	items = append(items, map[string]interface{}{
		"type":  TypeTitle,
		"title": p.Title.Title,
	})
	items = append(items, map[string]interface{}{
		"type":    TypeIntro,
		"aim":     p.Intro.Aim,
		"summary": p.Intro.Summary,
	})
	for _, m := range p.Mains {
		item := map[string]interface{}{
			"type":   TypeMain,
			"title":  m.Title,
			"visual": m.Visual,
		}
		for i, pt := range m.Points {
			item[fmt.Sprintf("point%d", i+1)] = pt
		}
		items = append(items, item)
	}
	rec := map[string]interface{}{"type": TypeRecommendation}
	for i, r := range p.Recommendation.Recommendations {
		rec[fmt.Sprintf("recommendation%d", i+1)] = r
	}
	items = append(items, rec)

	return json.Marshal(items)
}

// MalformedResponseError describes why the model output failed validation.
// Index is the slide position when the failure is per-element, -1 otherwise.
type MalformedResponseError struct {
	Reason  string
	Index   int
	Type    string
	Missing []string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	var b strings.Builder
	b.WriteString("malformed response: ")
	b.WriteString(e.Reason)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " (slide %d)", e.Index)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, ": type %q", e.Type)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
