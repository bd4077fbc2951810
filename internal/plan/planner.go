package plan

import "fmt"

// MinSlideCount is the smallest requested total that leaves room for the
// three fixed slides (title, intro, recommendation) plus at least one body
// slide under either visuals mode.
const MinSlideCount = 5

// CountPlan is the slide-count arithmetic shared by the prompt builder and
// the renderer's expectations.
type CountPlan struct {
	// RequestedTotal is the caller's original slide count.
	RequestedTotal int

	// MainSlides is how many body slides the model is asked for.
	MainSlides int

	// ForceLastVisualNone is set when visuals count toward the total and the
	// remainder is odd: the final body slide must carry visual.type "none"
	// so the rendered count lines up.
	ForceLastVisualNone bool

	// EffectiveTotal is the slide count quoted back in the prompt. When
	// visuals are separate slides and the remainder splits evenly, visuals
	// grow the deck beyond the request and the total is restated as
	// MainSlides + 3.
	EffectiveTotal int

	// IncludeVisuals records the caller's flag.
	IncludeVisuals bool
}

// ComputeCountPlan derives the body-slide budget for a requested total.
// Three slides are always reserved for title, intro and recommendation.
// Totals below MinSlideCount (or any split leaving no body slide) are a
// validation error, not a degenerate plan.
func ComputeCountPlan(requestedTotal int, includeVisuals bool) (CountPlan, error) {
	if requestedTotal < MinSlideCount {
		return CountPlan{}, fmt.Errorf("slide count %d too small: at least %d required", requestedTotal, MinSlideCount)
	}

	remaining := requestedTotal - 3
	cp := CountPlan{
		RequestedTotal: requestedTotal,
		IncludeVisuals: includeVisuals,
		EffectiveTotal: requestedTotal,
	}

	if !includeVisuals {
		cp.MainSlides = remaining
		return cp, nil
	}

	cp.MainSlides = remaining / 2
	cp.ForceLastVisualNone = remaining%2 == 1
	if cp.ForceLastVisualNone {
		// The extra body slide carries no visual, so the rendered total
		// (3 fixed + main + main-1 visuals) still equals the request.
		cp.MainSlides++
	} else {
		cp.EffectiveTotal = cp.MainSlides + 3
	}
	if cp.MainSlides < 1 {
		return CountPlan{}, fmt.Errorf("slide count %d too small to fit a body slide with visuals counted", requestedTotal)
	}
	return cp, nil
}
