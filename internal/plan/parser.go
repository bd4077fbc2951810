package plan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"slideforge/internal/visual"
)

// Validation failure reasons carried by MalformedResponseError.
const (
	ReasonNoArray       = "no array found"
	ReasonInvalidJSON   = "invalid JSON"
	ReasonNotArray      = "not an array"
	ReasonNotObject     = "not an object"
	ReasonUnknownType   = "unknown type"
	ReasonMissingFields = "missing fields"
	ReasonBadOrdering   = "bad slide ordering"
)

// Parse extracts the JSON array from a raw model response and validates it
// into a DeckPlan. The response may carry surrounding prose or markdown
// fencing; only the substring from the first '[' to the last ']' is
// considered. Beyond the per-slide schema, Parse enforces the ordering the
// renderer assumes: title, intro, zero or more main slides, recommendation.
func Parse(raw string) (*DeckPlan, error) {
	payload, ok := extractArray(raw)
	if !ok {
		return nil, &MalformedResponseError{Reason: ReasonNoArray, Index: -1}
	}

	var value interface{}
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, &MalformedResponseError{Reason: ReasonInvalidJSON, Index: -1, Err: err}
	}

	items, ok := value.([]interface{})
	if !ok {
		return nil, &MalformedResponseError{Reason: ReasonNotArray, Index: -1}
	}
	if len(items) < 3 {
		return nil, &MalformedResponseError{
			Reason: ReasonBadOrdering, Index: -1,
			Err: fmt.Errorf("expected at least title, intro and recommendation, got %d slides", len(items)),
		}
	}

	plan := &DeckPlan{}
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, &MalformedResponseError{Reason: ReasonNotObject, Index: i}
		}
		slideType, _ := obj["type"].(string)

		switch slideType {
		case TypeTitle:
			if i != 0 {
				return nil, orderingError(i, slideType, "title slide only allowed first")
			}
			if missing := missingKeys(obj, "title"); len(missing) > 0 {
				return nil, missingError(i, slideType, missing)
			}
			plan.Title = TitleSlide{Title: stringField(obj, "title")}

		case TypeIntro:
			if i != 1 {
				return nil, orderingError(i, slideType, "intro slide only allowed second")
			}
			if missing := missingKeys(obj, "aim", "summary"); len(missing) > 0 {
				return nil, missingError(i, slideType, missing)
			}
			plan.Intro = IntroSlide{
				Aim:     stringField(obj, "aim"),
				Summary: stringField(obj, "summary"),
			}

		case TypeMain:
			if i < 2 || i == len(items)-1 {
				return nil, orderingError(i, slideType, "main slides must sit between intro and recommendation")
			}
			main, err := parseMain(i, obj)
			if err != nil {
				return nil, err
			}
			plan.Mains = append(plan.Mains, main)

		case TypeRecommendation:
			if i != len(items)-1 {
				return nil, orderingError(i, slideType, "recommendation slide only allowed last")
			}
			rec, err := parseRecommendation(i, obj)
			if err != nil {
				return nil, err
			}
			plan.Recommendation = rec

		default:
			return nil, &MalformedResponseError{Reason: ReasonUnknownType, Index: i, Type: slideType}
		}
	}

	// The positional checks in the switch pin each variant to its slot, so a
	// plan that survives the loop necessarily reads title, intro, main*,
	// recommendation.
	return plan, nil
}

// extractArray returns the substring from the first '[' to the last ']'.
func extractArray(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseMain(index int, obj map[string]interface{}) (MainSlide, error) {
	required := []string{"title", "point1", "point2", "point3", "point4", "visual"}
	if missing := missingKeys(obj, required...); len(missing) > 0 {
		return MainSlide{}, missingError(index, TypeMain, missing)
	}

	rawVisual, ok := obj["visual"].(map[string]interface{})
	if !ok {
		return MainSlide{}, &MalformedResponseError{
			Reason: ReasonMissingFields, Index: index, Type: TypeMain,
			Err: fmt.Errorf("visual must be an object"),
		}
	}

	// Round-trip the visual through its typed decoder so list fields get the
	// string-or-number tolerance.
	visualBytes, err := json.Marshal(rawVisual)
	if err != nil {
		return MainSlide{}, &MalformedResponseError{Reason: ReasonInvalidJSON, Index: index, Type: TypeMain, Err: err}
	}
	var spec visual.Spec
	if err := json.Unmarshal(visualBytes, &spec); err != nil {
		return MainSlide{}, &MalformedResponseError{Reason: ReasonInvalidJSON, Index: index, Type: TypeMain, Err: err}
	}

	main := MainSlide{Title: stringField(obj, "title"), Visual: spec}
	for i := 0; i < 4; i++ {
		main.Points[i] = stringField(obj, fmt.Sprintf("point%d", i+1))
	}
	return main, nil
}

func parseRecommendation(index int, obj map[string]interface{}) (RecommendationSlide, error) {
	var present []string
	for i := 1; i <= 5; i++ {
		key := fmt.Sprintf("recommendation%d", i)
		if _, ok := obj[key]; ok {
			present = append(present, stringField(obj, key))
		}
	}
	if len(present) < 4 {
		return RecommendationSlide{}, &MalformedResponseError{
			Reason: ReasonMissingFields, Index: index, Type: TypeRecommendation,
			Err: fmt.Errorf("at least 4 of recommendation1..5 required, got %d", len(present)),
		}
	}
	return RecommendationSlide{Recommendations: present}, nil
}

// missingKeys returns the required keys absent from obj, sorted for stable
// error messages.
func missingKeys(obj map[string]interface{}, required ...string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func missingError(index int, slideType string, missing []string) error {
	return &MalformedResponseError{Reason: ReasonMissingFields, Index: index, Type: slideType, Missing: missing}
}

func orderingError(index int, slideType, detail string) error {
	return &MalformedResponseError{
		Reason: ReasonBadOrdering, Index: index, Type: slideType,
		Err: fmt.Errorf("%s", detail),
	}
}
