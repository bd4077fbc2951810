package visual

import (
	"fmt"
	"strconv"
	"strings"
)

// ChartKind identifies the category chart variants the deck template can host.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// Instruction is the resolved rendering instruction for one visual
// suggestion. Exactly one of the concrete types below implements it.
type Instruction interface {
	isInstruction()
}

// NoVisual means the slide carries no visual and the renderer must not
// append a follow-up slide for it.
type NoVisual struct{}

// Chart carries coerced numeric data ready for chart insertion.
type Chart struct {
	Kind       ChartKind
	Title      string
	Categories []string
	Series     []float64
	XLabel     string
	YLabel     string
}

// Image asks the renderer to produce a picture from the description.
// Translation and pixel generation are external concerns.
type Image struct {
	Title       string
	Description string
}

// Unsupported is any type value outside the known set. The renderer shows a
// visible notice instead of failing the deck.
type Unsupported struct {
	RawType string
}

func (NoVisual) isInstruction()    {}
func (Chart) isInstruction()       {}
func (Image) isInstruction()       {}
func (Unsupported) isInstruction() {}

// NumericCoercionError reports a chart data element that could not be
// parsed as a number. It aborts only the visual it belongs to.
type NumericCoercionError struct {
	Field string
	Index int
	Value string
}

func (e *NumericCoercionError) Error() string {
	return fmt.Sprintf("visual: %s[%d]: %q is not numeric", e.Field, e.Index, e.Value)
}

// Resolve normalizes a Spec into an Instruction. Chart data failures return
// a *NumericCoercionError; every other input resolves without error.
func Resolve(s Spec) (Instruction, error) {
	switch s.Type {
	case TypeNone, "":
		return NoVisual{}, nil

	case TypeBar, TypeLine:
		series, err := coerceSeries("y", s.Y)
		if err != nil {
			return nil, err
		}
		kind := ChartBar
		if s.Type == TypeLine {
			kind = ChartLine
		}
		return Chart{
			Kind:       kind,
			Title:      s.Title,
			Categories: s.X,
			Series:     series,
			XLabel:     s.XLabel,
			YLabel:     s.YLabel,
		}, nil

	case TypePie:
		series, err := coerceSizes(s.Sizes)
		if err != nil {
			return nil, err
		}
		return Chart{
			Kind:       ChartPie,
			Title:      s.Title,
			Categories: s.Labels,
			Series:     series,
		}, nil

	case TypeImage:
		return Image{Title: s.Title, Description: s.Description}, nil

	default:
		return Unsupported{RawType: s.Type}, nil
	}
}

// coerceSeries parses plain numeric strings element-wise.
func coerceSeries(field string, values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &NumericCoercionError{Field: field, Index: i, Value: v}
		}
		out = append(out, f)
	}
	return out, nil
}

// coerceSizes parses pie slice sizes, stripping a trailing percent sign
// before the float parse. "40%" and "40" both yield 40.
func coerceSizes(values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimSuffix(trimmed, "%")
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &NumericCoercionError{Field: "sizes", Index: i, Value: v}
		}
		out = append(out, f)
	}
	return out, nil
}
