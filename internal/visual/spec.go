// Package visual normalizes the free-form visual suggestion attached to a
// body slide into a concrete rendering instruction. The model is asked for
// string arrays but frequently emits bare numbers, so list fields tolerate
// both on the wire.
package visual

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Known values for Spec.Type. Anything else resolves to Unsupported.
const (
	TypeNone  = "none"
	TypeImage = "image"
	TypeBar   = "bar"
	TypePie   = "pie"
	TypeLine  = "line"
)

// Spec is the visual suggestion sub-object as it arrives from the model.
// Which fields are meaningful depends on Type: bar/line use X, Y and the
// axis labels; pie uses Labels and Sizes; image uses Description. Extraneous
// fields for the resolved type are ignored rather than rejected.
type Spec struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XLabel      string     `json:"xlabel"`
	YLabel      string     `json:"ylabel"`
	X           StringList `json:"x"`
	Y           StringList `json:"y"`
	Labels      StringList `json:"labels"`
	Sizes       StringList `json:"sizes"`
}

// StringList is a []string that also accepts JSON numbers element-wise.
type StringList []string

// UnmarshalJSON accepts an array of strings or numbers.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			return fmt.Errorf("element %d: expected string or number, got %T", i, v)
		}
	}
	*s = out
	return nil
}
