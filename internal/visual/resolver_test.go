package visual

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePie(t *testing.T) {
	t.Run("Percent And Plain Sizes", func(t *testing.T) {
		instr, err := Resolve(Spec{
			Type:   TypePie,
			Title:  "Bölgü",
			Labels: StringList{"A", "B"},
			Sizes:  StringList{"40%", "60"},
		})
		require.NoError(t, err)

		chart, ok := instr.(Chart)
		require.True(t, ok)
		assert.Equal(t, ChartPie, chart.Kind)
		assert.Equal(t, []string{"A", "B"}, chart.Categories)
		assert.Equal(t, []float64{40.0, 60.0}, chart.Series)
	})

	t.Run("Non Numeric Size", func(t *testing.T) {
		_, err := Resolve(Spec{
			Type:   TypePie,
			Labels: StringList{"A"},
			Sizes:  StringList{"abc"},
		})
		var coercion *NumericCoercionError
		require.True(t, errors.As(err, &coercion))
		assert.Equal(t, "sizes", coercion.Field)
		assert.Equal(t, 0, coercion.Index)
		assert.Equal(t, "abc", coercion.Value)
	})

	t.Run("Whitespace Trimmed", func(t *testing.T) {
		instr, err := Resolve(Spec{
			Type:   TypePie,
			Labels: StringList{"A"},
			Sizes:  StringList{"  25% "},
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{25.0}, instr.(Chart).Series)
	})
}

func TestResolveBarLine(t *testing.T) {
	t.Run("Bar With Axis Labels", func(t *testing.T) {
		instr, err := Resolve(Spec{
			Type:   TypeBar,
			Title:  "İllik artım",
			XLabel: "İl",
			YLabel: "Faiz",
			X:      StringList{"2022", "2023"},
			Y:      StringList{"3.5", "7"},
		})
		require.NoError(t, err)

		chart := instr.(Chart)
		assert.Equal(t, ChartBar, chart.Kind)
		assert.Equal(t, []float64{3.5, 7.0}, chart.Series)
		assert.Equal(t, "İl", chart.XLabel)
		assert.Equal(t, "Faiz", chart.YLabel)
	})

	t.Run("Line", func(t *testing.T) {
		instr, err := Resolve(Spec{Type: TypeLine, X: StringList{"a"}, Y: StringList{"1"}})
		require.NoError(t, err)
		assert.Equal(t, ChartLine, instr.(Chart).Kind)
	})

	t.Run("Bad Y Value", func(t *testing.T) {
		_, err := Resolve(Spec{Type: TypeLine, X: StringList{"a"}, Y: StringList{"1", "two"}})
		var coercion *NumericCoercionError
		require.True(t, errors.As(err, &coercion))
		assert.Equal(t, "y", coercion.Field)
		assert.Equal(t, 1, coercion.Index)
	})

	t.Run("Extraneous Pie Fields Ignored", func(t *testing.T) {
		instr, err := Resolve(Spec{
			Type:   TypeBar,
			X:      StringList{"a"},
			Y:      StringList{"1"},
			Labels: StringList{"stray"},
			Sizes:  StringList{"not a number"},
		})
		require.NoError(t, err)
		assert.Equal(t, ChartBar, instr.(Chart).Kind)
	})
}

func TestResolveOther(t *testing.T) {
	t.Run("None", func(t *testing.T) {
		instr, err := Resolve(Spec{Type: TypeNone})
		require.NoError(t, err)
		assert.IsType(t, NoVisual{}, instr)
	})

	t.Run("Empty Type Treated As None", func(t *testing.T) {
		instr, err := Resolve(Spec{})
		require.NoError(t, err)
		assert.IsType(t, NoVisual{}, instr)
	})

	t.Run("Image", func(t *testing.T) {
		instr, err := Resolve(Spec{Type: TypeImage, Description: "şəhər panoraması"})
		require.NoError(t, err)
		assert.Equal(t, Image{Description: "şəhər panoraması"}, instr)
	})

	t.Run("Unsupported", func(t *testing.T) {
		instr, err := Resolve(Spec{Type: "scatter"})
		require.NoError(t, err)
		assert.Equal(t, Unsupported{RawType: "scatter"}, instr)
	})
}

func TestStringListUnmarshal(t *testing.T) {
	t.Run("Mixed Strings And Numbers", func(t *testing.T) {
		var s Spec
		raw := `{"type":"bar","x":["Q1","Q2"],"y":[12, "15.5"]}`
		require.NoError(t, json.Unmarshal([]byte(raw), &s))
		assert.Equal(t, StringList{"12", "15.5"}, s.Y)
	})

	t.Run("Rejects Objects", func(t *testing.T) {
		var s Spec
		raw := `{"type":"bar","y":[{"v":1}]}`
		assert.Error(t, json.Unmarshal([]byte(raw), &s))
	})
}
