package plan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCountPlanWithoutVisuals(t *testing.T) {
	for total := 5; total <= 30; total++ {
		t.Run(fmt.Sprintf("Total %d", total), func(t *testing.T) {
			cp, err := ComputeCountPlan(total, false)
			require.NoError(t, err)
			assert.Equal(t, total-3, cp.MainSlides)
			assert.False(t, cp.ForceLastVisualNone)
			assert.Equal(t, total, cp.EffectiveTotal)
		})
	}
}

func TestComputeCountPlanWithVisuals(t *testing.T) {
	for total := 5; total <= 30; total++ {
		t.Run(fmt.Sprintf("Total %d", total), func(t *testing.T) {
			cp, err := ComputeCountPlan(total, true)
			require.NoError(t, err)
			remaining := total - 3
			// Odd remainders grow the body count by one; that extra slide
			// carries no visual.
			assert.Equal(t, remaining/2+remaining%2, cp.MainSlides)
			assert.Equal(t, remaining%2 == 1, cp.ForceLastVisualNone)

			// Rendered total (3 fixed + mains + their visual follow-ups)
			// matches the requested count on odd remainders.
			if cp.ForceLastVisualNone {
				rendered := 3 + cp.MainSlides + (cp.MainSlides - 1)
				assert.Equal(t, total, rendered)
			}
		})
	}

	t.Run("Even Remainder Restates Total", func(t *testing.T) {
		cp, err := ComputeCountPlan(9, true) // remaining 6 -> 3 mains + 3 visuals
		require.NoError(t, err)
		assert.Equal(t, 3, cp.MainSlides)
		assert.False(t, cp.ForceLastVisualNone)
		assert.Equal(t, 6, cp.EffectiveTotal)
	})

	t.Run("Odd Remainder Keeps Requested Total", func(t *testing.T) {
		cp, err := ComputeCountPlan(8, true) // remaining 5 -> 3 mains, last without visual
		require.NoError(t, err)
		assert.Equal(t, 3, cp.MainSlides)
		assert.True(t, cp.ForceLastVisualNone)
		assert.Equal(t, 8, cp.EffectiveTotal)
	})
}

func TestComputeCountPlanRejectsDegenerate(t *testing.T) {
	for _, total := range []int{-1, 0, 1, 2, 3, 4} {
		_, err := ComputeCountPlan(total, false)
		assert.Error(t, err, "total %d", total)
		_, err = ComputeCountPlan(total, true)
		assert.Error(t, err, "total %d", total)
	}
}
