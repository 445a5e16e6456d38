package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

func TestEstimateCharge_Bounds(t *testing.T) {
	t.Parallel()
	for _, chemistry := range model.Chemistries {
		spec := SpecFor(chemistry)
		assert.Equal(t, 0.0, EstimateCharge(spec.Min, chemistry), "at min for %s", chemistry)
		assert.Equal(t, 100.0, EstimateCharge(spec.Max, chemistry), "at max for %s", chemistry)
		assert.Equal(t, 0.0, EstimateCharge(spec.Min-1, chemistry), "below min for %s", chemistry)
		assert.Equal(t, 100.0, EstimateCharge(spec.Max+1, chemistry), "above max for %s", chemistry)
	}
}

func TestEstimateCharge_NominalStrictlyBetween(t *testing.T) {
	t.Parallel()
	for _, chemistry := range model.Chemistries {
		spec := SpecFor(chemistry)
		pct := EstimateCharge(spec.Nominal, chemistry)
		assert.Greater(t, pct, 0.0, "%s nominal", chemistry)
		assert.Less(t, pct, 100.0, "%s nominal", chemistry)
	}
}

func TestEstimateCharge_Monotonic(t *testing.T) {
	t.Parallel()
	for _, chemistry := range model.Chemistries {
		spec := SpecFor(chemistry)
		prev := -1.0
		for v := spec.Min - 0.5; v <= spec.Max+0.5; v += 0.01 {
			pct := EstimateCharge(v, chemistry)
			assert.GreaterOrEqual(t, pct, prev, "%s at %.2fV", chemistry, v)
			prev = pct
		}
	}
}

func TestEstimateCharge_LFPMidpoint(t *testing.T) {
	t.Parallel()
	// LFP range is 2.8-3.6, so 3.2V sits exactly halfway.
	assert.InDelta(t, 50.0, EstimateCharge(3.2, model.ChemistryLFP), 1e-9)
}

func TestChargeLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "high", ChargeLevel(80.1))
	assert.Equal(t, "medium", ChargeLevel(80))
	assert.Equal(t, "medium", ChargeLevel(40.1))
	assert.Equal(t, "low", ChargeLevel(40))
	assert.Equal(t, "low", ChargeLevel(0))
}

func TestSpecFor_Table(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Spec{Nominal: 3.2, Min: 2.8, Max: 3.6}, SpecFor(model.ChemistryLFP))
	assert.Equal(t, Spec{Nominal: 3.6, Min: 3.0, Max: 4.2}, SpecFor(model.ChemistryNMC))
	assert.Equal(t, Spec{Nominal: 2.4, Min: 1.8, Max: 2.8}, SpecFor(model.ChemistryLTO))
}

func TestSpecFor_UnknownPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		SpecFor(model.Chemistry("NiCd"))
	})
}
