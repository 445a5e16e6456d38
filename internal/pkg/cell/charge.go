package cell

import "github.com/anicoll/cellbench/internal/pkg/model"

// EstimateCharge maps a voltage reading to a state-of-charge percentage in
// [0, 100] by linear interpolation between the chemistry bounds. Real state
// of charge is non-linear and history dependent; this is a deterministic,
// monotonic proxy that is cheap enough to recompute every tick.
func EstimateCharge(voltage float64, chemistry model.Chemistry) float64 {
	spec := SpecFor(chemistry)
	switch {
	case voltage <= spec.Min:
		return 0
	case voltage >= spec.Max:
		return 100
	}
	return (voltage - spec.Min) / (spec.Max - spec.Min) * 100
}

// ChargeLevel buckets a charge percentage into the dashboard bands.
func ChargeLevel(pct float64) string {
	switch {
	case pct > 80:
		return "high"
	case pct > 40:
		return "medium"
	}
	return "low"
}
