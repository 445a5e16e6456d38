package cell

import (
	"fmt"
	"math"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

// Chemistry-independent safety thresholds.
const (
	HighCurrentAmps = 10.0
	OverheatCelsius = 45.0
	LowTempCelsius  = 0.0
	scorePerWarning = 25
)

// EvaluateSafety checks one reading against the chemistry envelope and the
// fixed current/temperature thresholds. Each dimension contributes at most
// one warning and the emission order is fixed: voltage, current,
// temperature. Downstream scoring depends on that order being stable.
func EvaluateSafety(voltage, current, temperature float64, chemistry model.Chemistry) []model.Warning {
	spec := SpecFor(chemistry)
	var warnings []model.Warning

	if voltage > spec.Max {
		warnings = append(warnings, model.Warning{
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("Overvoltage: %.2fV > %.1fV", voltage, spec.Max),
		})
	} else if voltage < spec.Min {
		warnings = append(warnings, model.Warning{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("Undervoltage: %.2fV < %.1fV", voltage, spec.Min),
		})
	}

	if math.Abs(current) > HighCurrentAmps {
		warnings = append(warnings, model.Warning{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("High current: %.2fA", math.Abs(current)),
		})
	}

	if temperature > OverheatCelsius {
		warnings = append(warnings, model.Warning{
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("Overheating: %.1f°C", temperature),
		})
	} else if temperature < LowTempCelsius {
		warnings = append(warnings, model.Warning{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("Low temperature: %.1f°C", temperature),
		})
	}

	return warnings
}

// EvaluateSample runs EvaluateSafety on a synthesized sample and stamps the
// cell id onto each warning.
func EvaluateSample(sample model.TelemetrySample) []model.Warning {
	warnings := EvaluateSafety(sample.Voltage, sample.Current, sample.Temperature, sample.Chemistry)
	for i := range warnings {
		warnings[i].CellID = sample.CellID
	}
	return warnings
}

// SafetyScore derives the 0-100 score from a warning count: 25 points per
// warning regardless of severity, floored at zero. The formula is load
// bearing for downstream reporting and must not change.
func SafetyScore(warningCount int) int {
	score := 100 - scorePerWarning*warningCount
	if score < 0 {
		return 0
	}
	return score
}
