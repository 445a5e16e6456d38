package model

import (
	"fmt"
	"math"
	"time"
)

// CellConfig is the operator-entered baseline for one cell on the bench.
// Current is signed: positive is the charge direction by convention.
type CellConfig struct {
	ID          string    `json:"id"`
	Chemistry   Chemistry `json:"chemistry"`
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Temperature float64   `json:"temperature"`
	TestHours   float64   `json:"test_hours"`
}

// Validate is the configuration boundary: the pure evaluators downstream
// assume finite inputs and a known chemistry and never re-check.
func (c CellConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("cell id must not be empty")
	}
	if _, err := ParseChemistry(c.Chemistry.String()); err != nil {
		return fmt.Errorf("cell %s: %w", c.ID, err)
	}
	for name, v := range map[string]float64{
		"voltage":     c.Voltage,
		"current":     c.Current,
		"temperature": c.Temperature,
		"test_hours":  c.TestHours,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("cell %s: %s must be finite, got %v", c.ID, name, v)
		}
	}
	return nil
}

// TelemetrySample is one synthesized reading for one cell. Immutable once
// produced; Capacity is |Voltage*Current| in Wh terms, zero at zero current.
type TelemetrySample struct {
	Timestamp   time.Time `json:"timestamp"`
	CellID      string    `json:"cell_id"`
	Chemistry   Chemistry `json:"chemistry"`
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Temperature float64   `json:"temperature"`
	Capacity    float64   `json:"capacity"`
}

// Warning is recomputed from the latest sample each tick and never stored.
type Warning struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	CellID   string   `json:"cell_id"`
}

type BenchInfo struct {
	Bench string `json:"bench"`
	Group int    `json:"group"`
}

// ControlParams mirror the control panel sliders. They are stored and
// surfaced for the session but never enforced against the operating mode
// or the synthesized data.
type ControlParams struct {
	TargetVoltage      float64 `json:"target_voltage"`
	MaxCurrent         float64 `json:"max_current"`
	TargetTemperature  float64 `json:"target_temperature"`
	SafetyTimeoutMin   int     `json:"safety_timeout_min"`
	ChargeCutoffPct    int     `json:"charge_cutoff_pct"`
	DischargeCutoffPct int     `json:"discharge_cutoff_pct"`
}

func DefaultControlParams() ControlParams {
	return ControlParams{
		TargetVoltage:      3.6,
		MaxCurrent:         5.0,
		TargetTemperature:  25.0,
		SafetyTimeoutMin:   60,
		ChargeCutoffPct:    95,
		DischargeCutoffPct: 10,
	}
}

// CellStatus is the per-cell view assembled for the dashboard and the live
// feed: the latest sample plus everything derived from it.
type CellStatus struct {
	Sample      TelemetrySample `json:"sample"`
	ChargePct   float64         `json:"charge_pct"`
	ChargeLevel string          `json:"charge_level"`
	SafetyScore int             `json:"safety_score"`
	Warnings    []Warning       `json:"warnings"`
}

// TickReport is what one synthesis cycle produces for publishers.
type TickReport struct {
	Mode      OperatingMode `json:"mode"`
	Timestamp time.Time     `json:"timestamp"`
	Cells     []CellStatus  `json:"cells"`
}
