package server

import (
	"github.com/anicoll/cellbench/internal/pkg/history"
	"github.com/anicoll/cellbench/internal/pkg/model"
)

type CellOverview struct {
	ID          string          `json:"id"`
	Chemistry   model.Chemistry `json:"chemistry"`
	Voltage     float64         `json:"voltage"`
	Temperature float64         `json:"temperature"`
	ChargePct   float64         `json:"charge_pct"`
	ChargeLevel string          `json:"charge_level"`
}

// StatusResponse is the dashboard view: aggregates over the operator
// baselines plus the warnings they trip.
type StatusResponse struct {
	Mode           model.OperatingMode `json:"mode"`
	Bench          model.BenchInfo     `json:"bench"`
	RuntimeMinutes float64             `json:"runtime_minutes"`
	TotalCells     int                 `json:"total_cells"`
	AvgVoltage     float64             `json:"avg_voltage"`
	TotalCurrent   float64             `json:"total_current"`
	AvgTemperature float64             `json:"avg_temperature"`
	Cells          []CellOverview      `json:"cells"`
	Warnings       []model.Warning     `json:"warnings"`
	AllClear       bool                `json:"all_clear"`
}

type ControlResponse struct {
	Mode model.OperatingMode `json:"mode"`
}

type LiveResponse struct {
	Mode  model.OperatingMode `json:"mode"`
	Cells []model.CellStatus  `json:"cells"`
}

type SummaryResponse struct {
	ActiveCells int                  `json:"active_cells"`
	Summary     history.Summary      `json:"summary"`
	Safety      []history.ScorePoint `json:"safety"`
}

type errorResponse struct {
	Error string `json:"error"`
}
