// Package history serves the analysis side of the bench: a mock two-hour
// backfill for sessions without stored telemetry, summary statistics,
// safety score series and CSV export.
package history

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/anicoll/cellbench/internal/pkg/cell"
	"github.com/anicoll/cellbench/internal/pkg/model"
)

const (
	backfillPoints   = 120
	backfillInterval = time.Minute
)

// Backfill fabricates two hours of per-minute history around each cell's
// baseline. The spread is deliberately wider than live synthesis so the
// analysis charts have something to show on a fresh session.
func Backfill(cells []model.CellConfig, rng *rand.Rand, now time.Time) []model.TelemetrySample {
	start := now.Add(-backfillPoints * backfillInterval)
	samples := make([]model.TelemetrySample, 0, backfillPoints*len(cells))
	for i := 0; i < backfillPoints; i++ {
		ts := start.Add(time.Duration(i) * backfillInterval)
		for _, c := range cells {
			voltage := math.Max(0, c.Voltage+uniform(rng, -0.2, 0.2))
			current := c.Current + uniform(rng, -1, 1)
			capacity := 0.0
			if current != 0 {
				capacity = math.Abs(voltage * current)
			}
			samples = append(samples, model.TelemetrySample{
				Timestamp:   ts,
				CellID:      c.ID,
				Chemistry:   c.Chemistry,
				Voltage:     voltage,
				Current:     current,
				Temperature: c.Temperature + uniform(rng, -5, 15),
				Capacity:    capacity,
			})
		}
	}
	return samples
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

type CellAggregate struct {
	CellID         string  `json:"cell_id"`
	AvgVoltage     float64 `json:"avg_voltage"`
	AvgCurrent     float64 `json:"avg_current"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgCapacity    float64 `json:"avg_capacity"`
}

type Summary struct {
	DataPoints     int             `json:"data_points"`
	AvgVoltage     float64         `json:"avg_voltage"`
	AvgCurrent     float64         `json:"avg_current"`
	AvgTemperature float64         `json:"avg_temperature"`
	MaxVoltage     float64         `json:"max_voltage"`
	MaxCurrent     float64         `json:"max_current"`
	MaxTemperature float64         `json:"max_temperature"`
	PerCell        []CellAggregate `json:"per_cell"`
}

// Summarize computes the analysis page statistics over a sample set.
func Summarize(samples []model.TelemetrySample) Summary {
	summary := Summary{DataPoints: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	summary.AvgVoltage = lo.SumBy(samples, voltageOf) / float64(len(samples))
	summary.AvgCurrent = lo.SumBy(samples, currentOf) / float64(len(samples))
	summary.AvgTemperature = lo.SumBy(samples, temperatureOf) / float64(len(samples))
	summary.MaxVoltage = voltageOf(lo.MaxBy(samples, func(a, b model.TelemetrySample) bool { return a.Voltage > b.Voltage }))
	summary.MaxCurrent = currentOf(lo.MaxBy(samples, func(a, b model.TelemetrySample) bool { return a.Current > b.Current }))
	summary.MaxTemperature = temperatureOf(lo.MaxBy(samples, func(a, b model.TelemetrySample) bool { return a.Temperature > b.Temperature }))

	grouped := lo.GroupBy(samples, func(s model.TelemetrySample) string { return s.CellID })
	for id, group := range grouped {
		n := float64(len(group))
		summary.PerCell = append(summary.PerCell, CellAggregate{
			CellID:         id,
			AvgVoltage:     lo.SumBy(group, voltageOf) / n,
			AvgCurrent:     lo.SumBy(group, currentOf) / n,
			AvgTemperature: lo.SumBy(group, temperatureOf) / n,
			AvgCapacity:    lo.SumBy(group, func(s model.TelemetrySample) float64 { return s.Capacity }) / n,
		})
	}
	sort.Slice(summary.PerCell, func(i, j int) bool {
		return summary.PerCell[i].CellID < summary.PerCell[j].CellID
	})
	return summary
}

func voltageOf(s model.TelemetrySample) float64     { return s.Voltage }
func currentOf(s model.TelemetrySample) float64     { return s.Current }
func temperatureOf(s model.TelemetrySample) float64 { return s.Temperature }

type ScorePoint struct {
	CellID       string    `json:"cell_id"`
	Timestamp    time.Time `json:"timestamp"`
	WarningCount int       `json:"warning_count"`
	SafetyScore  int       `json:"safety_score"`
}

// SafetySeries re-evaluates every sample and maps it onto the derived
// safety score, mirroring the analysis page's safety chart.
func SafetySeries(samples []model.TelemetrySample) []ScorePoint {
	points := make([]ScorePoint, 0, len(samples))
	for _, s := range samples {
		warnings := cell.EvaluateSample(s)
		points = append(points, ScorePoint{
			CellID:       s.CellID,
			Timestamp:    s.Timestamp,
			WarningCount: len(warnings),
			SafetyScore:  cell.SafetyScore(len(warnings)),
		})
	}
	return points
}

type Filter struct {
	CellIDs     []string
	Chemistries []model.Chemistry
	From        *time.Time
	To          *time.Time
}

// Apply narrows a sample set to the filter. Empty slices match everything.
func (f Filter) Apply(samples []model.TelemetrySample) []model.TelemetrySample {
	return lo.Filter(samples, func(s model.TelemetrySample, _ int) bool {
		if len(f.CellIDs) > 0 && !lo.Contains(f.CellIDs, s.CellID) {
			return false
		}
		if len(f.Chemistries) > 0 && !lo.Contains(f.Chemistries, s.Chemistry) {
			return false
		}
		if f.From != nil && s.Timestamp.Before(*f.From) {
			return false
		}
		if f.To != nil && s.Timestamp.After(*f.To) {
			return false
		}
		return true
	})
}

// WriteCSV streams samples in the export format of the analysis page.
func WriteCSV(w io.Writer, samples []model.TelemetrySample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "cell_id", "cell_type", "voltage", "current", "temperature", "capacity"}); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			s.CellID,
			s.Chemistry.String(),
			strconv.FormatFloat(s.Voltage, 'f', 4, 64),
			strconv.FormatFloat(s.Current, 'f', 4, 64),
			strconv.FormatFloat(s.Temperature, 'f', 4, 64),
			strconv.FormatFloat(s.Capacity, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
