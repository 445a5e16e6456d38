package synth

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

func testCell() model.CellConfig {
	return model.CellConfig{
		ID:          "Cell_1",
		Chemistry:   model.ChemistryLFP,
		Voltage:     3.2,
		Current:     2.0,
		Temperature: 25.0,
		TestHours:   1,
	}
}

func seeded(seed int64) *Synthesizer {
	return New(WithRand(rand.New(rand.NewSource(seed))))
}

// The synthesizer contract is a distributional envelope, not exact values:
// assertions below bound the drift per mode over many draws.
func TestSample_ChargingEnvelope(t *testing.T) {
	t.Parallel()
	s := seeded(1)
	cfg := testCell()
	for i := 0; i < 1000; i++ {
		sample := s.Sample(cfg, model.ModeCharging)
		assert.GreaterOrEqual(t, sample.Voltage, cfg.Voltage+0.05)
		assert.LessOrEqual(t, sample.Voltage, cfg.Voltage+0.15)
		assert.GreaterOrEqual(t, sample.Current, math.Abs(cfg.Current)-0.5)
		assert.LessOrEqual(t, sample.Current, math.Abs(cfg.Current)+0.5)
		assert.GreaterOrEqual(t, sample.Temperature, cfg.Temperature+2)
		assert.LessOrEqual(t, sample.Temperature, cfg.Temperature+8)
	}
}

func TestSample_DischargingEnvelope(t *testing.T) {
	t.Parallel()
	s := seeded(2)
	cfg := testCell()
	for i := 0; i < 1000; i++ {
		sample := s.Sample(cfg, model.ModeDischarging)
		assert.GreaterOrEqual(t, sample.Voltage, cfg.Voltage-0.15)
		assert.LessOrEqual(t, sample.Voltage, cfg.Voltage-0.05)
		assert.GreaterOrEqual(t, sample.Current, -math.Abs(cfg.Current)-0.5)
		assert.LessOrEqual(t, sample.Current, -math.Abs(cfg.Current)+0.5)
		assert.GreaterOrEqual(t, sample.Temperature, cfg.Temperature+1)
		assert.LessOrEqual(t, sample.Temperature, cfg.Temperature+5)
	}
}

func TestSample_PausedEnvelope(t *testing.T) {
	t.Parallel()
	s := seeded(3)
	cfg := testCell()
	for i := 0; i < 1000; i++ {
		sample := s.Sample(cfg, model.ModePaused)
		assert.InDelta(t, cfg.Voltage, sample.Voltage, 0.02)
		assert.InDelta(t, 0, sample.Current, 0.1)
		assert.InDelta(t, cfg.Temperature, sample.Temperature, 1)
	}
}

func TestSample_IdleCurrentExactlyZero(t *testing.T) {
	t.Parallel()
	s := seeded(4)
	cfg := testCell()
	for i := 0; i < 1000; i++ {
		sample := s.Sample(cfg, model.ModeIdle)
		assert.Zero(t, sample.Current)
		assert.Zero(t, sample.Capacity)
		assert.InDelta(t, cfg.Voltage, sample.Voltage, 0.01)
		assert.InDelta(t, cfg.Temperature, sample.Temperature, 0.5)
	}
}

func TestSample_VoltageClampedAtZero(t *testing.T) {
	t.Parallel()
	s := seeded(5)
	cfg := testCell()
	cfg.Voltage = 0.01 // discharging drift would go negative
	for i := 0; i < 1000; i++ {
		for _, mode := range []model.OperatingMode{
			model.ModeIdle, model.ModeCharging, model.ModeDischarging, model.ModePaused,
		} {
			assert.GreaterOrEqual(t, s.Sample(cfg, mode).Voltage, 0.0)
		}
	}
}

func TestSample_Capacity(t *testing.T) {
	t.Parallel()
	s := seeded(6)
	cfg := testCell()
	sample := s.Sample(cfg, model.ModeDischarging)
	assert.InDelta(t, math.Abs(sample.Voltage*sample.Current), sample.Capacity, 1e-12)
	assert.GreaterOrEqual(t, sample.Capacity, 0.0)
}

func TestSample_DeterministicForFixedSeed(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	a := New(WithRand(rand.New(rand.NewSource(42))), WithClock(clock))
	b := New(WithRand(rand.New(rand.NewSource(42))), WithClock(clock))
	cfg := testCell()
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Sample(cfg, model.ModeCharging), b.Sample(cfg, model.ModeCharging))
	}
}

func TestSample_CarriesIdentity(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithRand(rand.New(rand.NewSource(7))), WithClock(func() time.Time { return now }))
	sample := s.Sample(testCell(), model.ModeIdle)
	assert.Equal(t, "Cell_1", sample.CellID)
	assert.Equal(t, model.ChemistryLFP, sample.Chemistry)
	assert.Equal(t, now, sample.Timestamp)
}
