// Package synth produces mock telemetry samples by perturbing an
// operator-entered baseline according to the current operating mode. It
// stands in for real acquisition hardware, which this service deliberately
// has none of.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

type Synthesizer struct {
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Synthesizer)

// WithRand replaces the entropy source, letting tests drive the generator
// with a fixed seed.
func WithRand(rng *rand.Rand) Option {
	return func(s *Synthesizer) {
		s.rng = rng
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sample emits one perturbed reading for the given cell. The drift policy
// per mode:
//
//	Charging:    V +0.05..0.15, I = |base|±0.5, T +2..8
//	Discharging: V -0.05..0.15, I = -|base|±0.5, T +1..5
//	Paused:      V ±0.02, I in ±0.1, T ±1
//	Idle:        V ±0.01, I = 0 exactly, T ±0.5
//
// Emitted voltage is clamped to >= 0. Capacity is |V*I|, zero when the
// current is exactly zero.
func (s *Synthesizer) Sample(cfg model.CellConfig, mode model.OperatingMode) model.TelemetrySample {
	var voltage, current, temperature float64

	switch mode {
	case model.ModeCharging:
		voltage = cfg.Voltage + s.uniform(0.05, 0.15)
		current = math.Abs(cfg.Current) + s.uniform(-0.5, 0.5)
		temperature = cfg.Temperature + s.uniform(2, 8)
	case model.ModeDischarging:
		voltage = cfg.Voltage - s.uniform(0.05, 0.15)
		current = -math.Abs(cfg.Current) + s.uniform(-0.5, 0.5)
		temperature = cfg.Temperature + s.uniform(1, 5)
	case model.ModePaused:
		voltage = cfg.Voltage + s.uniform(-0.02, 0.02)
		current = s.uniform(-0.1, 0.1)
		temperature = cfg.Temperature + s.uniform(-1, 1)
	default: // Idle
		voltage = cfg.Voltage + s.uniform(-0.01, 0.01)
		current = 0
		temperature = cfg.Temperature + s.uniform(-0.5, 0.5)
	}

	voltage = math.Max(0, voltage)

	capacity := 0.0
	if current != 0 {
		capacity = math.Abs(voltage * current)
	}

	return model.TelemetrySample{
		Timestamp:   s.now(),
		CellID:      cfg.ID,
		Chemistry:   cfg.Chemistry,
		Voltage:     voltage,
		Current:     current,
		Temperature: temperature,
		Capacity:    capacity,
	}
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
