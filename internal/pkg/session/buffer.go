package session

import "github.com/anicoll/cellbench/internal/pkg/model"

// maxSamplesPerCell bounds the rolling telemetry buffer: the overall cap is
// 60 samples times the number of configured cells, with oldest-first
// eviction across the whole buffer rather than per cell.
const maxSamplesPerCell = 60

type rollingBuffer struct {
	samples []model.TelemetrySample
	cap     int
}

func (b *rollingBuffer) setCap(cells int) {
	b.cap = maxSamplesPerCell * cells
	b.trim()
}

func (b *rollingBuffer) append(samples []model.TelemetrySample) {
	b.samples = append(b.samples, samples...)
	b.trim()
}

func (b *rollingBuffer) trim() {
	if b.cap <= 0 {
		b.samples = nil
		return
	}
	if excess := len(b.samples) - b.cap; excess > 0 {
		b.samples = append(b.samples[:0:0], b.samples[excess:]...)
	}
}

func (b *rollingBuffer) snapshot() []model.TelemetrySample {
	out := make([]model.TelemetrySample, len(b.samples))
	copy(out, b.samples)
	return out
}

// tail returns up to perCell most recent samples for each cell id,
// preserving the buffer's chronological order.
func (b *rollingBuffer) tail(perCell int) []model.TelemetrySample {
	counts := make(map[string]int)
	keep := make([]bool, len(b.samples))
	for i := len(b.samples) - 1; i >= 0; i-- {
		id := b.samples[i].CellID
		if counts[id] < perCell {
			counts[id]++
			keep[i] = true
		}
	}
	out := make([]model.TelemetrySample, 0, len(b.samples))
	for i, sample := range b.samples {
		if keep[i] {
			out = append(out, sample)
		}
	}
	return out
}

// latest returns the most recent sample per cell id.
func (b *rollingBuffer) latest() map[string]model.TelemetrySample {
	out := make(map[string]model.TelemetrySample)
	for _, sample := range b.samples {
		out[sample.CellID] = sample
	}
	return out
}
