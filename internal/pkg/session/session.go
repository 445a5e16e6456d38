// Package session holds the mutable state of one bench run: the cell
// configuration map, the operating mode, bench metadata, control
// parameters and the rolling telemetry buffer. All access goes through a
// single Session value handed to collaborators; there is no package-level
// state. A mutex keeps tick appends atomic with respect to readers even
// though the tick loop is the only writer of telemetry.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

type Session struct {
	mu        sync.RWMutex
	cells     map[string]model.CellConfig
	order     []string
	mode      model.OperatingMode
	bench     model.BenchInfo
	params    model.ControlParams
	buffer    rollingBuffer
	startedAt time.Time
	now       func() time.Time
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func New(opts ...Option) *Session {
	s := &Session{
		cells:  make(map[string]model.CellConfig),
		mode:   model.ModeIdle,
		params: model.DefaultControlParams(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReplaceCells validates and installs a full new cell configuration. The
// previous mapping is discarded wholesale, never merged; the rolling buffer
// cap follows the new cell count.
func (s *Session) ReplaceCells(cells []model.CellConfig) error {
	byID := make(map[string]model.CellConfig, len(cells))
	order := make([]string, 0, len(cells))
	for _, c := range cells {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("duplicate cell id: %s", c.ID)
		}
		byID[c.ID] = c
		order = append(order, c.ID)
	}
	sort.Strings(order)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = byID
	s.order = order
	s.buffer.setCap(len(order))
	return nil
}

// Cells returns the configuration in stable id order so each tick walks
// the bench deterministically.
func (s *Session) Cells() []model.CellConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CellConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cells[id])
	}
	return out
}

func (s *Session) CellCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// SetMode switches the operating mode. Any mode is reachable from any
// other; entering an active mode restarts the runtime clock. Transition
// guards (e.g. forcing Charging->Idle->Discharging) would slot in here.
func (s *Session) SetMode(mode model.OperatingMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	if mode.Active() {
		s.startedAt = s.now()
	}
}

func (s *Session) Mode() model.OperatingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Runtime is the elapsed time since the bench last entered an active mode,
// zero while idle or paused.
func (s *Session) Runtime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.mode.Active() || s.startedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.startedAt)
}

func (s *Session) SetBench(info model.BenchInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bench = info
}

func (s *Session) Bench() model.BenchInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bench
}

// SetParams stores the control panel values. They are deliberately inert:
// nothing enforces the timeout or the cutoffs against the mode or the data.
func (s *Session) SetParams(params model.ControlParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
}

func (s *Session) Params() model.ControlParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Append adds one tick's worth of samples and evicts the oldest entries
// beyond the buffer cap in the same critical section, so a reader never
// observes a partially applied tick.
func (s *Session) Append(samples []model.TelemetrySample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.append(samples)
}

func (s *Session) Samples() []model.TelemetrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.snapshot()
}

func (s *Session) SamplesTail(perCell int) []model.TelemetrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.tail(perCell)
}

func (s *Session) LatestSamples() map[string]model.TelemetrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.latest()
}
