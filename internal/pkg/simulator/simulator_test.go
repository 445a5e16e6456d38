package simulator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/cellbench/internal/pkg/model"
	"github.com/anicoll/cellbench/internal/pkg/session"
	"github.com/anicoll/cellbench/internal/pkg/synth"
)

type recordingPublisher struct {
	mu      sync.Mutex
	reports []model.TickReport
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, report model.TickReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reports)
}

func newBench(t *testing.T, cells ...string) *session.Session {
	t.Helper()
	sess := session.New()
	configs := make([]model.CellConfig, 0, len(cells))
	for _, id := range cells {
		configs = append(configs, model.CellConfig{
			ID: id, Chemistry: model.ChemistryLFP, Voltage: 3.2, Current: 2, Temperature: 25,
		})
	}
	require.NoError(t, sess.ReplaceCells(configs))
	return sess
}

func newService(sess *session.Session, pub publisher, errChan chan error) *Service {
	return New(sess, synth.New(synth.WithRand(rand.New(rand.NewSource(1)))), pub, 10*time.Millisecond, errChan)
}

func TestTick_OneSamplePerCell(t *testing.T) {
	t.Parallel()
	sess := newBench(t, "Cell_1", "Cell_2", "Cell_3")
	sess.SetMode(model.ModeCharging)
	svc := newService(sess, &recordingPublisher{}, make(chan error, 10))

	report := svc.Tick()
	require.Len(t, report.Cells, 3)
	assert.Equal(t, model.ModeCharging, report.Mode)
	assert.Equal(t, "Cell_1", report.Cells[0].Sample.CellID)
	assert.Equal(t, "Cell_2", report.Cells[1].Sample.CellID)
	assert.Equal(t, "Cell_3", report.Cells[2].Sample.CellID)

	// The tick landed in the rolling buffer.
	assert.Len(t, sess.Samples(), 3)
}

func TestTick_DerivedFieldsConsistent(t *testing.T) {
	t.Parallel()
	sess := newBench(t, "Cell_1")
	// A hot baseline guarantees an overheating warning while charging.
	require.NoError(t, sess.ReplaceCells([]model.CellConfig{{
		ID: "Cell_1", Chemistry: model.ChemistryLFP, Voltage: 3.2, Current: 2, Temperature: 44,
	}}))
	sess.SetMode(model.ModeCharging)
	svc := newService(sess, &recordingPublisher{}, make(chan error, 10))

	report := svc.Tick()
	require.Len(t, report.Cells, 1)
	status := report.Cells[0]

	assert.NotEmpty(t, status.Warnings)
	assert.Equal(t, 100-25*len(status.Warnings), status.SafetyScore)
	assert.GreaterOrEqual(t, status.ChargePct, 0.0)
	assert.LessOrEqual(t, status.ChargePct, 100.0)
	for _, w := range status.Warnings {
		assert.Equal(t, "Cell_1", w.CellID)
	}
}

func TestTick_EmptyBench(t *testing.T) {
	t.Parallel()
	svc := newService(session.New(), &recordingPublisher{}, make(chan error, 10))
	report := svc.Tick()
	assert.Empty(t, report.Cells)
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	t.Parallel()
	sess := newBench(t, "Cell_1")
	pub := &recordingPublisher{}
	svc := newService(sess, pub, make(chan error, 10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && pub.count() < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, pub.count(), 3)
}

func TestRun_ForwardsPublishErrors(t *testing.T) {
	t.Parallel()
	sess := newBench(t, "Cell_1")
	pub := &recordingPublisher{err: assert.AnError}
	errChan := make(chan error, 10)
	svc := newService(sess, pub, errChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = svc.Run(ctx)
	}()

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a publish error on the error channel")
	}
}
