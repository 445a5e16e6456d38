// Package simulator drives the bench: one tick synthesizes a sample per
// configured cell, derives warnings, charge and safety score, appends the
// samples to the session buffer and hands the report to the publishers.
package simulator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/cellbench/internal/pkg/cell"
	"github.com/anicoll/cellbench/internal/pkg/model"
	"github.com/anicoll/cellbench/internal/pkg/session"
	"github.com/anicoll/cellbench/internal/pkg/synth"
)

type publisher interface {
	Publish(ctx context.Context, report model.TickReport) error
}

type Service struct {
	session     *session.Session
	synthesizer *synth.Synthesizer
	publisher   publisher
	interval    time.Duration
	errChan     chan error
	logger      *zap.Logger
	now         func() time.Time
}

func New(sess *session.Session, synthesizer *synth.Synthesizer, pub publisher, interval time.Duration, errChan chan error) *Service {
	return &Service{
		session:     sess,
		synthesizer: synthesizer,
		publisher:   pub,
		interval:    interval,
		errChan:     errChan,
		logger:      zap.L(),
		now:         time.Now,
	}
}

func (s *Service) sendIfErr(err error) {
	if err != nil {
		s.errChan <- err
	}
}

// Run ticks at the configured cadence until the context ends. Each tick
// runs to completion: there is no cancellation point inside a tick, so a
// reader never sees a partially applied one.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulator stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			report := s.Tick()
			if len(report.Cells) == 0 {
				continue
			}
			s.sendIfErr(s.publisher.Publish(ctx, report))
		}
	}
}

// Tick performs one synthesis-and-evaluation cycle over all configured
// cells and appends the result to the rolling buffer.
func (s *Service) Tick() model.TickReport {
	mode := s.session.Mode()
	cells := s.session.Cells()

	report := model.TickReport{
		Mode:      mode,
		Timestamp: s.now(),
		Cells:     make([]model.CellStatus, 0, len(cells)),
	}
	if len(cells) == 0 {
		return report
	}

	samples := make([]model.TelemetrySample, 0, len(cells))
	for _, cfg := range cells {
		sample := s.synthesizer.Sample(cfg, mode)
		warnings := cell.EvaluateSample(sample)
		pct := cell.EstimateCharge(sample.Voltage, sample.Chemistry)

		samples = append(samples, sample)
		report.Cells = append(report.Cells, model.CellStatus{
			Sample:      sample,
			ChargePct:   pct,
			ChargeLevel: cell.ChargeLevel(pct),
			SafetyScore: cell.SafetyScore(len(warnings)),
			Warnings:    warnings,
		})
	}

	s.session.Append(samples)
	return report
}
