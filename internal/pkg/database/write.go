package database

import (
	"context"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

// WriteSamples stores one tick's worth of samples in a single transaction,
// so a tick is either fully persisted or not at all.
func (db *Database) WriteSamples(ctx context.Context, samples []model.TelemetrySample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range samples {
		if _, err := tx.Exec(ctx, `
			INSERT INTO TelemetrySample (time_stamp, cell_id, chemistry, voltage, current, temperature, capacity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.Timestamp, s.CellID, s.Chemistry.String(), s.Voltage, s.Current, s.Temperature, s.Capacity); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Publish lets the store act as a tick report sink.
func (db *Database) Publish(ctx context.Context, report model.TickReport) error {
	samples := make([]model.TelemetrySample, 0, len(report.Cells))
	for _, c := range report.Cells {
		samples = append(samples, c.Sample)
	}
	return db.WriteSamples(ctx, samples)
}
