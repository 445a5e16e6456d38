package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

// GetSamples returns stored samples in a time window, oldest first. A nil
// cellID matches every cell. A fully open window defaults to the last two
// days; a half-open one is completed without narrowing the side the caller
// set.
func (db *Database) GetSamples(ctx context.Context, cellID *string, from, to *time.Time) ([]model.TelemetrySample, error) {
	if from == nil && to == nil {
		f := time.Now().AddDate(0, 0, -2)
		from = &f
	}
	if from == nil {
		f := time.Unix(0, 0)
		from = &f
	}
	if to == nil {
		t := time.Now()
		to = &t
	}

	const query = `
	SELECT time_stamp, cell_id, chemistry, voltage, current, temperature, capacity
	FROM TelemetrySample
	WHERE ($1::text IS NULL OR cell_id = $1) AND time_stamp BETWEEN $2 AND $3
	ORDER BY time_stamp ASC;
	`

	rows, err := db.conn.Query(ctx, query, cellID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetLatestSamples returns the most recent stored sample per cell.
func (db *Database) GetLatestSamples(ctx context.Context) ([]model.TelemetrySample, error) {
	const query = `
	SELECT DISTINCT ON (cell_id) time_stamp, cell_id, chemistry, voltage, current, temperature, capacity
	FROM TelemetrySample
	ORDER BY cell_id, time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]model.TelemetrySample, error) {
	var samples []model.TelemetrySample
	for rows.Next() {
		var (
			s         model.TelemetrySample
			chemistry string
		)
		if err := rows.Scan(&s.Timestamp, &s.CellID, &chemistry, &s.Voltage, &s.Current, &s.Temperature, &s.Capacity); err != nil {
			return nil, err
		}
		s.Chemistry = model.Chemistry(chemistry)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return samples, nil
		}
		return nil, err
	}

	return samples, nil
}
