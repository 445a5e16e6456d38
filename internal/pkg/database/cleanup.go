package database

import (
	"context"
	"time"
)

// Cleanup removes samples older than the retention window.
func (db *Database) Cleanup(ctx context.Context, retention time.Duration) error {
	if _, err := db.conn.Exec(ctx, "DELETE FROM TelemetrySample WHERE time_stamp < $1", time.Now().Add(-retention)); err != nil {
		return err
	}
	return nil
}
