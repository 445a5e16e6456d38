package cmd

import (
	"context"
	"time"
)

// tickService is what run expects from the simulator.
type tickService interface {
	Run(ctx context.Context) error
}

// storeCleaner is the slice of the database used by the retention cron.
type storeCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) error
}
