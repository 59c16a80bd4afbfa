package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetentionStore deletes terminal audit rows older than the cutoff.
type RetentionStore interface {
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Cleaner struct {
	store         RetentionStore
	retentionDays int
	log           zerolog.Logger
}

func NewCleaner(store RetentionStore, retentionDays int, log zerolog.Logger) *Cleaner {
	return &Cleaner{store: store, retentionDays: retentionDays, log: log}
}

// Clean removes success and failed execution rows older than the
// retention window. Running rows are never touched.
func (c *Cleaner) Clean(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -c.retentionDays)
	deleted, err := c.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete terminal executions: %w", err)
	}
	if deleted > 0 {
		c.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("execution retention cleanup")
	}
	return deleted, nil
}
