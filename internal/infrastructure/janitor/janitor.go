package janitor

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/infrastructure/redisstore"
)

// Janitor periodically re-enforces the retention bounds. The store's upsert
// and trim are separate operations, so a crash between them can leave extra
// entries behind; the sweep restores the bound without waiting for the next
// write.
type Janitor struct {
	store    *redisstore.Store
	schedule string
	timeout  time.Duration
	logger   zerolog.Logger
	ctab     *crontab.Crontab
}

// New creates a retention janitor.
func New(store *redisstore.Store, schedule string, timeout time.Duration, logger zerolog.Logger) *Janitor {
	return &Janitor{
		store:    store,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the sweep job. Returns an error for a bad schedule.
func (j *Janitor) Start() error {
	j.ctab = crontab.New()
	if err := j.ctab.AddJob(j.schedule, j.sweep); err != nil {
		return err
	}
	j.logger.Info().Str("schedule", j.schedule).Msg("retention janitor started")
	return nil
}

// Stop cancels the scheduled sweeps.
func (j *Janitor) Stop() {
	if j.ctab != nil {
		j.ctab.Shutdown()
	}
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.store.TrimSessions(ctx); err != nil {
		j.logger.Warn().Err(err).Msg("retention sweep: session trim failed")
	}
	if err := j.store.TrimPrompts(ctx); err != nil {
		j.logger.Warn().Err(err).Msg("retention sweep: prompt trim failed")
	}
}
