package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/service"
)

// StatsRefreshWorker periodically recomputes the statistics aggregate into
// the cache so dashboard reads stay warm. It is purely a cache refresher and
// never a source of truth.
type StatsRefreshWorker struct {
	statsService *service.StatsService
	interval     time.Duration
}

// NewStatsRefreshWorker constructs a StatsRefreshWorker.
func NewStatsRefreshWorker(statsService *service.StatsService, interval time.Duration) *StatsRefreshWorker {
	return &StatsRefreshWorker{
		statsService: statsService,
		interval:     interval,
	}
}

// Start begins the periodic refresh loop and listens for context cancellation.
func (w *StatsRefreshWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting stats refresh worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Stats refresh worker stopped")
			return
		}
	}
}

func (w *StatsRefreshWorker) run(ctx context.Context) {
	start := time.Now()
	if _, err := w.statsService.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh stats")
		return
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Stats refresh completed")
}
