// Package scheduler runs the periodic delta and enrichment passes on
// cron schedules. Overlap between a scheduled run and a manual trigger
// is resolved by the sync locks, not here.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/config"
	"footysync/ingestion/internal/sync"
)

// Scheduler manages the background sync cadence.
type Scheduler struct {
	cfg      *config.Config
	delta    *sync.Delta
	enricher *sync.Enricher
	cron     *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, delta *sync.Delta, enricher *sync.Enricher) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		delta:    delta,
		enricher: enricher,
		cron:     cron.New(),
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.DeltaSyncCron, func() {
		res, err := s.delta.Run(ctx, sync.DeltaRequest{})
		if err != nil {
			log.Error().Err(err).Msg("Scheduled delta sync failed")
			return
		}
		log.Info().Str("status", res.Status).Str("message", res.Message).Msg("Scheduled delta sync finished")
	}); err != nil {
		return fmt.Errorf("failed to schedule delta sync: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.EnrichmentCron, func() {
		res, err := s.enricher.Run(ctx, sync.EnrichRequest{})
		if err != nil {
			log.Error().Err(err).Msg("Scheduled enrichment failed")
			return
		}
		log.Info().Str("status", res.Status).Str("message", res.Message).Msg("Scheduled enrichment finished")
	}); err != nil {
		return fmt.Errorf("failed to schedule enrichment: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("delta_cron", s.cfg.DeltaSyncCron).
		Str("enrichment_cron", s.cfg.EnrichmentCron).
		Msg("Sync jobs scheduled")

	return nil
}

// Stop stops the scheduler, waiting for in-flight jobs.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Info().Msg("Scheduler stopped")
}
