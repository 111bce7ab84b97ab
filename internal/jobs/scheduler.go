package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

// rejectedRetentionDays is how long rejected photos stay recoverable before
// their objects are swept.
const rejectedRetentionDays = 30

// Scheduler runs the background maintenance cadence: hourly counter
// reconciliation, daily session purge, daily sweep of long-rejected photos.
type Scheduler struct {
	cron     *cron.Cron
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	photos   *repository.PhotoRepository
	store    storage.Store
	log      zerolog.Logger
}

func NewScheduler(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	photos *repository.PhotoRepository,
	store storage.Store,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		users:    users,
		sessions: sessions,
		photos:   photos,
		store:    store,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.recomputeStats); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.sweepRejected); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Msg("job scheduler started")
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("job scheduler stopped")
}

// recomputeStats re-derives denormalized user counters from the photo table.
// The transactional paths keep them current; this heals any drift.
func (s *Scheduler) recomputeStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.users.RecomputeStats(ctx); err != nil {
		s.log.Error().Err(err).Msg("recompute user stats failed")
		return
	}
	s.log.Debug().Msg("user stats recomputed")
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired sessions removed")
	}
}

// sweepRejected deletes photos rejected longer than the retention window,
// objects first, rows after. A photo whose objects fail to delete is kept
// for the next sweep.
func (s *Scheduler) sweepRejected() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	stale, err := s.photos.StaleRejectedKeys(ctx, rejectedRetentionDays)
	if err != nil {
		s.log.Error().Err(err).Msg("list stale rejected photos failed")
		return
	}
	if len(stale) == 0 {
		return
	}

	deletable := make([]string, 0, len(stale))
	for photoID, keys := range stale {
		failed := false
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := s.store.Delete(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("sweep object delete failed")
				failed = true
			}
		}
		if !failed {
			deletable = append(deletable, photoID)
		}
	}

	if err := s.photos.DeleteByIDs(ctx, deletable); err != nil {
		s.log.Error().Err(err).Msg("delete swept photo rows failed")
		return
	}
	s.log.Info().Int("photos", len(deletable)).Msg("stale rejected photos swept")
}
