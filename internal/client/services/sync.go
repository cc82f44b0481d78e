package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/client"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"golang.org/x/sync/semaphore"
)

// ErrSyncInProgress is returned by TrySync when another pass holds the
// slot.
var ErrSyncInProgress = errors.New("sync already in progress")

// SyncReport summarizes one pass over the change queue.
type SyncReport struct {
	// Attempted is the size of the snapshot taken at the start of the
	// pass.
	Attempted int
	Synced    int
	Failed    int
	// Remaining is the queue length after the pass, including entries
	// enqueued while it ran.
	Remaining int
}

// SyncService replays the change queue against the remote store. At most
// one pass runs at a time.
type SyncService struct {
	store  DBProvider
	remote client.Client
	logger logging.Logger
	repos  repomanager.Manager
	now    func() time.Time

	slot *semaphore.Weighted
}

func NewSyncService(store DBProvider, remote client.Client, logger logging.Logger) *SyncService {
	return &SyncService{
		store:  store,
		remote: remote,
		logger: logger.With("module", "sync"),
		now:    time.Now,
		slot:   semaphore.NewWeighted(1),
	}
}

// Sync runs one pass, waiting for a pass already in flight to finish.
func (s *SyncService) Sync(ctx context.Context) (SyncReport, error) {
	if err := s.slot.Acquire(ctx, 1); err != nil {
		return SyncReport{}, err
	}
	defer s.slot.Release(1)
	return s.pass(ctx)
}

// TrySync runs one pass unless one is already in flight, in which case it
// returns ErrSyncInProgress immediately.
func (s *SyncService) TrySync(ctx context.Context) (SyncReport, error) {
	if !s.slot.TryAcquire(1) {
		return SyncReport{}, ErrSyncInProgress
	}
	defer s.slot.Release(1)
	return s.pass(ctx)
}

// pass pushes a snapshot of the queue oldest first. Each entry is
// independent: a remote failure is logged, the entry stays queued and the
// pass moves on. An entry leaves the queue only after its remote call
// succeeded.
func (s *SyncService) pass(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	db, err := s.store.DB()
	if err != nil {
		return report, fmt.Errorf("local store: %w", err)
	}
	q := s.repos.Queue(db)

	pending, err := q.ListPending(ctx)
	if err != nil {
		return report, err
	}
	report.Attempted = len(pending)

	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, err := c.Record()
		if err != nil {
			s.logger.Error(ctx, "malformed queue entry", "entry", c.ID, "table", c.Table, "op", c.Op, "error", err)
			return report, fmt.Errorf("sync: %w", err)
		}

		if err := s.push(ctx, c.Op, rec); err != nil {
			report.Failed++
			s.logger.Warn(ctx, "change not synced", "entry", c.ID, "table", c.Table, "op", c.Op, "id", rec.Rev().ID, "error", err)
			continue
		}

		if err := q.Clear(ctx, c.ID); err != nil {
			// delivered but still queued: the next pass re-sends it
			return report, fmt.Errorf("clear entry %d: %w", c.ID, err)
		}
		report.Synced++
		s.logger.Debug(ctx, "change synced", "entry", c.ID, "table", c.Table, "op", c.Op, "id", rec.Rev().ID)
	}

	if report.Remaining, err = q.Count(ctx); err != nil {
		return report, err
	}

	if err := metadata.PutTime(ctx, s.repos.Metadata(db), metadata.KeyLastSyncAt, s.now()); err != nil {
		return report, err
	}

	if report.Attempted > 0 {
		s.logger.Info(ctx, "sync pass finished",
			"attempted", report.Attempted, "synced", report.Synced,
			"failed", report.Failed, "remaining", report.Remaining)
	}
	return report, nil
}

func (s *SyncService) push(ctx context.Context, op models.Op, rec models.Record) error {
	switch op {
	case models.OpInsert:
		return s.remote.Insert(ctx, rec)
	case models.OpUpdate:
		return s.remote.Update(ctx, rec)
	case models.OpDelete:
		return s.remote.Delete(ctx, rec.Table(), rec.Rev().ID)
	}
	return fmt.Errorf("%w: unknown op %q", models.ErrMalformedChange, string(op))
}

// Pending returns the number of queued changes.
func (s *SyncService) Pending(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}
	return s.repos.Queue(db).Count(ctx)
}

// LastSyncAt returns when the last pass finished, or the zero time.
func (s *SyncService) LastSyncAt(ctx context.Context) (time.Time, error) {
	db, err := s.store.DB()
	if err != nil {
		return time.Time{}, err
	}
	return metadata.GetTime(ctx, s.repos.Metadata(db), metadata.KeyLastSyncAt)
}
