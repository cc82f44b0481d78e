package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/client"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrBootstrapExhausted is returned by BootstrapWithRetry when every
// attempt failed. The local mirror is left as it was.
var ErrBootstrapExhausted = errors.New("could not download data from the server, try again later")

// Resetter is the part of the local store that can recreate the database
// file. *store.Store implements it.
type Resetter interface {
	DBProvider
	Reset(ctx context.Context) error
}

// BootstrapService seeds and resets the local mirror.
type BootstrapService struct {
	store  Resetter
	remote client.Client
	logger logging.Logger
	repos  repomanager.Manager
	now    func() time.Time

	// backoff before retry n (1-based); replaced in tests.
	backoff func(n int) time.Duration
}

func NewBootstrapService(store Resetter, remote client.Client, logger logging.Logger) *BootstrapService {
	return &BootstrapService{
		store:   store,
		remote:  remote,
		logger:  logger.With("module", "bootstrap"),
		now:     time.Now,
		backoff: jitteredBackoff(500*time.Millisecond, 30*time.Second),
	}
}

// snapshot is everything the remote holds for one user.
type snapshot map[models.Table][]models.Record

// Bootstrap replaces the local mirror with the remote data of userID.
// All fetches complete before anything local is touched; the replacement
// runs in one transaction, so a failure at any point leaves the previous
// mirror in place.
func (s *BootstrapService) Bootstrap(ctx context.Context, userID string) error {
	if err := required("user id", userID); err != nil {
		return err
	}

	snap, err := s.fetch(ctx, userID)
	if err != nil {
		return fmt.Errorf("bootstrap fetch: %w", err)
	}

	db, err := s.store.DB()
	if err != nil {
		return fmt.Errorf("local store: %w", err)
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.WipeMirror(ctx, tx); err != nil {
			return err
		}
		for _, t := range models.Tables {
			for _, rec := range snap[t] {
				if err := s.repos.Put(ctx, tx, rec); err != nil {
					return err
				}
			}
		}
		return s.repos.Metadata(tx).Put(ctx, map[metadata.Key]string{
			metadata.KeyBootstrapUserID: userID,
			metadata.KeyBootstrappedAt:  models.FormatTime(s.now()),
		})
	})
	if err != nil {
		return fmt.Errorf("bootstrap apply: %w", err)
	}

	s.logger.Info(ctx, "local mirror bootstrapped", "user", userID,
		"customers", len(snap[models.TableCustomers]),
		"estimates", len(snap[models.TableEstimates]),
		"items", len(snap[models.TableEstimateItems]),
		"photos", len(snap[models.TablePhotos]),
		"catalog", len(snap[models.TableCatalog]))
	return nil
}

// fetch reads the user's top-level tables in parallel, then the tables
// owned by the fetched estimates.
func (s *BootstrapService) fetch(ctx context.Context, userID string) (snapshot, error) {
	top := []models.Table{models.TableCustomers, models.TableEstimates, models.TableCatalog}
	results := make([][]models.Record, len(top))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range top {
		g.Go(func() error {
			recs, err := s.remote.SelectByUser(gctx, t, userID)
			if err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := snapshot{}
	for i, t := range top {
		snap[t] = results[i]
	}

	ids := make([]string, 0, len(snap[models.TableEstimates]))
	for _, e := range snap[models.TableEstimates] {
		ids = append(ids, e.Rev().ID)
	}
	if len(ids) == 0 {
		return snap, nil
	}

	owned := []models.Table{models.TableEstimateItems, models.TablePhotos}
	results = make([][]models.Record, len(owned))

	g, gctx = errgroup.WithContext(ctx)
	for i, t := range owned {
		g.Go(func() error {
			recs, err := s.remote.SelectByEstimates(gctx, t, ids)
			if err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, t := range owned {
		snap[t] = results[i]
	}
	return snap, nil
}

// BootstrapWithRetry calls Bootstrap up to attempts times with jittered
// exponential backoff. After the last failure it returns an error matching
// ErrBootstrapExhausted and the last cause.
func (s *BootstrapService) BootstrapWithRetry(ctx context.Context, userID string, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for n := 1; n <= attempts; n++ {
		last = s.Bootstrap(ctx, userID)
		if last == nil {
			return nil
		}
		s.logger.Warn(ctx, "bootstrap attempt failed", "attempt", n, "of", attempts, "error", last)
		if n == attempts {
			break
		}

		t := time.NewTimer(s.backoff(n))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("%w: %w", ErrBootstrapExhausted, last)
}

// NeedsBootstrap reports whether the mirror has never been seeded for
// userID.
func (s *BootstrapService) NeedsBootstrap(ctx context.Context, userID string) (bool, error) {
	db, err := s.store.DB()
	if err != nil {
		return false, err
	}
	seeded, err := metadata.GetString(ctx, s.repos.Metadata(db), metadata.KeyBootstrapUserID)
	if err != nil {
		return false, err
	}
	return seeded != userID, nil
}

// ResetLocalDatabase deletes the database file and recreates an empty
// schema. Unsynced changes are lost.
func (s *BootstrapService) ResetLocalDatabase(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset local database: %w", err)
	}
	return nil
}

// ClearLocalData empties every local table, queue and metadata included,
// keeping the database file and schema.
func (s *BootstrapService) ClearLocalData(ctx context.Context) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.WipeMirror(ctx, tx); err != nil {
			return err
		}
		return s.repos.Metadata(tx).Reset(ctx)
	})
	if err != nil {
		return fmt.Errorf("clear local data: %w", err)
	}
	s.logger.Warn(ctx, "local data cleared")
	return nil
}

func jitteredBackoff(base, ceiling time.Duration) func(int) time.Duration {
	return func(n int) time.Duration {
		d := base << (n - 1)
		if d <= 0 || d > ceiling {
			d = ceiling
		}
		// full jitter over the upper half
		return d/2 + rand.N(d/2+1)
	}
}
