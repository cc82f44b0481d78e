// Package autosync decides when the client pushes its change queue: once
// at launch, on explicit request, on a fixed interval and whenever the
// server becomes reachable again. Every trigger goes through TrySync, so a
// trigger that fires while a pass is running is dropped.
package autosync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/services"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Syncer interface {
	TrySync(ctx context.Context) (services.SyncReport, error)
}

type Bootstrapper interface {
	NeedsBootstrap(ctx context.Context, userID string) (bool, error)
	BootstrapWithRetry(ctx context.Context, userID string, attempts int) error
}

type Media interface {
	UploadPending(ctx context.Context) (int, error)
	FetchMissing(ctx context.Context) (int, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	UserID              string
	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration
	PingTimeout         time.Duration
	BootstrapAttempts   int
}

type Runner struct {
	opts      Options
	sync      Syncer
	bootstrap Bootstrapper
	media     Media
	pinger    Pinger
	logger    logging.Logger

	online  atomic.Bool
	trigger chan struct{}
	// one media transfer at a time; triggers overlapping it skip media
	mediaSlot *semaphore.Weighted
}

func New(opts Options, s Syncer, b Bootstrapper, m Media, p Pinger, logger logging.Logger) *Runner {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}
	return &Runner{
		opts:      opts,
		sync:      s,
		bootstrap: b,
		media:     m,
		pinger:    p,
		logger:    logger.With("module", "autosync"),
		trigger:   make(chan struct{}, 1),
		mediaSlot: semaphore.NewWeighted(1),
	}
}

func (r *Runner) Mode() Mode {
	if r.online.Load() {
		return ModeOnline
	}
	return ModeOffline
}

// Trigger requests a pass from the foreground. It never blocks; requests
// made while one is already pending collapse into it.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run performs the launch sequence and then serves triggers until ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.launch(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-r.trigger:
				r.pass(ctx, "foreground")
			}
		}
	})

	if r.opts.OnlineCheckInterval > 0 {
		g.Go(func() error {
			r.watchOnline(ctx)
			return nil
		})
	}

	if r.opts.SyncInterval > 0 {
		g.Go(func() error {
			return r.schedule(ctx)
		})
	}

	return g.Wait()
}

func (r *Runner) launch(ctx context.Context) {
	r.checkOnline(ctx)

	if r.bootstrap != nil && r.opts.UserID != "" {
		need, err := r.bootstrap.NeedsBootstrap(ctx, r.opts.UserID)
		if err != nil {
			r.logger.Error(ctx, "bootstrap check failed", "error", err)
		} else if need {
			if err := r.bootstrap.BootstrapWithRetry(ctx, r.opts.UserID, r.opts.BootstrapAttempts); err != nil {
				r.logger.Error(ctx, "bootstrap failed", "error", err)
			}
		}
	}

	r.pass(ctx, "launch")
}

func (r *Runner) schedule(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(r.opts.SyncInterval),
		gocron.NewTask(func() {
			if !r.online.Load() {
				r.logger.Debug(ctx, "periodic sync skipped while offline")
				return
			}
			r.pass(ctx, "periodic")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.Start()
	<-ctx.Done()
	return s.Shutdown()
}

func (r *Runner) watchOnline(ctx context.Context) {
	ticker := time.NewTicker(r.opts.OnlineCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if r.checkOnline(ctx) {
				r.pass(ctx, "reconnect")
			}
		case <-ctx.Done():
			return
		}
	}
}

// checkOnline pings the server and records the result. It reports whether
// the client just went from offline to online.
func (r *Runner) checkOnline(ctx context.Context) bool {
	if r.pinger == nil {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, r.opts.PingTimeout)
	err := r.pinger.Ping(pctx)
	cancel()

	now := err == nil
	was := r.online.Swap(now)
	if was != now {
		r.logger.Info(ctx, "switched mode", "mode", r.Mode())
	}
	return now && !was
}

// pass runs one sync pass followed by media transfer. Failures are logged
// and never stop the runner.
func (r *Runner) pass(ctx context.Context, reason string) {
	ctx = logging.ContextWith(ctx, "trigger", reason)
	report, err := r.sync.TrySync(ctx)
	switch {
	case errors.Is(err, services.ErrSyncInProgress):
		r.logger.Debug(ctx, "sync trigger dropped")
		return
	case err != nil:
		if ctx.Err() == nil {
			r.logger.Error(ctx, "sync pass failed", "error", err)
		}
		return
	}
	r.logger.Debug(ctx, "sync pass done",
		"synced", report.Synced, "failed", report.Failed, "remaining", report.Remaining)

	if r.media == nil || !r.online.Load() {
		return
	}
	if !r.mediaSlot.TryAcquire(1) {
		r.logger.Debug(ctx, "media transfer dropped")
		return
	}
	defer r.mediaSlot.Release(1)

	if _, err := r.media.UploadPending(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn(ctx, "photo upload pass failed", "error", err)
	}
	if _, err := r.media.FetchMissing(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn(ctx, "photo fetch pass failed", "error", err)
	}
}
