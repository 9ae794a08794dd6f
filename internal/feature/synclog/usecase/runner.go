// Package usecase runs sync jobs with job logging, an optional per-job lease and
// reconciliation of abandoned runs.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stock_sync/internal/platform/lease"
)

// AbandonedMessage is written to runs that stayed "running" past the stale threshold.
const AbandonedMessage = "abandoned: exceeded execution ceiling"

// Outcome statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Job is one sync job. Run returns the number of records processed; an error means a
// fatal setup failure and marks the run failed.
type Job interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// Gated is implemented by jobs that only run at certain times. A skipped job touches
// neither the store nor the job log.
type Gated interface {
	SkipReason(now time.Time) (string, bool)
}

// SyncRunRepository abstracts the job log table.
type SyncRunRepository interface {
	Start(ctx context.Context, job string, at time.Time) (uint, error)
	Complete(ctx context.Context, id uint, records int, at time.Time) error
	Fail(ctx context.Context, id uint, message string, at time.Time) error
	ExpireStale(ctx context.Context, job string, startedBefore time.Time, message string, at time.Time) (int64, error)
}

// Lease abstracts the per-job mutual exclusion.
type Lease interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (string, error)
	Release(ctx context.Context, job, token string) error
}

// Outcome is the result reported to the trigger caller.
type Outcome struct {
	Status  string
	Records int
	Message string
}

// Runner executes jobs.
type Runner struct {
	runs       SyncRunRepository
	lease      Lease
	staleAfter time.Duration
	ceilings   map[string]time.Duration
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLease enables the per-job lease.
func WithLease(l Lease) Option {
	return func(r *Runner) { r.lease = l }
}

// WithStaleAfter enables reconciliation of runs left "running" for longer than d.
func WithStaleAfter(d time.Duration) Option {
	return func(r *Runner) { r.staleAfter = d }
}

// WithCeiling sets the execution ceiling (and lease TTL) of a job.
func WithCeiling(job string, d time.Duration) Option {
	return func(r *Runner) { r.ceilings[job] = d }
}

// defaultCeiling applies to jobs without an explicit ceiling.
const defaultCeiling = 5 * time.Minute

// NewRunner creates a Runner.
func NewRunner(runs SyncRunRepository, opts ...Option) *Runner {
	r := &Runner{
		runs:     runs,
		ceilings: make(map[string]time.Duration),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ceiling returns the execution ceiling of job.
func (r *Runner) Ceiling(job string) time.Duration {
	if d, ok := r.ceilings[job]; ok && d > 0 {
		return d
	}
	return defaultCeiling
}

// Run executes job. The returned error is non-nil only when the job itself failed;
// the Outcome then carries StatusFailed and the error text.
func (r *Runner) Run(ctx context.Context, job Job) (Outcome, error) {
	name := job.Name()

	if g, ok := job.(Gated); ok {
		if reason, skip := g.SkipReason(r.now()); skip {
			slog.Info("job skipped", "job", name, "reason", reason)
			return Outcome{Status: StatusSkipped, Message: reason}, nil
		}
	}

	ceiling := r.Ceiling(name)

	if r.lease != nil {
		token, err := r.lease.Acquire(ctx, name, ceiling)
		switch {
		case errors.Is(err, lease.ErrLeaseHeld):
			msg := fmt.Sprintf("%s is already running", name)
			slog.Info("job skipped", "job", name, "reason", msg)
			return Outcome{Status: StatusSkipped, Message: msg}, nil
		case err != nil:
			// Redis障害時はリースなしで続行する
			slog.Warn("lease unavailable, running without it", "job", name, "error", err)
		default:
			defer func() {
				if err := r.lease.Release(context.WithoutCancel(ctx), name, token); err != nil {
					slog.Warn("failed to release lease", "job", name, "error", err)
				}
			}()
		}
	}

	if r.staleAfter > 0 {
		now := r.now()
		n, err := r.runs.ExpireStale(ctx, name, now.Add(-r.staleAfter), AbandonedMessage, now)
		if err != nil {
			slog.Error("failed to expire stale runs", "job", name, "error", err)
		} else if n > 0 {
			slog.Warn("expired stale runs", "job", name, "count", n)
		}
	}

	runID, err := r.runs.Start(ctx, name, r.now())
	if err != nil {
		// ジョブログが書けなくても同期自体は実行する
		slog.Error("failed to log job start", "job", name, "error", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	started := r.now()
	records, runErr := job.Run(jobCtx)
	logCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		slog.Error("job failed", "job", name, "error", runErr, "elapsed", r.now().Sub(started))
		if runID != 0 {
			if err := r.runs.Fail(logCtx, runID, runErr.Error(), r.now()); err != nil {
				slog.Error("failed to log job failure", "job", name, "error", err)
			}
		}
		return Outcome{Status: StatusFailed, Records: records, Message: runErr.Error()}, runErr
	}

	slog.Info("job completed", "job", name, "records", records, "elapsed", r.now().Sub(started))
	if runID != 0 {
		if err := r.runs.Complete(logCtx, runID, records, r.now()); err != nil {
			slog.Error("failed to log job completion", "job", name, "error", err)
		}
	}
	return Outcome{Status: StatusOK, Records: records}, nil
}
