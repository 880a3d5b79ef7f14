// Package jobs reconciles the client's view of long-running generation jobs
// with the backend pipeline. Watches poll on a cadence derived from the
// observed job state; mutations invalidate the cache partitions they affect.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"contentpilot/internal/api"
)

// Backend is the slice of the API client the engine drives.
// *api.Client satisfies it.
type Backend interface {
	ListJobs(ctx context.Context, p api.ListJobsParams) (api.JobList, error)
	GetJob(ctx context.Context, id string) (api.Job, error)
	CreateJob(ctx context.Context, p api.CreateJobParams) (api.Job, error)
	UpdateJob(ctx context.Context, id string, update api.JobUpdate) (api.Job, error)
}

// Result is what a watch delivers to its observer on every cycle.
type Result[T any] struct {
	Data      T
	IsLoading bool
	IsError   bool
	Err       error
}

const defaultPollInterval = 5 * time.Second

// Engine owns the cache and the polling schedule for job data.
type Engine struct {
	backend   Backend
	tokens    api.TokenSource
	cache     *Cache
	scheduler Scheduler
	logger    *slog.Logger
	interval  time.Duration
}

// Option configures the Engine during construction.
type Option func(*Engine)

// WithPollInterval overrides the refetch interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithScheduler overrides the timer scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// NewEngine constructs an Engine. tokens gates every watch: while it reports
// no credential, no request is issued.
func NewEngine(backend Backend, tokens api.TokenSource, logger *slog.Logger, opts ...Option) *Engine {
	if tokens == nil {
		tokens = func() (string, bool) { return "", false }
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		backend:   backend,
		tokens:    tokens,
		cache:     NewCache(),
		scheduler: NewTimerScheduler(),
		logger:    logger,
		interval:  defaultPollInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WatchList observes one page of the job collection, refetching on a fixed
// interval regardless of entry states: any visible entry may be
// mid-pipeline. fn receives a Result on every cycle, including failed ones,
// where prior data stays in place. The returned stop function releases the
// key; at most one observer per key is supported.
func (e *Engine) WatchList(ctx context.Context, p api.ListJobsParams, fn func(Result[api.JobList])) (stop func()) {
	p = p.WithDefaults()
	key := listKeyFor(p)
	skey := key.String()

	var stopped atomic.Bool

	var run func()
	run = func() {
		if stopped.Load() || ctx.Err() != nil {
			return
		}

		tok, ok := e.tokens()
		if !ok || tok == "" {
			// Disabled without a credential; check again next interval so a
			// later login re-enables the watch.
			e.scheduler.Schedule(skey, e.interval, run)
			return
		}

		list, err := e.backend.ListJobs(ctx, p)
		if stopped.Load() {
			return
		}
		if err != nil {
			e.logger.Warn("job list poll failed", "key", skey, "error", err)
			prior, _ := e.cache.GetList(key)
			fn(Result[api.JobList]{Data: prior, IsError: true, Err: err})
			e.scheduler.Schedule(skey, e.interval, run)
			return
		}

		e.cache.SetList(key, list)
		fn(Result[api.JobList]{Data: list})
		e.scheduler.Schedule(skey, e.interval, run)
	}

	if cached, ok := e.cache.GetList(key); ok {
		fn(Result[api.JobList]{Data: cached})
	} else {
		fn(Result[api.JobList]{IsLoading: true})
	}
	e.scheduler.Schedule(skey, 0, run)

	return func() {
		stopped.Store(true)
		e.scheduler.Cancel(skey)
	}
}

// WatchJob observes a single job. The refetch cadence is state-dependent:
// while the freshly returned status is in progress another poll is
// scheduled, and a terminal status ends polling entirely. The decision is
// re-evaluated after every successful fetch; the whole point of polling is
// to observe exactly that transition.
func (e *Engine) WatchJob(ctx context.Context, id string, fn func(Result[api.Job])) (stop func()) {
	if id == "" {
		return func() {}
	}
	skey := "jobs:item:" + id

	var stopped atomic.Bool

	var run func()
	run = func() {
		if stopped.Load() || ctx.Err() != nil {
			return
		}

		tok, ok := e.tokens()
		if !ok || tok == "" {
			e.scheduler.Schedule(skey, e.interval, run)
			return
		}

		job, err := e.backend.GetJob(ctx, id)
		if stopped.Load() {
			return
		}
		if err != nil {
			// One failed attempt never ends the loop; prior data stands and
			// the next scheduled attempt proceeds unchanged.
			e.logger.Warn("job poll failed", "job_id", id, "error", err)
			prior, _ := e.cache.GetJob(id)
			fn(Result[api.Job]{Data: prior, IsError: true, Err: err})
			e.scheduler.Schedule(skey, e.interval, run)
			return
		}

		effective := job
		if !e.cache.SetJob(job) {
			// A fresher version, typically a mutation response, already
			// landed; the stale poll result is discarded.
			if cached, ok := e.cache.GetJob(id); ok {
				effective = cached
			}
		}
		fn(Result[api.Job]{Data: effective})

		if effective.Status.InProgress() {
			e.scheduler.Schedule(skey, e.interval, run)
		}
	}

	if cached, ok := e.cache.GetJob(id); ok {
		fn(Result[api.Job]{Data: cached})
	} else {
		fn(Result[api.Job]{IsLoading: true})
	}
	e.scheduler.Schedule(skey, 0, run)

	return func() {
		stopped.Store(true)
		e.scheduler.Cancel(skey)
	}
}

// CreateJob posts a new job and invalidates the list partitions so the next
// list read includes it. No optimistic placeholder is inserted. The prompt
// is assumed to have passed caller-side validation.
func (e *Engine) CreateJob(ctx context.Context, p api.CreateJobParams) (api.Job, error) {
	job, err := e.backend.CreateJob(ctx, p)
	if err != nil {
		return api.Job{}, err
	}
	e.cache.InvalidateLists()
	return job, nil
}

// UpdateJob patches a job's editable fields. The mutation response is
// applied as authoritative for the fields it touched; list partitions are
// invalidated so no consumer keeps serving pre-mutation data.
func (e *Engine) UpdateJob(ctx context.Context, id string, update api.JobUpdate) (api.Job, error) {
	job, err := e.backend.UpdateJob(ctx, id, update)
	if err != nil {
		return api.Job{}, err
	}
	e.cache.SetJob(job)
	e.cache.InvalidateLists()
	return job, nil
}

// Refresh invalidates every list partition, forcing the next reads to hit
// the backend.
func (e *Engine) Refresh() {
	e.cache.InvalidateLists()
}

// Close stops every scheduled poll.
func (e *Engine) Close() {
	e.scheduler.CancelAll()
}
