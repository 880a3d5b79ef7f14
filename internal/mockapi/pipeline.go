package mockapi

import (
	"context"
	"log/slog"
	"time"
)

// Pipeline drives queued jobs through the generation stages on a ticker,
// standing in for the real backend workers.
type Pipeline struct {
	store         *JobStore
	logger        *slog.Logger
	tick          time.Duration
	stageDuration time.Duration
}

// PipelineOption configures the Pipeline.
type PipelineOption func(*Pipeline)

// WithStageDuration sets how long a job sits in each stage.
func WithStageDuration(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageDuration = d
		}
	}
}

// WithTick sets how often the pipeline looks for jobs to advance.
func WithTick(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.tick = d
		}
	}
}

// NewPipeline constructs a Pipeline over store.
func NewPipeline(store *JobStore, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:         store,
		logger:        logger,
		tick:          time.Second,
		stageDuration: 8 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run advances jobs until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	p.logger.Info("pipeline started", "tick", p.tick.String(), "stage_duration", p.stageDuration.String())

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped")
			return
		case now := <-ticker.C:
			p.store.Advance(now.UTC(), p.stageDuration)
		}
	}
}
