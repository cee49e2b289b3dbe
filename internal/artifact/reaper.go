package artifact

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Reaper periodically sweeps the store and deletes artifacts older than
// maxAge. It talks to the store only through its public operations, so it can
// be exercised against any root directory.
type Reaper struct {
	store     *Store
	interval  time.Duration
	maxAge    time.Duration
	log       *slog.Logger
	reclaimed metric.Int64Counter
}

func NewReaper(store *Store, interval, maxAge time.Duration, log *slog.Logger) *Reaper {
	meter := otel.Meter("loqa-speech/artifact")
	reclaimed, err := meter.Int64Counter("speech.artifacts.reclaimed")
	if err != nil {
		log.Warn("failed to create reclaimed counter", slog.String("error", err.Error()))
	}
	return &Reaper{
		store:     store,
		interval:  interval,
		maxAge:    maxAge,
		log:       log.With(slog.String("component", "artifact-reaper")),
		reclaimed: reclaimed,
	}
}

// Run performs one synchronous sweep, then loops on the configured interval
// until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopping")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	removed, err := r.store.Sweep(ctx, r.maxAge)
	if err != nil {
		r.log.Warn("artifact sweep failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		if r.reclaimed != nil {
			r.reclaimed.Add(ctx, int64(removed))
		}
		r.log.Info("reclaimed expired artifacts", slog.Int("removed", removed))
	}
}
