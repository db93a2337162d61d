// Package collector gathers raw incident signals from cluster and metric backends into the
// batch shape the normalizer consumes.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/incident-rca/internal/models"
)

// Query scopes a collection run.
type Query struct {
	Namespace string
	// At is the reference instant; zero means now.
	At time.Time
}

// Source produces a partial batch for a query.
type Source interface {
	Name() string
	Collect(ctx context.Context, q Query) (models.SignalBatch, error)
}

// Collector fans a query out to every source concurrently and merges the results in source
// order.
type Collector struct {
	logger  *slog.Logger
	sources []Source
}

// New constructs a Collector over sources.
func New(logger *slog.Logger, sources ...Source) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger, sources: sources}
}

// Sources returns the names of the configured sources.
func (c *Collector) Sources() []string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return names
}

// Collect runs every source. The first source error cancels the rest and is returned.
func (c *Collector) Collect(ctx context.Context, q Query) (models.SignalBatch, error) {
	if len(c.sources) == 0 {
		return models.SignalBatch{}, fmt.Errorf("no signal sources configured")
	}
	if q.At.IsZero() {
		q.At = time.Now().UTC()
	}

	partials := make([]models.SignalBatch, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			start := time.Now()
			batch, err := src.Collect(gctx, q)
			if err != nil {
				return fmt.Errorf("collect from %s: %w", src.Name(), err)
			}
			partials[i] = batch
			c.logger.Debug("source collected",
				slog.String("source", src.Name()),
				slog.Int("signals", batch.Len()),
				slog.Duration("took", time.Since(start)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SignalBatch{}, err
	}

	var merged models.SignalBatch
	for _, p := range partials {
		merged.Events = append(merged.Events, p.Events...)
		merged.Restarts = append(merged.Restarts, p.Restarts...)
		merged.Metrics = append(merged.Metrics, p.Metrics...)
	}
	return merged, nil
}
