package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
	"github.com/couchcryptid/radon-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Extractor reads both input tables.
type Extractor interface {
	Extract(ctx context.Context) (domain.Tables, error)
}

// Transformer turns the input tables into the cleaned table.
type Transformer interface {
	Transform(ctx context.Context, tables domain.Tables) (domain.Result, error)
}

// Loader writes the cleaned table to one destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, v domain.Variant, rows []domain.CleanRow) error
}

// Pipeline runs one extract-transform-load pass.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// New creates a Pipeline with the given stages and observability. Loaders run
// in the order given. A nil clock uses the real clock.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// Run extracts, transforms and loads once. Any error aborts the run; sinks
// after a failing sink are not written.
func (p *Pipeline) Run(ctx context.Context) (domain.Result, error) {
	start := p.clock.Now()

	res, err := p.run(ctx)
	if err != nil {
		p.metrics.RunFailures.Inc()
		return res, err
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccessTime.Set(float64(p.clock.Now().Unix()))

	p.logger.Info("run complete",
		"variant", res.Variant,
		"sites", res.Stats.Sites,
		"counties", res.Stats.Counties,
		"unmatched", res.Stats.Unmatched,
		"duplicates", res.Stats.Duplicates,
		"missing_county", res.Stats.MissingCounty,
		"emitted", res.Stats.Emitted,
		"duration", elapsed,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (domain.Result, error) {
	tables, err := p.extractor.Extract(ctx)
	if err != nil {
		return domain.Result{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.WithLabelValues("sites").Add(float64(len(tables.Sites)))
	p.metrics.RowsRead.WithLabelValues("counties").Add(float64(len(tables.Counties)))

	res, err := p.transformer.Transform(ctx, tables)
	if err != nil {
		return domain.Result{}, fmt.Errorf("transform: %w", err)
	}
	p.metrics.RowsDropped.WithLabelValues("unmatched").Add(float64(res.Stats.Unmatched))
	p.metrics.RowsDropped.WithLabelValues("duplicate").Add(float64(res.Stats.Duplicates))
	p.metrics.RowsDropped.WithLabelValues("missing_county").Add(float64(res.Stats.MissingCounty))

	for _, l := range p.loaders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := l.Load(ctx, res.Variant, res.Rows); err != nil {
			return res, fmt.Errorf("load %s: %w", l.Name(), err)
		}
		p.metrics.RowsLoaded.WithLabelValues(l.Name()).Add(float64(len(res.Rows)))
		p.logger.Debug("sink loaded", "sink", l.Name(), "rows", len(res.Rows))
	}
	return res, nil
}
