package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
)

// CleanTransformer implements Transformer with domain.Clean for one variant.
type CleanTransformer struct {
	variant domain.Variant
	logger  *slog.Logger
}

// NewTransformer creates a CleanTransformer for the given variant.
func NewTransformer(variant domain.Variant, logger *slog.Logger) *CleanTransformer {
	return &CleanTransformer{
		variant: variant,
		logger:  logger,
	}
}

func (t *CleanTransformer) Transform(ctx context.Context, tables domain.Tables) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	res, err := domain.Clean(tables, t.variant)
	if err != nil {
		return domain.Result{}, err
	}

	if res.Stats.Unmatched > 0 {
		t.logger.Info("dropped sites without a county uranium record", "rows", res.Stats.Unmatched)
	}
	if res.Stats.Duplicates > 0 {
		t.logger.Info("dropped repeated idnum rows", "rows", res.Stats.Duplicates)
	}
	if res.Stats.MissingCounty > 0 {
		t.logger.Info("dropped sites with an empty county", "rows", res.Stats.MissingCounty)
	}
	return res, nil
}
