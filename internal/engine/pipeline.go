package engine

import (
	"cardash/internal/logger"
	"cardash/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Pipeline loads the source table, aggregates it and publishes the result.
//
// Runs are independent: starting a run never cancels or waits for another one,
// and each run publishes as soon as it finishes, so the run that completes
// last determines what the store serves.
type Pipeline struct {
	source Source
	opts   Options
	store  *Store
}

func NewPipeline(source Source, opts Options, store *Store) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard options: %w", err)
	}
	return &Pipeline{source: source, opts: opts, store: store}, nil
}

// Run performs one load.
func (p *Pipeline) Run(ctx context.Context) (*models.DashboardData, error) {
	loadID := uuid.NewString()
	t0 := time.Now()
	p.store.Begin(loadID)
	logger.Info("Load %s: started", loadID)

	data, err := p.load(ctx, loadID)
	if err != nil {
		p.store.Fail(loadID, err)
		logger.Error("Load %s: failed after %v: %v", loadID, time.Since(t0), err)
		return nil, err
	}

	p.store.Publish(data)
	if data.HistogramError != "" {
		logger.Warn("Load %s: published without histogram: %s", loadID, data.HistogramError)
	}
	logger.Info("Load %s: published %s rows, %d categories, %d bins in %v",
		loadID, humanize.Comma(int64(data.Rows)), len(data.Categories), len(data.Histogram), time.Since(t0))
	return data, nil
}

func (p *Pipeline) load(ctx context.Context, loadID string) (*models.DashboardData, error) {
	records, err := p.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	data, err := Aggregate(ctx, records, p.opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	data.LoadID = loadID
	data.LoadedAt = time.Now().UTC()
	return data, nil
}
