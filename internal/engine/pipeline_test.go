package engine

import (
	"cardash/internal/models"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource hands out one scripted result per call and blocks each call
// until its gate is released.
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	gates   []chan struct{}
	results [][]models.Record
	errs    []error
	started chan int
}

func newGatedSource(n int) *gatedSource {
	s := &gatedSource{
		gates:   make([]chan struct{}, n),
		results: make([][]models.Record, n),
		errs:    make([]error, n),
		started: make(chan int, n),
	}
	for i := range s.gates {
		s.gates[i] = make(chan struct{})
	}
	return s
}

func (s *gatedSource) Records(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	s.started <- i
	select {
	case <-s.gates[i]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.results[i], s.errs[i]
}

type runResult struct {
	data *models.DashboardData
	err  error
}

func startRun(p *Pipeline) <-chan runResult {
	out := make(chan runResult, 1)
	go func() {
		data, err := p.Run(context.Background())
		out <- runResult{data, err}
	}()
	return out
}

func TestNewPipelineRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.BinWidth = 0

	_, err := NewPipeline(newGatedSource(1), opts, NewStore())
	assert.ErrorIs(t, err, ErrInvalidBinWidth)
}

func TestPipelineRun(t *testing.T) {
	src := newGatedSource(1)
	src.results[0] = []models.Record{
		{"body_type": "SUV", "Price_USD": 4000.0},
		{"body_type": "Sedan", "Price_USD": 6000.0},
	}
	close(src.gates[0])

	store := NewStore()
	p, err := NewPipeline(src, DefaultOptions(), store)
	require.NoError(t, err)

	data, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, data.LoadID)
	assert.False(t, data.LoadedAt.IsZero())
	assert.Equal(t, 2, data.Rows)
	assert.Len(t, data.Histogram, 2)
	assert.Same(t, data, store.Current())

	status := store.Status()
	assert.Equal(t, models.StateReady, status.State)
	assert.Equal(t, data.LoadID, status.LoadID)
	assert.Equal(t, 1, status.LoadsStarted)
	assert.Equal(t, 1, status.LoadsCompleted)
}

func TestOverlappingRunsLastCompletedWins(t *testing.T) {
	src := newGatedSource(2)
	src.results[0] = []models.Record{{"body_type": "first"}}
	src.results[1] = []models.Record{{"body_type": "second"}}

	store := NewStore()
	p, err := NewPipeline(src, DefaultOptions(), store)
	require.NoError(t, err)

	// Run A starts first, run B second.
	a := startRun(p)
	require.Equal(t, 0, <-src.started)
	b := startRun(p)
	require.Equal(t, 1, <-src.started)

	// B finishes first and is published.
	close(src.gates[1])
	resB := <-b
	require.NoError(t, resB.err)
	assert.Same(t, resB.data, store.Current())
	assert.Equal(t, models.StateLoading, store.Status().State)

	// A finishes last and replaces it.
	close(src.gates[0])
	resA := <-a
	require.NoError(t, resA.err)

	current := store.Current()
	assert.Same(t, resA.data, current)
	assert.Equal(t, "first", current.Categories[0].Name)

	status := store.Status()
	assert.Equal(t, models.StateReady, status.State)
	assert.Equal(t, resA.data.LoadID, status.LoadID)
	assert.Equal(t, 2, status.LoadsStarted)
	assert.Equal(t, 2, status.LoadsCompleted)

	// B's result was not touched by A's publish.
	assert.Equal(t, "second", resB.data.Categories[0].Name)
}

func TestFailedRunKeepsPreviousData(t *testing.T) {
	src := newGatedSource(2)
	src.results[0] = []models.Record{{"body_type": "SUV"}}
	src.errs[1] = errors.New("disk on fire")
	close(src.gates[0])
	close(src.gates[1])

	store := NewStore()
	p, err := NewPipeline(src, DefaultOptions(), store)
	require.NoError(t, err)

	first, err := p.Run(context.Background())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	assert.Same(t, first, store.Current())
	status := store.Status()
	assert.Equal(t, models.StateFailed, status.State)
	assert.Contains(t, status.LastError, "disk on fire")
}

func TestStoreInitialState(t *testing.T) {
	store := NewStore()

	assert.Nil(t, store.Current())
	assert.Equal(t, models.StateIdle, store.Status().State)
}

func TestPipelineWithFileSource(t *testing.T) {
	path := writeTemp(t, "used_cars_*.csv", []byte(`make,body_type,Price_USD
Toyota,SUV,0
Honda,SUV,4999
Ford,Sedan,5000
Kia,,9999
Mazda,Coupe,10000
BMW,Wagon,call dealer
`))

	p, err := NewPipeline(FileSource{Path: path}, DefaultOptions(), NewStore())
	require.NoError(t, err)

	data, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, data.Rows)
	assert.Equal(t, []models.CategoryCount{
		{Name: "SUV", Value: 2},
		{Name: "Sedan", Value: 1},
		{Name: "Coupe", Value: 1},
		{Name: "Wagon", Value: 1},
	}, data.Categories)
	require.Len(t, data.Histogram, 2)
	assert.Equal(t, 2, data.Histogram[0].Count)
	assert.Equal(t, 3, data.Histogram[1].Count)
	assert.Equal(t, 5, data.Summary.Count)
}

func TestPipelinePublishesCategoriesDespiteOutlierPrice(t *testing.T) {
	path := writeTemp(t, "outlier_*.csv", []byte(`body_type,Price_USD
SUV,12000
Sedan,9000
SUV,10000000000
`))

	store := NewStore()
	p, err := NewPipeline(FileSource{Path: path}, DefaultOptions(), store)
	require.NoError(t, err)

	data, err := p.Run(context.Background())
	require.NoError(t, err)

	current := store.Current()
	require.NotNil(t, current)
	assert.Same(t, data, current)
	assert.Equal(t, []models.CategoryCount{
		{Name: "SUV", Value: 2},
		{Name: "Sedan", Value: 1},
	}, current.Categories)
	assert.Equal(t, 3, current.Summary.Count)
	assert.Empty(t, current.Histogram)
	assert.NotEmpty(t, current.HistogramError)
	assert.Equal(t, models.StateReady, store.Status().State)
}
