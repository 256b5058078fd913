package engine

import (
	"cardash/internal/models"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// MaxHistogramBins caps ceil(max/binWidth) so one outlier can't allocate an
// unbounded slice. Aggregate drops only the histogram when it is exceeded.
const MaxHistogramBins = 1 << 20

var (
	ErrInvalidBinWidth = errors.New("bin width must be a positive finite number")
	ErrTooManyBins     = errors.New("histogram needs too many bins")
)

// Options names the fields the dashboard aggregates.
type Options struct {
	CategoryField string
	NumericField  string
	BinWidth      float64
}

func DefaultOptions() Options {
	return Options{
		CategoryField: "body_type",
		NumericField:  "Price_USD",
		BinWidth:      5000,
	}
}

func (o Options) Validate() error {
	if o.CategoryField == "" {
		return errors.New("category field is required")
	}
	if o.NumericField == "" {
		return errors.New("numeric field is required")
	}
	return validBinWidth(o.BinWidth)
}

func validBinWidth(w float64) error {
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidBinWidth, w)
	}
	return nil
}

// AggregateByCategory counts records per non-empty value of field, in
// first-seen order. Records without a usable value are left out.
func AggregateByCategory(records []models.Record, field string) []models.CategoryCount {
	index := make(map[string]int)
	out := make([]models.CategoryCount, 0)

	for _, rec := range records {
		name, ok := rec.Text(field)
		if !ok {
			continue
		}
		if i, seen := index[name]; seen {
			out[i].Value++
			continue
		}
		index[name] = len(out)
		out = append(out, models.CategoryCount{Name: name, Value: 1})
	}
	return out
}

// BuildHistogram bins the finite numeric values of field into fixed-width
// intervals starting at zero. The last bin is closed on both ends so the
// maximum value always lands inside it.
func BuildHistogram(records []models.Record, field string, binWidth float64) ([]models.HistogramBin, error) {
	if err := validBinWidth(binWidth); err != nil {
		return nil, err
	}

	// 1. Extract
	values := numericValues(records, field)
	if len(values) == 0 {
		return []models.HistogramBin{}, nil
	}

	// 2. Range
	span := math.Ceil(floats.Max(values) / binWidth)
	if span > MaxHistogramBins {
		return nil, fmt.Errorf("%w: %.0f (max %d)", ErrTooManyBins, span, MaxHistogramBins)
	}
	binCount := int(span)
	if binCount < 1 {
		binCount = 1
	}

	// 3. Tally
	counts := make([]int, binCount)
	for _, v := range values {
		idx := int(math.Floor(v / binWidth))
		if idx > binCount-1 {
			idx = binCount - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	// 4. Label
	bins := make([]models.HistogramBin, binCount)
	for i, c := range counts {
		lower := float64(i) * binWidth
		upper := float64(i+1) * binWidth
		bins[i] = models.HistogramBin{
			Range: RangeLabel(lower, upper),
			Count: c,
			Lower: lower,
			Upper: upper,
		}
	}
	return bins, nil
}

// RangeLabel renders bin bounds as "$lower–upper".
func RangeLabel(lower, upper float64) string {
	return "$" + formatBound(lower) + "–" + formatBound(upper)
}

// formatBound rounds to 15 significant digits first, so i*binWidth noise
// such as 0.30000000000000004 prints as 0.3.
func formatBound(v float64) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	if err != nil {
		rounded = v
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func numericValues(records []models.Record, field string) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Number(field); ok {
			values = append(values, v)
		}
	}
	return values
}

// Aggregate computes every dashboard dataset over the same record slice. The
// aggregations only read records, so they run side by side. A histogram over
// MaxHistogramBins is left empty and reported in HistogramError; the other
// datasets are still returned.
func Aggregate(ctx context.Context, records []models.Record, opts Options) (*models.DashboardData, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		categories []models.CategoryCount
		histogram  []models.HistogramBin
		histErr    string
		summary    models.NumericSummary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories = AggregateByCategory(records, opts.CategoryField)
		return ctx.Err()
	})
	g.Go(func() error {
		bins, err := BuildHistogram(records, opts.NumericField, opts.BinWidth)
		switch {
		case errors.Is(err, ErrTooManyBins):
			histogram = []models.HistogramBin{}
			histErr = fmt.Sprintf("histogram %q: %v", opts.NumericField, err)
		case err != nil:
			return fmt.Errorf("histogram %q: %w", opts.NumericField, err)
		default:
			histogram = bins
		}
		return ctx.Err()
	})
	g.Go(func() error {
		summary = SummarizeNumeric(records, opts.NumericField)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.DashboardData{
		Rows:           len(records),
		CategoryField:  opts.CategoryField,
		NumericField:   opts.NumericField,
		BinWidth:       opts.BinWidth,
		Categories:     categories,
		Histogram:      histogram,
		HistogramError: histErr,
		Summary:        summary,
	}, nil
}
