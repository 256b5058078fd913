package engine

import (
	"cardash/internal/models"

	"github.com/montanaflynn/stats"
)

// SummarizeNumeric describes the finite numeric values of field. With no
// values it returns a zero summary.
func SummarizeNumeric(records []models.Record, field string) models.NumericSummary {
	values := numericValues(records, field)
	if len(values) == 0 {
		return models.NumericSummary{}
	}

	data := stats.Float64Data(values)
	s := models.NumericSummary{Count: len(values)}
	// Non-empty input, so the stats calls below cannot fail.
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.P25, _ = stats.PercentileNearestRank(data, 25)
	s.P75, _ = stats.PercentileNearestRank(data, 75)
	return s
}
