package models

import "time"

// DashboardData is one complete, immutable result of a load.
type DashboardData struct {
	LoadID        string          `json:"load_id"`
	LoadedAt      time.Time       `json:"loaded_at"`
	Rows          int             `json:"rows"`
	CategoryField string          `json:"category_field"`
	NumericField  string          `json:"numeric_field"`
	BinWidth      float64         `json:"bin_width"`
	Categories    []CategoryCount `json:"categories"`
	Histogram     []HistogramBin  `json:"histogram"`
	Summary       NumericSummary  `json:"summary"`

	// HistogramError is set when the histogram could not be built; Histogram
	// is then empty.
	HistogramError string `json:"histogram_error,omitempty"`
}

// CategoryCount is one pie slice.
type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// HistogramBin covers [Lower, Upper); the last bin of a histogram also holds Upper.
type HistogramBin struct {
	Range string  `json:"range"`
	Count int     `json:"count"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type NumericSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateFailed  LoadState = "failed"
)

type LoadStatus struct {
	State          LoadState `json:"state"`
	LoadID         string    `json:"load_id,omitempty"`
	LoadsStarted   int       `json:"loads_started"`
	LoadsCompleted int       `json:"loads_completed"`
	LastError      string    `json:"last_error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
