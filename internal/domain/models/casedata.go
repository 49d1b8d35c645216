package models

import "time"

// CaseRecord is a single reported case of a disease at a location.
// Age and gender ride along for downstream analysis; the prediction
// pipeline only aggregates counts by day.
type CaseRecord struct {
	ID         string
	Disease    string
	Location   string
	Age        int
	Gender     string
	ReportedAt time.Time
	Source     string // "feed", "api", "import"
}

// CaseEvent is the wire form of a case report flowing through the
// ingestion pipeline (feed -> Kafka -> ClickHouse).
type CaseEvent struct {
	Disease    string    `json:"disease"`
	Location   string    `json:"location"`
	Age        int       `json:"age,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
	Source     string    `json:"source"`
}

// DayCount is one calendar day's aggregated case count.
type DayCount struct {
	Date  time.Time
	Count int
}

// DailySeries is an ordered, gap-free daily case-count series for one
// (disease, location) pair. Dates are contiguous midnight-UTC days, one
// row per day, counts never negative.
type DailySeries struct {
	Disease  string
	Location string
	Days     []DayCount
}

// Len returns the number of days in the series.
func (s *DailySeries) Len() int { return len(s.Days) }

// Counts returns the case counts as a float slice for numeric work.
func (s *DailySeries) Counts() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = float64(d.Count)
	}
	return out
}

// ActiveDays returns how many days have at least one case.
func (s *DailySeries) ActiveDays() int {
	n := 0
	for _, d := range s.Days {
		if d.Count > 0 {
			n++
		}
	}
	return n
}

// Pair identifies a (disease, location) combination.
type Pair struct {
	Disease  string
	Location string
}

// PairActivity is a pair together with its total case count, used when
// enumerating candidates for prediction and training.
type PairActivity struct {
	Disease   string
	Location  string
	CaseCount int
}
