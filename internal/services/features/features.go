package features

import (
	"fmt"
	"math"
	"time"

	"EpiWatch/internal/domain/models"
	"EpiWatch/pkg/util"
)

// FeatureColumns is the model's input layout. Trained models carry this
// list and refuse rows built against a different layout.
var FeatureColumns = []string{
	"day_of_week", "day_of_month", "week_of_year", "month", "is_weekend",
	"cases_7d_mean", "cases_7d_std", "cases_7d_min", "cases_7d_max",
	"cases_14d_mean", "cases_14d_std",
	"cases_lag_1", "cases_lag_3", "cases_lag_7", "cases_lag_14",
	"cases_trend", "cases_acceleration", "growth_rate", "cumulative_cases",
}

// BuildSeries turns sparse daily counts into a gap-free DailySeries over
// [from, to], filling missing days with zero.
func BuildSeries(disease, location string, counts []models.DayCount, from, to time.Time) *models.DailySeries {
	byDay := make(map[time.Time]int, len(counts))
	for _, c := range counts {
		byDay[util.Day(c.Date)] += c.Count
	}

	days := util.DayRange(from, to)
	out := make([]models.DayCount, len(days))
	for i, d := range days {
		out[i] = models.DayCount{Date: d, Count: byDay[d]}
	}
	return &models.DailySeries{Disease: disease, Location: location, Days: out}
}

// ValidateSeries checks the gap-free invariant: one row per calendar
// day, strictly increasing, counts never negative.
func ValidateSeries(s *models.DailySeries) error {
	for i, d := range s.Days {
		if d.Count < 0 {
			return fmt.Errorf("negative count %d at %s", d.Count, util.FormatDay(d.Date))
		}
		if i == 0 {
			continue
		}
		want := s.Days[i-1].Date.AddDate(0, 0, 1)
		if !d.Date.Equal(want) {
			return fmt.Errorf("gap in series: %s follows %s",
				util.FormatDay(d.Date), util.FormatDay(s.Days[i-1].Date))
		}
	}
	return nil
}

// Frame is a DailySeries augmented with all derived feature columns.
type Frame struct {
	Dates []time.Time
	Cases []float64
	Trend []float64 // daily first difference, kept for risk analysis
	Rows  [][]float64
}

// Engineer derives the full feature set for every day of the series.
func Engineer(s *models.DailySeries) *Frame {
	n := s.Len()
	f := &Frame{
		Dates: make([]time.Time, n),
		Cases: s.Counts(),
		Trend: make([]float64, n),
		Rows:  make([]float64Row, n),
	}

	cumulative := 0.0
	for i := 0; i < n; i++ {
		d := s.Days[i].Date
		f.Dates[i] = d
		cases := f.Cases[i]
		cumulative += cases

		trend := 0.0
		if i > 0 {
			trend = cases - f.Cases[i-1]
		}
		f.Trend[i] = trend

		accel := 0.0
		if i > 0 {
			accel = trend - f.Trend[i-1]
		}

		growth := 0.0
		if i > 0 && f.Cases[i-1] != 0 {
			growth = (cases - f.Cases[i-1]) / f.Cases[i-1]
		}

		mean7, std7 := rollingMeanStd(f.Cases, i, 7)
		min7, max7 := rollingMinMax(f.Cases, i, 7)
		mean14, std14 := rollingMeanStd(f.Cases, i, 14)

		_, isoWeek := d.ISOWeek()

		f.Rows[i] = float64Row{
			float64(pythonWeekday(d)),
			float64(d.Day()),
			float64(isoWeek),
			float64(d.Month()),
			isWeekend(d),
			mean7, std7, min7, max7,
			mean14, std14,
			lag(f.Cases, i, 1),
			lag(f.Cases, i, 3),
			lag(f.Cases, i, 7),
			lag(f.Cases, i, 14),
			trend, accel, growth, cumulative,
		}
	}
	return f
}

type float64Row = []float64

// TrainingMatrix pairs each day's features with the case count horizon
// days later. Days whose target falls past the series end are dropped.
func (f *Frame) TrainingMatrix(horizon int) (X [][]float64, y []float64) {
	n := len(f.Rows)
	if n <= horizon {
		return nil, nil
	}
	X = make([][]float64, 0, n-horizon)
	y = make([]float64, 0, n-horizon)
	for i := 0; i+horizon < n; i++ {
		X = append(X, f.Rows[i])
		y = append(y, f.Cases[i+horizon])
	}
	return X, y
}

// LatestRow returns the most recent day's feature vector.
func (f *Frame) LatestRow() []float64 {
	if len(f.Rows) == 0 {
		return nil
	}
	return f.Rows[len(f.Rows)-1]
}

// RecentMeanStd returns mean and sample std of the last n case counts.
func (f *Frame) RecentMeanStd(n int) (mean, std float64) {
	return tailMeanStd(f.Cases, n)
}

// RecentMax returns the max of the last n case counts.
func (f *Frame) RecentMax(n int) float64 {
	tail := tailOf(f.Cases, n)
	max := 0.0
	for i, v := range tail {
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

// RecentSum returns the sum of the last n case counts.
func (f *Frame) RecentSum(n int) float64 {
	sum := 0.0
	for _, v := range tailOf(f.Cases, n) {
		sum += v
	}
	return sum
}

// RecentTrend returns the mean of the last n daily first differences.
func (f *Frame) RecentTrend(n int) float64 {
	tail := tailOf(f.Trend, n)
	if len(tail) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range tail {
		sum += v
	}
	return sum / float64(len(tail))
}

// LatestCases returns the most recent day's case count.
func (f *Frame) LatestCases() float64 {
	if len(f.Cases) == 0 {
		return 0
	}
	return f.Cases[len(f.Cases)-1]
}

func pythonWeekday(d time.Time) int {
	// time.Weekday has Sunday=0; day-of-week features use Monday=0.
	return (int(d.Weekday()) + 6) % 7
}

func isWeekend(d time.Time) float64 {
	w := pythonWeekday(d)
	if w == 5 || w == 6 {
		return 1
	}
	return 0
}

func lag(vals []float64, i, n int) float64 {
	if i-n < 0 {
		return 0
	}
	return vals[i-n]
}

// rollingMeanStd computes mean and sample std over the window ending at
// index i. Windows of one day get std 0.
func rollingMeanStd(vals []float64, i, window int) (mean, std float64) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	return meanStd(vals[start : i+1])
}

func rollingMinMax(vals []float64, i, window int) (min, max float64) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	for j := start; j <= i; j++ {
		v := vals[j]
		if j == start || v < min {
			min = v
		}
		if j == start || v > max {
			max = v
		}
	}
	return min, max
}

func tailOf(vals []float64, n int) []float64 {
	if n >= len(vals) {
		return vals
	}
	return vals[len(vals)-n:]
}

func tailMeanStd(vals []float64, n int) (mean, std float64) {
	return meanStd(tailOf(vals, n))
}

func meanStd(window []float64) (mean, std float64) {
	n := len(window)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(n-1))
	return mean, std
}
