package features

import (
	"math"
	"testing"
	"time"

	"EpiWatch/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seriesOf(counts ...int) *models.DailySeries {
	start := day(2026, 3, 2) // a Monday
	days := make([]models.DayCount, len(counts))
	for i, c := range counts {
		days[i] = models.DayCount{Date: start.AddDate(0, 0, i), Count: c}
	}
	return &models.DailySeries{Disease: "Malaria", Location: "Nairobi", Days: days}
}

func TestBuildSeriesFillsGaps(t *testing.T) {
	from := day(2026, 3, 2)
	to := day(2026, 3, 8)
	counts := []models.DayCount{
		{Date: from, Count: 3},
		{Date: day(2026, 3, 5), Count: 7},
	}
	s := BuildSeries("Malaria", "Nairobi", counts, from, to)
	if s.Len() != 7 {
		t.Fatalf("expected 7 days, got %d", s.Len())
	}
	if err := ValidateSeries(s); err != nil {
		t.Fatalf("series invalid: %v", err)
	}
	want := []int{3, 0, 0, 7, 0, 0, 0}
	for i, w := range want {
		if s.Days[i].Count != w {
			t.Fatalf("day %d: expected %d got %d", i, w, s.Days[i].Count)
		}
	}
}

func TestBuildSeriesMergesSameDay(t *testing.T) {
	from := day(2026, 3, 2)
	counts := []models.DayCount{
		{Date: from, Count: 2},
		{Date: from.Add(5 * time.Hour), Count: 3},
	}
	s := BuildSeries("Cholera", "Mombasa", counts, from, from)
	if s.Len() != 1 || s.Days[0].Count != 5 {
		t.Fatalf("expected one merged day of 5, got %+v", s.Days)
	}
}

func TestValidateSeriesRejectsGap(t *testing.T) {
	s := seriesOf(1, 2, 3)
	s.Days[2].Date = s.Days[2].Date.AddDate(0, 0, 1)
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected gap error")
	}
}

func TestValidateSeriesRejectsNegative(t *testing.T) {
	s := seriesOf(1, -2)
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected negative count error")
	}
}

func TestEngineerColumnCount(t *testing.T) {
	f := Engineer(seriesOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	if len(f.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(f.Rows))
	}
	for i, row := range f.Rows {
		if len(row) != len(FeatureColumns) {
			t.Fatalf("row %d: expected %d features, got %d", i, len(FeatureColumns), len(row))
		}
	}
}

func TestEngineerCalendarColumns(t *testing.T) {
	// Series starts Monday 2026-03-02.
	f := Engineer(seriesOf(1, 1, 1, 1, 1, 1, 1))
	if f.Rows[0][0] != 0 {
		t.Fatalf("Monday should be weekday 0, got %v", f.Rows[0][0])
	}
	if f.Rows[5][0] != 5 || f.Rows[5][4] != 1 {
		t.Fatalf("Saturday should be weekday 5 and weekend, got %v %v", f.Rows[5][0], f.Rows[5][4])
	}
	if f.Rows[0][4] != 0 {
		t.Fatalf("Monday should not be weekend")
	}
	if f.Rows[0][1] != 2 || f.Rows[0][3] != 3 {
		t.Fatalf("expected day 2 month 3, got %v %v", f.Rows[0][1], f.Rows[0][3])
	}
}

func TestEngineerDerivedColumns(t *testing.T) {
	f := Engineer(seriesOf(2, 4, 8))

	// trend = first difference, zero on the first day
	if f.Rows[0][15] != 0 || f.Rows[1][15] != 2 || f.Rows[2][15] != 4 {
		t.Fatalf("unexpected trend column: %v %v %v", f.Rows[0][15], f.Rows[1][15], f.Rows[2][15])
	}
	// acceleration = trend difference
	if f.Rows[2][16] != 2 {
		t.Fatalf("expected acceleration 2, got %v", f.Rows[2][16])
	}
	// growth rate 4->8 is 1.0
	if f.Rows[2][17] != 1 {
		t.Fatalf("expected growth 1, got %v", f.Rows[2][17])
	}
	// cumulative
	if f.Rows[2][18] != 14 {
		t.Fatalf("expected cumulative 14, got %v", f.Rows[2][18])
	}
	// lag_1
	if f.Rows[2][11] != 4 {
		t.Fatalf("expected lag_1 4, got %v", f.Rows[2][11])
	}
}

func TestEngineerGrowthFromZeroIsZero(t *testing.T) {
	f := Engineer(seriesOf(0, 5))
	if f.Rows[1][17] != 0 {
		t.Fatalf("growth from zero base should be 0, got %v", f.Rows[1][17])
	}
}

func TestEngineerRollingStd(t *testing.T) {
	f := Engineer(seriesOf(2, 4))
	// sample std of {2,4} is sqrt(2); single point std is 0
	if f.Rows[0][6] != 0 {
		t.Fatalf("single point std should be 0, got %v", f.Rows[0][6])
	}
	if math.Abs(f.Rows[1][6]-math.Sqrt2) > 1e-9 {
		t.Fatalf("expected std sqrt(2), got %v", f.Rows[1][6])
	}
}

func TestTrainingMatrixHorizon(t *testing.T) {
	f := Engineer(seriesOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	X, y := f.TrainingMatrix(7)
	if len(X) != 3 || len(y) != 3 {
		t.Fatalf("expected 3 training rows, got %d/%d", len(X), len(y))
	}
	// target for day i is the count 7 days later
	if y[0] != 8 || y[1] != 9 || y[2] != 10 {
		t.Fatalf("unexpected targets %v", y)
	}
}

func TestTrainingMatrixTooShort(t *testing.T) {
	f := Engineer(seriesOf(1, 2, 3))
	X, y := f.TrainingMatrix(7)
	if X != nil || y != nil {
		t.Fatalf("expected empty matrix for short series")
	}
}

func TestRecentHelpers(t *testing.T) {
	f := Engineer(seriesOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	mean, std := f.RecentMeanStd(4)
	if mean != 8.5 {
		t.Fatalf("expected mean 8.5, got %v", mean)
	}
	if std <= 0 {
		t.Fatalf("expected positive std, got %v", std)
	}
	if got := f.RecentMax(3); got != 10 {
		t.Fatalf("expected max 10, got %v", got)
	}
	if got := f.RecentSum(3); got != 27 {
		t.Fatalf("expected sum 27, got %v", got)
	}
	if got := f.LatestCases(); got != 10 {
		t.Fatalf("expected latest 10, got %v", got)
	}
	if got := f.RecentTrend(7); got <= 0 {
		t.Fatalf("expected increasing trend, got %v", got)
	}
}
