package forecast

import (
	"math"
	"math/rand"
	"testing"
)

func flatData(n int, value float64, cols int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i % 7)
		}
		X[i] = row
		y[i] = value
	}
	return X, y
}

func rampData(n, cols int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		row[0] = float64(i)
		for j := 1; j < cols; j++ {
			row[j] = float64((i * j) % 11)
		}
		X[i] = row
		y[i] = float64(i) * 2
	}
	return X, y
}

func TestScalerZeroStdMapsToUnit(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 3}}
	s := FitScaler(X)
	got := s.Transform([]float64{5, 2})
	// constant column: divisor pinned to 1, value centers to 0
	if got[0] != 0 {
		t.Fatalf("expected centered 0 for constant column, got %v", got[0])
	}
	if got[1] != 0 {
		t.Fatalf("expected 0 for the mean value, got %v", got[1])
	}
}

func TestScalerTransform(t *testing.T) {
	X := [][]float64{{0}, {2}}
	s := FitScaler(X)
	// mean 1, population std 1
	got := s.Transform([]float64{3})
	if math.Abs(got[0]-2) > 1e-9 {
		t.Fatalf("expected z-score 2, got %v", got[0])
	}
}

func TestForestFlatSeries(t *testing.T) {
	X, y := flatData(60, 5, 4)
	rng := rand.New(rand.NewSource(1))
	f := FitForest(X, y, DefaultForestParams(), rng)
	got := f.Predict(X[10])
	if math.Abs(got-5) > 1e-9 {
		t.Fatalf("flat series should predict 5, got %v", got)
	}
}

func TestBoostingFlatSeries(t *testing.T) {
	X, y := flatData(60, 7, 4)
	b := FitBoosting(X, y, DefaultBoostingParams())
	got := b.Predict(X[3])
	if math.Abs(got-7) > 1e-6 {
		t.Fatalf("flat series should predict 7, got %v", got)
	}
}

func TestFitTracksRamp(t *testing.T) {
	X, y := rampData(80, 5)
	names := []string{"a", "b", "c", "d", "e"}
	m, err := Fit(X, y, names, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	lo, err := m.Predict(X[10])
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	hi, err := m.Predict(X[70])
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if hi <= lo {
		t.Fatalf("expected monotone response, got %v then %v", lo, hi)
	}
}

func TestFitDeterministicForSeed(t *testing.T) {
	X, y := rampData(60, 5)
	names := []string{"a", "b", "c", "d", "e"}
	m1, err := Fit(X, y, names, 7)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	m2, err := Fit(X, y, names, 7)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	p1, _ := m1.Predict(X[30])
	p2, _ := m2.Predict(X[30])
	if p1 != p2 {
		t.Fatalf("same seed should give same prediction: %v vs %v", p1, p2)
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	X, y := flatData(30, 3, 4)
	m, err := Fit(X, y, []string{"a", "b", "c", "d"}, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := m.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected feature width error")
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	X, y := rampData(50, 3)
	names := []string{"a", "b", "c"}
	m, err := Fit(X, y, names, 9)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	blob, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(blob, names)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want, _ := m.Predict(X[20])
	have, _ := got.Predict(X[20])
	if want != have {
		t.Fatalf("roundtrip changed prediction: %v vs %v", want, have)
	}
}

func TestDecodeRejectsLayoutMismatch(t *testing.T) {
	X, y := flatData(30, 2, 3)
	m, err := Fit(X, y, []string{"a", "b", "c"}, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	blob, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(blob, []string{"a", "x", "c"}); err == nil {
		t.Fatalf("expected layout mismatch error")
	}
}

func TestSeedForDeterministic(t *testing.T) {
	a := SeedFor("Malaria", "Nairobi")
	b := SeedFor("Malaria", "Nairobi")
	c := SeedFor("Malaria", "Mombasa")
	if a != b {
		t.Fatalf("seed should be stable")
	}
	if a == c {
		t.Fatalf("different pairs should not share a seed")
	}
}
