package forecast

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// Model is the trained two-regressor ensemble for one
// (disease, location) pair: a bagged forest and a boosted ensemble,
// averaged at prediction time, plus the scaler fit on the training set.
type Model struct {
	Forest       *Forest
	Boost        *Boosting
	Scaler       *Scaler
	FeatureNames []string
	TrainedAt    time.Time
}

// Fit trains the ensemble on an already engineered training matrix.
// The seed makes training reproducible for a given pair and dataset.
func Fit(X [][]float64, y []float64, featureNames []string, seed int64) (*Model, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("invalid training matrix: %d rows, %d targets", len(X), len(y))
	}

	scaler := FitScaler(X)
	scaled := scaler.TransformAll(X)
	rng := rand.New(rand.NewSource(seed))

	return &Model{
		Forest:       FitForest(scaled, y, DefaultForestParams(), rng),
		Boost:        FitBoosting(scaled, y, DefaultBoostingParams()),
		Scaler:       scaler,
		FeatureNames: append([]string(nil), featureNames...),
		TrainedAt:    time.Now().UTC(),
	}, nil
}

// Predict scales the raw feature row and averages both regressors.
func (m *Model) Predict(row []float64) (float64, error) {
	if len(row) != len(m.FeatureNames) {
		return 0, fmt.Errorf("feature row has %d values, model expects %d", len(row), len(m.FeatureNames))
	}
	scaled := m.Scaler.Transform(row)
	return (m.Forest.Predict(scaled) + m.Boost.Predict(scaled)) / 2, nil
}

// Encode serializes the model for the model store.
func (m *Model) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a model from its stored form and checks that its
// feature layout matches the given column order.
func Decode(blob []byte, featureNames []string) (*Model, error) {
	var m Model
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.FeatureNames) != len(featureNames) {
		return nil, fmt.Errorf("stored model has %d features, want %d", len(m.FeatureNames), len(featureNames))
	}
	for i, name := range featureNames {
		if m.FeatureNames[i] != name {
			return nil, fmt.Errorf("stored model feature %d is %q, want %q", i, m.FeatureNames[i], name)
		}
	}
	return &m, nil
}

// SeedFor derives a stable training seed from the pair identity, so
// retraining the same pair on the same data yields the same model.
func SeedFor(disease, location string) int64 {
	h := fnv.New64a()
	h.Write([]byte(disease))
	h.Write([]byte{'|'})
	h.Write([]byte(location))
	return int64(h.Sum64())
}
