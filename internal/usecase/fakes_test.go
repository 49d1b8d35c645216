package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"EpiWatch/internal/domain/models"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/util"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: os.DevNull})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// fakeCaseStore serves canned daily counts and pair listings.
type fakeCaseStore struct {
	counts    map[models.Pair][]models.DayCount
	pairs     []models.PairActivity
	first     map[string]int // disease counts, older window
	second    map[string]int // disease counts, recent window
	locations []string
	diseases  map[string][]string
	listErr   error
}

func (f *fakeCaseStore) DailyCounts(_ context.Context, disease, location string, _, _ time.Time) ([]models.DayCount, error) {
	return f.counts[models.Pair{Disease: disease, Location: location}], nil
}

func (f *fakeCaseStore) ActivePairs(_ context.Context, _, _ time.Time, _ int) ([]models.PairActivity, error) {
	return f.pairs, f.listErr
}

func (f *fakeCaseStore) DiseaseCounts(_ context.Context, _, to time.Time) (map[string]int, error) {
	if time.Since(to) > 7*24*time.Hour {
		return f.first, nil
	}
	return f.second, nil
}

func (f *fakeCaseStore) Locations(context.Context) ([]string, error) {
	return f.locations, nil
}

func (f *fakeCaseStore) DiseasesAt(_ context.Context, location string) ([]string, error) {
	if f.diseases == nil {
		return nil, fmt.Errorf("no diseases configured for %s", location)
	}
	return f.diseases[location], nil
}

func (f *fakeCaseStore) Health(context.Context) error { return nil }

// setSeries installs a daily series for a pair, oldest first, ending today.
func (f *fakeCaseStore) setSeries(disease, location string, counts []int) {
	today := util.Day(time.Now().UTC())
	days := make([]models.DayCount, len(counts))
	for i, c := range counts {
		days[i] = models.DayCount{
			Date:  today.AddDate(0, 0, -(len(counts) - 1 - i)),
			Count: c,
		}
	}
	f.counts[models.Pair{Disease: disease, Location: location}] = days
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{counts: make(map[models.Pair][]models.DayCount)}
}

// flatSeries is n days at the same count.
func flatSeries(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// risingSeries climbs steadily from 1.
func risingSeries(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1 + i/2
	}
	return out
}

type fakeModelStore struct {
	mu    sync.Mutex
	blobs map[models.Pair][]byte
	saves int
}

func newFakeModelStore() *fakeModelStore {
	return &fakeModelStore{blobs: make(map[models.Pair][]byte)}
}

func (f *fakeModelStore) Save(_ context.Context, disease, location string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[models.Pair{Disease: disease, Location: location}] = blob
	f.saves++
	return nil
}

func (f *fakeModelStore) Load(_ context.Context, disease, location string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.blobs[models.Pair{Disease: disease, Location: location}]
	return blob, ok, nil
}

func (f *fakeModelStore) Delete(_ context.Context, disease, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, models.Pair{Disease: disease, Location: location})
	return nil
}

type fakeAlertStore struct {
	mu       sync.Mutex
	alerts   []*models.OutbreakAlert
	batches  int
	critical []*models.OutbreakAlert
}

func (f *fakeAlertStore) Init(context.Context) error { return nil }

func (f *fakeAlertStore) InsertBatch(_ context.Context, alerts []*models.OutbreakAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alerts...)
	f.batches++
	return nil
}

func (f *fakeAlertStore) MarkAction(_ context.Context, id, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id {
			a.ActionTaken = true
			a.ActionNotes = notes
			return nil
		}
	}
	return fmt.Errorf("alert %s: not found", id)
}

func (f *fakeAlertStore) History(_ context.Context, disease, location string, limit int) ([]*models.OutbreakAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OutbreakAlert
	for i := len(f.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		a := f.alerts[i]
		if a.Disease == disease && a.Location == location {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) RecentCritical(context.Context, time.Time) ([]*models.OutbreakAlert, error) {
	return f.critical, nil
}

func (f *fakeAlertStore) Health(context.Context) error { return nil }
func (f *fakeAlertStore) Close() error                 { return nil }

type queuedMessage struct {
	Type    string
	Payload interface{}
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []queuedMessage
	err      error
}

func (f *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, queuedMessage{Type: msgType, Payload: payload})
	return nil
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string)               {}
func (nopMetrics) RecordTraining(string)                 {}
func (nopMetrics) RecordCaseEvent(string)                {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordForecast(string, string, float64) {}
func (nopMetrics) RecordLatency(string, float64)         {}
