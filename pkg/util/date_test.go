package util

import (
	"testing"
	"time"
)

func TestParseTimePlainDate(t *testing.T) {
	got, ok := ParseTime("2025-03-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDay(got) != "2025-03-01" {
		t.Fatalf("unexpected day %s", FormatDay(got))
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDayRangeInclusive(t *testing.T) {
	from := time.Date(2025, 2, 26, 13, 45, 0, 0, time.UTC)
	to := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)
	days := DayRange(from, to)
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if FormatDay(days[0]) != "2025-02-26" || FormatDay(days[4]) != "2025-03-02" {
		t.Fatalf("unexpected bounds %s..%s", FormatDay(days[0]), FormatDay(days[4]))
	}
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) != 24*time.Hour {
			t.Fatalf("non-contiguous days at %d", i)
		}
	}
}

func TestDayRangeReversed(t *testing.T) {
	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if days := DayRange(from, to); days != nil {
		t.Fatalf("expected nil for reversed range")
	}
}
