package logger

import "testing"

func TestCollectorNewestFirst(t *testing.T) {
	c := NewJobLogCollector(10)
	c.Add("warn", "first", nil)
	c.Add("error", "second", nil)
	c.Add("warn", "third", nil)

	got := c.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Message != "third" || got[1].Message != "second" {
		t.Fatalf("expected newest first, got %v", got)
	}
}

func TestCollectorRingWraps(t *testing.T) {
	c := NewJobLogCollector(3)
	for _, m := range []string{"a", "b", "c", "d"} {
		c.Add("warn", m, nil)
	}

	got := c.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected full ring of 3, got %d", len(got))
	}
	if got[0].Message != "d" || got[2].Message != "b" {
		t.Fatalf("ring did not wrap, got %v", got)
	}
}

func TestCollectorLimitExceedsSize(t *testing.T) {
	c := NewJobLogCollector(5)
	c.Add("error", "only", map[string]interface{}{"job": "daily"})

	got := c.Recent(100)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Fields["job"] != "daily" {
		t.Fatalf("fields lost: %v", got[0].Fields)
	}
}
