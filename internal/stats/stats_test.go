package stats

import (
	"testing"
	"time"
)

func TestParseStats_Percentiles(t *testing.T) {
	s := New(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		s.Record(Result{Duration: time.Duration(ms) * time.Millisecond, Individuals: 2, Families: 1})
	}

	snap := s.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Individuals != 10 || snap.Families != 5 {
		t.Fatalf("expected totals 10/5, got %d/%d", snap.Individuals, snap.Families)
	}
}

func TestParseStats_CountsFailuresAndDiagnostics(t *testing.T) {
	s := New(time.Hour)
	s.Record(Result{Duration: time.Millisecond, Diagnostics: 3})
	s.Record(Result{Duration: time.Millisecond, Failed: true})

	snap := s.Snapshot()
	if snap.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", snap.Failed)
	}
	if snap.Diagnostics != 3 {
		t.Errorf("expected 3 diagnostics, got %d", snap.Diagnostics)
	}
}

func TestParseStats_PrunesExpiredSamples(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(time.Minute)
	s.now = func() time.Time { return now }

	s.Record(Result{Duration: 100 * time.Millisecond})
	now = now.Add(2 * time.Minute)

	if snap := s.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	s.Record(Result{Duration: 200 * time.Millisecond})
	snap := s.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one fresh 200ms sample, got %+v", snap)
	}
}

func TestParseStats_ClampsNegativeDuration(t *testing.T) {
	s := New(time.Hour)
	s.Record(Result{Duration: -10 * time.Millisecond})
	snap := s.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestParseStats_Empty(t *testing.T) {
	if snap := New(0).Snapshot(); snap != (Snapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
