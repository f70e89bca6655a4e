package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("family.ged", "Smith family", "", []byte("0 HEAD"))
	if job.ID == "" || job.DocID == "" {
		t.Fatalf("expected generated IDs, got job=%q doc=%q", job.ID, job.DocID)
	}
	if job.ID == job.DocID {
		t.Error("expected distinct job and document IDs")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if string(job.FileData()) != "0 HEAD" {
		t.Errorf("expected file data, got %q", job.FileData())
	}

	named := NewJob("a.ged", "", "my-doc", nil)
	if named.DocID != "my-doc" {
		t.Errorf("expected doc ID %q, got %q", "my-doc", named.DocID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("a.ged", "", "", nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusStoring, "storing"},
		{StatusExporting, "exporting"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		StatusQueued:     false,
		StatusParsing:    false,
		StatusStoring:    false,
		StatusExporting:  false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusPartial:    true,
		StatusDupSkipped: true,
	}
	for status, want := range terminal {
		if status.Terminal() != want {
			t.Errorf("%s: expected terminal=%v", status, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parse: line 3")
	job.AddError("store: locked")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "parse: line 3" {
		t.Errorf("expected first error %q, got %q", "parse: line 3", snap.Progress.Errors[0])
	}

	snap.Progress.Errors[0] = "mutated"
	if job.Snapshot().Progress.Errors[0] != "parse: line 3" {
		t.Error("expected snapshot errors to be a copy")
	}
}

func TestJob_ProgressCounters(t *testing.T) {
	job := &Job{ID: "progress", UpdatedAt: time.Now()}
	job.SetParsed(12, 4, 2, "abc")
	job.AddExported(10, 6)
	job.AddExported(7, 3)

	snap := job.Snapshot()
	if snap.Progress.Individuals != 12 || snap.Progress.Families != 4 || snap.Progress.Diagnostics != 2 {
		t.Errorf("unexpected parse counts: %+v", snap.Progress)
	}
	if snap.Progress.NodesExported != 17 || snap.Progress.LinksExported != 9 {
		t.Errorf("unexpected export counts: %+v", snap.Progress)
	}
	if snap.ContentHash != "abc" {
		t.Errorf("expected hash %q, got %q", "abc", snap.ContentHash)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	store.Put(&Job{ID: "old", UpdatedAt: time.Now().Add(-time.Second)})
	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}
