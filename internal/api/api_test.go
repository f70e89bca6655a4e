package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/gedgest/internal/config"
	"github.com/dgallion1/gedgest/internal/pipeline"
	"github.com/dgallion1/gedgest/internal/stats"
	"github.com/dgallion1/gedgest/internal/store"
	"github.com/fumiama/go-docx"
)

const testAPIKey = "secret"

const sampleGedcom = `0 HEAD
1 GEDC
2 VERS 5.5.1
2 FORM LINEAGE-LINKED
1 CHAR UTF-8
0 @I1@ INDI
1 NAME John /Doe/
1 SEX M
1 BIRT
2 DATE 1 JAN 1900
0 @I2@ INDI
1 NAME Jane /Roe/
1 SEX X
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
0 TRLR
`

type testEnv struct {
	srv   *Server
	store *store.Store
	orch  *pipeline.Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         config.Duration{Duration: time.Hour},
		StatsWindow:    config.Duration{Duration: time.Hour},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ps := stats.New(cfg.StatsWindow.Duration)
	orch := pipeline.NewOrchestrator(cfg, st, nil, ps, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return &testEnv{srv: NewServer(orch, st, ps, log, cfg), store: st, orch: orch}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// ingest submits sampleGedcom and waits for the job to finish.
func (e *testEnv) ingest(t *testing.T, fields map[string]string) pipeline.JobSnapshot {
	t.Helper()
	body, ct := multipartBody(t, "family.ged", sampleGedcom, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", ct)
	rec := e.do(t, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]any
	json.Unmarshal(rec.Body.Bytes(), &accepted)
	pollURL, _ := accepted["poll_url"].(string)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := e.do(t, httptest.NewRequest(http.MethodGet, pollURL, nil))
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return pipeline.JobSnapshot{}
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "Basic " + testAPIKey, http.StatusUnauthorized},
		{"valid", "Bearer " + testAPIKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
		})
	}
}

func TestParse_RawBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/parse?filename=family.ged", strings.NewReader(sampleGedcom))
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp parseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Filename != "family.ged" {
		t.Errorf("expected filename family.ged, got %q", resp.Filename)
	}
	if resp.Stats.Individuals != 2 || resp.Stats.Families != 1 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}
	if resp.Header.GedcomVersion != "5.5.1" {
		t.Errorf("expected version 5.5.1, got %q", resp.Header.GedcomVersion)
	}
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Line != 13 {
		t.Errorf("expected one diagnostic on line 13, got %+v", resp.Diagnostics)
	}
	if resp.Document != nil {
		t.Error("document should be omitted unless requested")
	}

	snap := env.srv.stats.Snapshot()
	if snap.Count != 1 || snap.Individuals != 2 {
		t.Errorf("parse not recorded in stats: %+v", snap)
	}
}

func TestParse_MultipartWithDocument(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, "../../family.ged", sampleGedcom, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/parse?include=document", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp parseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Filename != "family.ged" {
		t.Errorf("expected sanitized filename, got %q", resp.Filename)
	}
	if resp.Document == nil || len(resp.Document.Individuals) != 2 {
		t.Fatalf("expected document with 2 individuals, got %+v", resp.Document)
	}
	if resp.Document.Families[0].Individual1 != "I1" {
		t.Errorf("expected husband I1, got %q", resp.Document.Families[0].Individual1)
	}
}

func TestParse_YAML(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/parse?format=yaml", strings.NewReader(sampleGedcom))
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("expected application/yaml, got %q", ct)
	}
	out := rec.Body.String()
	for _, want := range []string{"stats:\n", "    individuals: 2\n", "gedcom_version: 5.5.1\n", "- line: 13\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestParse_BadFormat(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/parse?format=xml", strings.NewReader(sampleGedcom))
	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestParse_FatalError(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("0 HEAD\n1 TIME 10:00\n0 TRLR\n"))
	rec := env.do(t, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var fail parseFailure
	if err := json.Unmarshal(rec.Body.Bytes(), &fail); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fail.Line != 2 {
		t.Errorf("expected line 2, got %d", fail.Line)
	}
	if !strings.Contains(fail.Error, "TIME") {
		t.Errorf("expected TIME in error, got %q", fail.Error)
	}
	if snap := env.srv.stats.Snapshot(); snap.Failed != 1 {
		t.Errorf("expected 1 failed parse, got %d", snap.Failed)
	}
}

func TestParse_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	env.srv.cfg.MaxUploadBytes = 16
	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(sampleGedcom))
	rec := env.do(t, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestIngest_RejectsUnsupportedFile(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, "family.txt", sampleGedcom, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestIngest_StatusNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/ingest/nope/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestIngest_DocumentLifecycle(t *testing.T) {
	env := newTestEnv(t)

	snap := env.ingest(t, map[string]string{"doc_id": "doe", "title": "Doe family"})
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.DocID != "doe" {
		t.Errorf("expected doc_id doe, got %q", snap.DocID)
	}
	if snap.Progress.Individuals != 2 || snap.Progress.Diagnostics != 1 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}

	// Same bytes again: deduplicated.
	dup := env.ingest(t, nil)
	if dup.Status != pipeline.StatusDupSkipped || dup.DuplicateOf != "doe" {
		t.Errorf("expected duplicate of doe, got %s / %q", dup.Status, dup.DuplicateOf)
	}

	// List.
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var list struct {
		Documents []store.DocumentMeta `json:"documents"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Documents) != 1 || list.Documents[0].Title != "Doe family" {
		t.Fatalf("unexpected document list: %+v", list.Documents)
	}

	// Full document.
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stored store.StoredDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Document == nil || len(stored.Document.Individuals) != 2 {
		t.Fatalf("unexpected stored document: %+v", stored.Document)
	}
	if name := stored.Document.Individuals[0].Name.Display(); name != "John Doe" {
		t.Errorf("expected %q, got %q", "John Doe", name)
	}

	// Search.
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe/individuals?q=jane", nil))
	var hits struct {
		Individuals []store.IndividualRow `json:"individuals"`
	}
	json.Unmarshal(rec.Body.Bytes(), &hits)
	if len(hits.Individuals) != 1 || hits.Individuals[0].Xref != "I2" {
		t.Errorf("unexpected search hits: %+v", hits.Individuals)
	}

	// HTML report.
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>Doe family</h1>") {
		t.Errorf("report missing title:\n%s", rec.Body.String())
	}

	// DOCX report.
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe/report.docx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != docxContentType {
		t.Errorf("expected docx content type, got %q", ct)
	}
	data := rec.Body.Bytes()
	if _, err := docx.Parse(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Errorf("docx does not parse: %v", err)
	}

	// Delete.
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/doe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/doe", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestGetDocument_YAML(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, map[string]string{"doc_id": "doe"})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/doe?format=yaml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{"doc_id: doe\n", "xref: I1\n", "sex: male\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestDocuments_NotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/documents/missing",
		"/api/documents/missing/individuals",
		"/api/documents/missing/report",
		"/api/documents/missing/report.docx",
	} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestParseStats(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(sampleGedcom)))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/stats/parse", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Window     string         `json:"window"`
		Parse      stats.Snapshot `json:"parse"`
		QueueDepth int            `json:"queue_depth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Window != "1h0m0s" {
		t.Errorf("expected window 1h0m0s, got %q", resp.Window)
	}
	if resp.Parse.Count != 1 || resp.Parse.Families != 1 {
		t.Errorf("unexpected snapshot: %+v", resp.Parse)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"family.ged", "family.ged"},
		{"../../etc/passwd", "passwd"},
		{"a..b.ged", "a_b.ged"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestIsGedcomFile(t *testing.T) {
	for name, want := range map[string]bool{
		"a.ged":    true,
		"A.GED":    true,
		"b.gedcom": true,
		"c.txt":    false,
		"ged":      false,
	} {
		if got := isGedcomFile(name); got != want {
			t.Errorf("isGedcomFile(%q): expected %v, got %v", name, want, got)
		}
	}
}
