package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/gedtree"
	"github.com/dgallion1/gedgest/internal/report"
	"github.com/dgallion1/gedgest/internal/stats"
)

type parseResponse struct {
	Filename    string              `json:"filename,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
	Stats       gedtree.Stats       `json:"stats"`
	Header      gedtree.Header      `json:"header"`
	Diagnostics []gedcom.Diagnostic `json:"diagnostics"`
	Document    *gedtree.Document   `json:"document,omitempty"`
}

type parseFailure struct {
	Error       string              `json:"error"`
	Line        int                 `json:"line,omitempty"`
	Diagnostics []gedcom.Diagnostic `json:"diagnostics"`
}

// handleParse parses an upload synchronously. Nothing is stored.
//
// Query parameters: format=json|yaml, include=document for the full record
// tree, sources=true to keep SUBM/REPO/SOUR records.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	if !report.ValidFormat(format) {
		jsonError(w, "format must be json or yaml", http.StatusBadRequest)
		return
	}

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.uploadError(w, err)
		return
	}

	opts := []gedcom.Option{gedcom.WithLogger(s.logger(r).With("filename", filename))}
	if s.cfg.ParseSourceRecords || q.Get("sources") == "true" {
		opts = append(opts, gedcom.WithSourceRecords())
	}

	start := time.Now()
	doc, diags, err := gedcom.Parse(bytes.NewReader(data), opts...)
	elapsed := time.Since(start)
	if diags == nil {
		diags = []gedcom.Diagnostic{}
	}
	result := stats.Result{Duration: elapsed, Diagnostics: len(diags), Failed: err != nil}

	if err != nil {
		s.record(result)
		fail := parseFailure{Error: err.Error(), Diagnostics: diags}
		var fatal *gedcom.FatalError
		if errors.As(err, &fatal) {
			fail.Line = fatal.Line
		}
		s.writeEncoded(w, r, format, http.StatusUnprocessableEntity, fail)
		return
	}

	counts := doc.Stats()
	result.Individuals = counts.Individuals
	result.Families = counts.Families
	s.record(result)

	resp := parseResponse{
		Filename:    filename,
		DurationMs:  elapsed.Milliseconds(),
		Stats:       counts,
		Header:      doc.Header,
		Diagnostics: diags,
	}
	if q.Get("include") == "document" {
		resp.Document = doc
	}
	s.writeEncoded(w, r, format, http.StatusOK, resp)
}

func (s *Server) writeEncoded(w http.ResponseWriter, r *http.Request, format string, code int, v any) {
	var buf bytes.Buffer
	if err := report.Encode(&buf, format, v); err != nil {
		s.logger(r).Error("encode response", "format", format, "error", err)
		jsonError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func (s *Server) record(r stats.Result) {
	if s.stats != nil {
		s.stats.Record(r)
	}
}
