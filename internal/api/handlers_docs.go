package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/gedgest/internal/report"
	"github.com/dgallion1/gedgest/internal/store"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleListDocuments lists stored documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	offset := queryInt(r, "offset", 0, -1)

	docs, err := s.store.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.DocumentMeta{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": docs,
		"limit":     limit,
		"offset":    offset,
	})
}

// handleGetDocument returns the full stored document as JSON or YAML.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	if !report.ValidFormat(format) {
		jsonError(w, "format must be json or yaml", http.StatusBadRequest)
		return
	}

	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	s.writeEncoded(w, r, format, http.StatusOK, doc)
}

// handleSearchIndividuals finds individuals in one document by name.
func (s *Server) handleSearchIndividuals(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		s.storeError(w, r, err)
		return
	}

	rows, err := s.store.SearchIndividuals(ctx, docID, r.URL.Query().Get("q"), queryInt(r, "limit", 100, 1000))
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []store.IndividualRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"individuals": rows})
}

// handleReport renders the family report as an HTML page.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	page, err := report.HTML(report.Summarize(reportTitle(doc.Meta), doc.Document, doc.Diagnostics))
	if err != nil {
		s.logger(r).Error("render report", "doc_id", doc.Meta.ID, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleReportDOCX returns the family report as a Word document.
func (s *Server) handleReportDOCX(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteDOCX(&buf, report.Summarize(reportTitle(doc.Meta), doc.Document, doc.Diagnostics)); err != nil {
		s.logger(r).Error("render docx", "doc_id", doc.Meta.ID, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Meta.ID+".docx"))
	w.Write(buf.Bytes())
}

// handleDeleteDocument deletes a document and, when export is enabled, its
// pathstore subtree.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		s.storeError(w, r, err)
		return
	}

	exportRemoved := false
	if exp := s.orchestrator.Exporter(); exp != nil {
		if err := exp.Remove(ctx, docID); err != nil {
			s.logger(r).Warn("failed to remove exported nodes", "doc_id", docID, "error", err)
		} else {
			exportRemoved = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":         docID,
		"deleted":        true,
		"export_removed": exportRemoved,
	})
}

func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (*store.StoredDocument, bool) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.storeError(w, r, err)
		return nil, false
	}
	return doc, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.logger(r).Error("store error", "error", err)
	jsonError(w, "storage error", http.StatusInternalServerError)
}

func reportTitle(meta store.DocumentMeta) string {
	if meta.Title != "" {
		return meta.Title
	}
	if meta.Filename != "" {
		return meta.Filename
	}
	return meta.ID
}

// queryInt reads a non-negative integer parameter. upper < 0 means unbounded.
func queryInt(r *http.Request, key string, fallback, upper int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return fallback
	}
	if upper >= 0 && n > upper {
		return upper
	}
	return n
}
