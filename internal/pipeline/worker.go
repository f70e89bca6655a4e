package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/stats"
	"github.com/dgallion1/gedgest/internal/store"
)

// DocumentStore is the persistence the worker needs.
type DocumentStore interface {
	FindByHash(ctx context.Context, hash string) (string, bool, error)
	SaveDocument(ctx context.Context, doc *store.StoredDocument) error
}

// Worker processes a single GEDCOM job.
type Worker struct {
	store         DocumentStore
	exporter      *Exporter
	stats         *stats.ParseStats
	log           *slog.Logger
	sourceRecords bool
}

// NewWorker creates a worker. exporter may be nil to skip pathstore export.
func NewWorker(st DocumentStore, exporter *Exporter, ps *stats.ParseStats, log *slog.Logger, sourceRecords bool) *Worker {
	return &Worker{
		store:         st,
		exporter:      exporter,
		stats:         ps,
		log:           log,
		sourceRecords: sourceRecords,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	data := job.FileData()

	// Phase 1: Dedup on raw bytes.
	hash := ContentHashHex(data)
	if !job.Force {
		existing, found, err := w.store.FindByHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetParsed(0, 0, 0, hash)
			job.SetDuplicateOf(existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			job.releaseFileData()
			return
		}
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	opts := []gedcom.Option{gedcom.WithLogger(log)}
	if w.sourceRecords {
		opts = append(opts, gedcom.WithSourceRecords())
	}
	start := time.Now()
	doc, diags, err := gedcom.Parse(bytes.NewReader(data), opts...)
	result := stats.Result{Duration: time.Since(start), Diagnostics: len(diags), Failed: err != nil}
	if err != nil {
		w.record(result)
		log.Error("parse failed", "error", err)
		job.SetParsed(0, 0, len(diags), hash)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		job.releaseFileData()
		return
	}
	counts := doc.Stats()
	result.Individuals = counts.Individuals
	result.Families = counts.Families
	w.record(result)
	job.SetParsed(counts.Individuals, counts.Families, len(diags), hash)
	log.Info("parsed document", "individuals", counts.Individuals, "families", counts.Families, "diagnostics", len(diags))

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	err = w.store.SaveDocument(ctx, &store.StoredDocument{
		Meta: store.DocumentMeta{
			ID:          job.DocID,
			Filename:    job.Filename,
			Title:       job.Title,
			ContentHash: hash,
			CreatedAt:   job.CreatedAt,
		},
		Document:    doc,
		Diagnostics: diags,
	})
	job.releaseFileData()
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	if w.exporter == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 4: Export to pathstore. The document is already durable, so
	// export failures only downgrade the job to partial.
	job.SetStatus(StatusExporting, "exporting")
	res, err := w.exporter.Export(ctx, job.DocID, doc)
	job.AddExported(res.Nodes, res.Links)
	if res.Dangling > 0 {
		log.Warn("family members without a matching individual", "count", res.Dangling)
	}
	if err != nil {
		log.Error("export failed", "nodes", res.Nodes, "links", res.Links, "error", err)
		job.AddError(fmt.Sprintf("export: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}
	log.Info("export complete", "nodes", res.Nodes, "links", res.Links)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) record(r stats.Result) {
	if w.stats != nil {
		w.stats.Record(r)
	}
}
