package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/gedgest/internal/gedtree"
	"github.com/dgallion1/gedgest/internal/pathstore"
)

// NodeWriter is the subset of the pathstore client used for export.
type NodeWriter interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	PutLink(ctx context.Context, req pathstore.LinkRequest) error
	DeleteNode(ctx context.Context, key string, recursive bool) error
}

// ExportResult counts what an export wrote.
type ExportResult struct {
	Nodes    int
	Links    int
	Dangling int
}

// Exporter mirrors a parsed document into pathstore: one node per
// individual and family, plus a link from each member to their family.
type Exporter struct {
	ps       NodeWriter
	log      *slog.Logger
	maxStore int
	backoff  func(int) time.Duration
}

func NewExporter(ps NodeWriter, log *slog.Logger, maxConcurrentStore int) *Exporter {
	if maxConcurrentStore <= 0 {
		maxConcurrentStore = 1
	}
	return &Exporter{
		ps:       ps,
		log:      log,
		maxStore: maxConcurrentStore,
		backoff:  Backoff,
	}
}

// DocumentPrefix is the pathstore key under which a document is exported.
func DocumentPrefix(docID string) string {
	return "genealogy/documents/" + docID
}

type exportWrite struct {
	key  string
	node *pathstore.NodeRequest
	link *pathstore.LinkRequest
}

// Export writes the document. Individual write failures are collected and
// returned together; successful writes are still counted.
func (e *Exporter) Export(ctx context.Context, docID string, doc *gedtree.Document) (ExportResult, error) {
	prefix := DocumentPrefix(docID)
	source := "gedgest:" + docID
	var res ExportResult

	indiKeys := keysFor(prefix+"/individuals", len(doc.Individuals), func(i int) string { return doc.Individuals[i].Xref })
	famKeys := keysFor(prefix+"/families", len(doc.Families), func(i int) string { return doc.Families[i].Xref })

	// First record wins for lookups, matching Document.Individual.
	byXref := make(map[string]string, len(doc.Individuals))
	for i, indi := range doc.Individuals {
		if _, ok := byXref[indi.Xref]; !ok && indi.Xref != "" {
			byXref[indi.Xref] = indiKeys[i]
		}
	}

	stats := doc.Stats()
	nodes := []exportWrite{{
		key: prefix + "/meta",
		node: &pathstore.NodeRequest{
			Value: map[string]any{
				"gedcom_version": doc.Header.GedcomVersion,
				"encoding":       doc.Header.Encoding,
				"filename":       doc.Header.Filename,
				"individuals":    stats.Individuals,
				"families":       stats.Families,
			},
			MemoryType: "metacognitive",
			Salience:   0.5,
			Source:     source,
		},
	}}
	for i, indi := range doc.Individuals {
		nodes = append(nodes, exportWrite{key: indiKeys[i], node: &pathstore.NodeRequest{
			Value:      individualValue(indi),
			MemoryType: "semantic",
			Salience:   0.6,
			Source:     source,
		}})
	}
	for i, fam := range doc.Families {
		nodes = append(nodes, exportWrite{key: famKeys[i], node: &pathstore.NodeRequest{
			Value:      familyValue(fam),
			MemoryType: "semantic",
			Salience:   0.5,
			Source:     source,
		}})
	}

	var links []exportWrite
	addLink := func(member, famKey, summary string, weight float64) {
		if member == "" {
			return
		}
		from, ok := byXref[member]
		if !ok {
			res.Dangling++
			return
		}
		links = append(links, exportWrite{key: from, link: &pathstore.LinkRequest{
			From:          from,
			To:            famKey,
			Weight:        weight,
			Summary:       summary,
			Bidirectional: true,
		}})
	}
	for i, fam := range doc.Families {
		addLink(fam.Individual1, famKeys[i], "spouse", 1.0)
		addLink(fam.Individual2, famKeys[i], "spouse", 1.0)
		for _, child := range fam.Children {
			addLink(child, famKeys[i], "child", 0.8)
		}
	}

	// Links need both endpoints, so nodes go first.
	n, nodeErr := e.run(ctx, nodes)
	res.Nodes = n
	if nodeErr != nil {
		return res, nodeErr
	}
	l, linkErr := e.run(ctx, links)
	res.Links = l
	return res, linkErr
}

// Remove deletes everything exported for docID.
func (e *Exporter) Remove(ctx context.Context, docID string) error {
	return withRetry(ctx, e.backoff, func() error {
		return e.ps.DeleteNode(ctx, DocumentPrefix(docID), true)
	})
}

func (e *Exporter) run(ctx context.Context, writes []exportWrite) (int, error) {
	sem := make(chan struct{}, e.maxStore)
	var (
		mu      sync.Mutex
		written int
		errs    []error
		wg      sync.WaitGroup
	)
	for _, w := range writes {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return written, ctx.Err()
		}
		wg.Add(1)
		go func(w exportWrite) {
			defer wg.Done()
			defer func() { <-sem }()
			err := withRetry(ctx, e.backoff, func() error {
				if w.link != nil {
					return e.ps.PutLink(ctx, *w.link)
				}
				return e.ps.PutNode(ctx, w.key, *w.node)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.log.Warn("export write failed", "key", w.key, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", w.key, err))
				return
			}
			written++
		}(w)
	}
	wg.Wait()
	return written, errors.Join(errs...)
}

// keysFor assigns one pathstore key per record. Records without an xref, or
// whose xref repeats an earlier one, are keyed by position instead.
func keysFor(prefix string, n int, xref func(int) string) []string {
	keys := make([]string, n)
	seen := make(map[string]bool, n)
	for i := range n {
		slug := pathstore.Slugify(xref(i))
		if slug == "" || seen[slug] {
			slug = fmt.Sprintf("n%d", i)
			for j := 1; seen[slug]; j++ {
				slug = fmt.Sprintf("n%d-%d", i, j)
			}
		}
		seen[slug] = true
		keys[i] = prefix + "/" + slug
	}
	return keys
}

func individualValue(indi *gedtree.Individual) map[string]any {
	v := map[string]any{
		"xref": indi.Xref,
		"name": indi.Name.Display(),
		"sex":  indi.Sex.String(),
	}
	if e := indi.FirstEvent(gedtree.EventBirth); e != nil {
		v["birth"] = map[string]any{"date": e.Date, "place": e.Place}
	}
	if e := indi.FirstEvent(gedtree.EventDeath); e != nil {
		v["death"] = map[string]any{"date": e.Date, "place": e.Place}
	}
	if len(indi.Notes) > 0 {
		v["notes"] = indi.Notes
	}
	return v
}

func familyValue(fam *gedtree.Family) map[string]any {
	v := map[string]any{
		"xref":     fam.Xref,
		"children": fam.Children,
	}
	if fam.Individual1 != "" {
		v["individual1"] = fam.Individual1
	}
	if fam.Individual2 != "" {
		v["individual2"] = fam.Individual2
	}
	for _, e := range fam.Events {
		if e.Kind == gedtree.EventMarriage {
			v["marriage"] = map[string]any{"date": e.Date, "place": e.Place}
			break
		}
	}
	return v
}
