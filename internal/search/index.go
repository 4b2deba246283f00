// Package search provides full-text search over saved highlights.
//
// The index is derived data. It lives in memory and is brought in line with
// the stored collection by Sync before each query, so several processes can
// search the same collection without sharing an on-disk index.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hpungsan/hilite/internal/highlight"
)

// Index wraps a Bleve search index
type Index struct {
	mu    sync.Mutex
	index bleve.Index
}

// IndexedHighlight is the document stored for each highlight. The json
// names are the field names usable in queries ("domain:example.com").
type IndexedHighlight struct {
	Text    string `json:"text"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Domain  string `json:"domain"`
	URL     string `json:"url"`
}

// Result is one search hit.
type Result struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"` // Highlighted snippets
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping uses the English analyzer for prose fields so that
// stems match ("running" finds "run").
func buildIndexMapping() mapping.IndexMapping {
	prose := bleve.NewTextFieldMapping()
	prose.Analyzer = "en"

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("text", prose)
	docMapping.AddFieldMappingsAt("title", prose)
	docMapping.AddFieldMappingsAt("summary", prose)
	docMapping.AddFieldMappingsAt("domain", keyword)
	docMapping.AddFieldMappingsAt("url", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// Sync makes the index hold exactly hs: stale documents are removed and
// every highlight is (re)indexed in one batch.
func (i *Index) Sync(hs []highlight.Highlight) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	existing, err := i.ids()
	if err != nil {
		return err
	}

	batch := i.index.NewBatch()
	keep := make(map[string]bool, len(hs))
	for _, h := range hs {
		keep[h.ID] = true
		doc := IndexedHighlight{
			Text:   h.Text,
			Title:  h.Title,
			Domain: h.Domain,
			URL:    h.URL,
		}
		if h.Summary != nil {
			doc.Summary = *h.Summary
		}
		if err := batch.Index(h.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", h.ID, err)
		}
	}
	for _, id := range existing {
		if !keep[id] {
			batch.Delete(id)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ids lists every document id currently in the index.
func (i *Index) ids() ([]string, error) {
	count, err := i.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, hit.ID)
	}
	return out, nil
}

// Search runs a query-string query (quotes, +/-, field:term, fuzzy ~)
// and returns the best limit hits with highlighted fragments.
func (i *Index) Search(queryStr string, limit int) ([]*Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	query := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]*Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, &Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		})
	}
	return results, nil
}

// Count returns the number of documents in the index
func (i *Index) Count() (uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.DocCount()
}
