package cases

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// caseDocument is the shape indexed for full-text search.
type caseDocument struct {
	Name       string `json:"name"`
	Dialogue   string `json:"dialogue"`
	EHR        string `json:"ehr"`
	Reasoning  string `json:"reasoning"`
	Conclusion string `json:"conclusion"`
}

// Match is one search hit.
type Match struct {
	// Name is the matched case name.
	Name string

	// Score is the BM25 relevance score, normalized to 0-1.
	Score float32
}

// Index provides keyword search over the case dataset. The index lives
// in memory; the dataset is small and rebuilt on startup.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewIndex builds a search index from all records served by the loader.
func NewIndex(loader Loader) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create case index: %w", err)
	}

	for _, name := range loader.Names() {
		rec, err := loader.Lookup(name)
		if err != nil {
			continue
		}
		doc := caseDocument{
			Name:       rec.Name,
			Dialogue:   rec.Dialogue,
			EHR:        rec.EHR,
			Reasoning:  rec.Reasoning,
			Conclusion: rec.Conclusion,
		}
		if err := index.Index(rec.Name, doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("index case %s: %w", rec.Name, err)
		}
	}

	return &Index{index: index}, nil
}

// buildIndexMapping creates the Bleve index mapping for case documents.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping.AddFieldMappingsAt("name", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("dialogue", textFieldMapping)
	docMapping.AddFieldMappingsAt("ehr", textFieldMapping)
	docMapping.AddFieldMappingsAt("reasoning", textFieldMapping)
	docMapping.AddFieldMappingsAt("conclusion", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Search returns cases whose text fields match the query, best first.
func (ix *Index) Search(query string, limit int) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	searchReq := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	searchReq.Size = limit

	result, err := ix.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("case search: %w", err)
	}

	matches := make([]Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		score := float32(hit.Score)
		if score > 1 {
			score = 1 - (1 / (1 + score))
		}
		matches = append(matches, Match{Name: hit.ID, Score: score})
	}

	return matches, nil
}

// Close releases the underlying index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
