package categorization

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// AliasDocument is one searchable merchant alias: the raw statement form,
// the canonical display name and the default category.
type AliasDocument struct {
	ID        string `json:"id"`
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
	Category  string `json:"category"`
}

// AliasHit is a lookup result with its relevance score.
type AliasHit struct {
	Document AliasDocument
	Score    float64
}

// AliasIndex is a full-text index over merchant aliases, used to
// standardize the merchant label on transactions whose description varies
// between statements. Backed by Bleve; in-memory unless a path is given.
type AliasIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewAliasIndex creates the index, persistent when path is non-empty.
func NewAliasIndex(path string) (*AliasIndex, error) {
	indexMapping := buildAliasMapping()

	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open alias index: %w", err)
	}

	return &AliasIndex{index: index}, nil
}

func buildAliasMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("alias", textFieldMapping)
	docMapping.AddFieldMappingsAt("canonical", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexRules loads every merchant rule pattern as an alias document.
func (ai *AliasIndex) IndexRules(rules []Rule) error {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	batch := ai.index.NewBatch()
	for _, rule := range rules {
		if !rule.IsMerchant {
			continue
		}
		for i, pattern := range rule.Patterns {
			doc := AliasDocument{
				ID:        fmt.Sprintf("%s_%d", rule.CleanName, i),
				Alias:     pattern,
				Canonical: rule.CleanName,
				Category:  rule.Category,
			}
			if err := batch.Index(doc.ID, doc); err != nil {
				return fmt.Errorf("failed to index alias %q: %w", pattern, err)
			}
		}
	}

	if err := ai.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute alias batch: %w", err)
	}
	return nil
}

// Lookup finds the best canonical merchant for a raw name, tolerating one
// edit of typo per token. Returns nil when nothing scores.
func (ai *AliasIndex) Lookup(name string) (*AliasHit, error) {
	hits, err := ai.search(name, 1)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	return &hits[0], nil
}

// Search returns up to limit alias hits for a free-text query.
func (ai *AliasIndex) Search(query string, limit int) ([]AliasHit, error) {
	return ai.search(query, limit)
}

func (ai *AliasIndex) search(query string, limit int) ([]AliasHit, error) {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := ai.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("alias search failed: %w", err)
	}

	hits := make([]AliasHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		doc := AliasDocument{ID: hit.ID}
		if alias, ok := hit.Fields["alias"].(string); ok {
			doc.Alias = alias
		}
		if canonical, ok := hit.Fields["canonical"].(string); ok {
			doc.Canonical = canonical
		}
		if category, ok := hit.Fields["category"].(string); ok {
			doc.Category = category
		}
		hits = append(hits, AliasHit{Document: doc, Score: hit.Score})
	}
	return hits, nil
}

// DocumentCount returns the number of aliases indexed.
func (ai *AliasIndex) DocumentCount() (uint64, error) {
	ai.mu.RLock()
	defer ai.mu.RUnlock()
	return ai.index.DocCount()
}

// Close releases the underlying index.
func (ai *AliasIndex) Close() error {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	if ai.index != nil {
		return ai.index.Close()
	}
	return nil
}
