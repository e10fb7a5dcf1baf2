package retrieval

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

var _ Store = (*LexicalStore)(nil)

// LexicalStore ranks passages with BM25 over an in-memory bleve index. It
// needs no embedding service.
type LexicalStore struct {
	index bleve.Index
}

type passageDocument struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// NewLexicalStore creates an empty in-memory lexical store.
func NewLexicalStore() (*LexicalStore, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("retrieval: create bleve index: %w", err)
	}
	return &LexicalStore{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("source", bleve.NewKeywordFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// Reset replaces the index with an empty one.
func (s *LexicalStore) Reset(_ context.Context) error {
	n, err := s.index.DocCount()
	if err != nil {
		return fmt.Errorf("retrieval: doc count: %w", err)
	}
	if n == 0 {
		return nil
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("retrieval: create bleve index: %w", err)
	}
	old := s.index
	s.index = idx
	return old.Close()
}

// Add indexes passages in a single batch.
func (s *LexicalStore) Add(_ context.Context, passages []Passage) error {
	batch := s.index.NewBatch()
	for _, p := range passages {
		if err := batch.Index(p.ID, passageDocument{Source: p.Source, Content: p.Text}); err != nil {
			return fmt.Errorf("retrieval: index passage %s: %w", p.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("retrieval: index batch: %w", err)
	}
	return nil
}

// Search runs a match query against passage content.
func (s *LexicalStore) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("content")

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"content", "source"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: bleve search: %w", err)
	}

	out := make([]Passage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		content, _ := hit.Fields["content"].(string)
		source, _ := hit.Fields["source"].(string)
		out = append(out, Passage{ID: hit.ID, Source: source, Text: content})
	}
	return out, nil
}

// Len returns the number of indexed passages.
func (s *LexicalStore) Len(_ context.Context) (int, error) {
	n, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("retrieval: doc count: %w", err)
	}
	return int(n), nil
}

// Close releases the index.
func (s *LexicalStore) Close() error {
	return s.index.Close()
}
