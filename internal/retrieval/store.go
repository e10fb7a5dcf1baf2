package retrieval

import (
	"context"
	"fmt"
)

// Passage is one indexed window of a corpus document.
type Passage struct {
	ID     string
	Source string
	Text   string
}

// Store is a similarity search backend for passages.
type Store interface {
	// Reset removes every stored passage. Build calls it before Add.
	Reset(ctx context.Context) error

	// Add indexes passages. It is only called while the index is built.
	Add(ctx context.Context, passages []Passage) error

	// Search returns up to k passages most similar to query, best first.
	Search(ctx context.Context, query string, k int) ([]Passage, error)

	// Len reports the number of indexed passages.
	Len(ctx context.Context) (int, error)

	Close() error
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// toPassages chunks documents into passages with stable IDs.
func toPassages(docs []Document, size, overlap int) []Passage {
	var out []Passage
	for _, d := range docs {
		for i, c := range Chunk(d.Text, size, overlap) {
			out = append(out, Passage{
				ID:     fmt.Sprintf("%s#%d", d.Source, i),
				Source: d.Source,
				Text:   c,
			})
		}
	}
	return out
}
