package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

var _ Store = (*VectorStore)(nil)

// VectorStore keeps passage embeddings in memory and ranks by cosine
// similarity.
type VectorStore struct {
	embedder Embedder
	workers  int

	mu       sync.RWMutex
	passages []Passage
	vectors  [][]float32
}

// NewVectorStore creates an empty store that embeds with embedder, running at
// most workers embedding calls at once.
func NewVectorStore(embedder Embedder, workers int) *VectorStore {
	if workers <= 0 {
		workers = 4
	}
	return &VectorStore{embedder: embedder, workers: workers}
}

// Add embeds and stores passages.
func (s *VectorStore) Add(ctx context.Context, passages []Passage) error {
	vectors := make([][]float32, len(passages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range passages {
		g.Go(func() error {
			v, err := s.embedder.Embed(gctx, p.Text)
			if err != nil {
				return fmt.Errorf("retrieval: embed passage %s: %w", p.ID, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages = append(s.passages, passages...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Reset drops every stored passage.
func (s *VectorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages = nil
	s.vectors = nil
	return nil
}

// Search embeds query and returns the k nearest passages.
func (s *VectorStore) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.passages) == 0 {
		return nil, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = scored{idx: i, score: cosine(qv, v)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	k = min(k, len(scores))
	out := make([]Passage, 0, k)
	for _, sc := range scores[:k] {
		out = append(out, s.passages[sc.idx])
	}
	return out, nil
}

// Len returns the number of stored passages.
func (s *VectorStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages), nil
}

// Close is a no-op.
func (s *VectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
