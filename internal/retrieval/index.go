// Package retrieval builds the read-only reference index that stages query
// for context.
//
// The index is built once from a corpus directory, chunked into overlapping
// windows and loaded into a Store backend. An index with no passages answers
// every query with Sentinel.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/metrics"
)

// Sentinel is returned by Query when the index holds no matching passage.
const Sentinel = "No documentation available."

// DefaultK is the number of passages returned when k is not positive.
const DefaultK = 3

// Retriever answers context queries. Implementations never return an error
// for a miss; they return Sentinel instead.
type Retriever interface {
	Query(ctx context.Context, text string, k int) (string, error)
}

// Compile-time interface checks.
var (
	_ Retriever = (*Index)(nil)
	_ Retriever = (*Provider)(nil)
)

// Options configures Build.
type Options struct {
	ChunkSize int

	// ChunkOverlap is the overlap between windows. Zero disables overlap;
	// a negative value selects DefaultChunkOverlap.
	ChunkOverlap int

	// Store receives the passages. Defaults to a new LexicalStore.
	Store Store

	Logger  logr.Logger
	Metrics *metrics.Metrics
}

// Index is an immutable, built retrieval index.
type Index struct {
	store   Store
	size    int
	metrics *metrics.Metrics
}

// Empty returns an index with no passages.
func Empty() *Index {
	return &Index{}
}

// Build loads the corpus under dir into a new index. A missing directory or a
// corpus without text yields an empty index. The store is cleared before the
// corpus is added, so passages of an earlier build never survive. Build owns
// opts.Store: it is closed when Build fails, otherwise by Index.Close.
func Build(ctx context.Context, dir string, opts Options) (idx *Index, err error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	log := opts.Logger

	store := opts.Store
	defer func() {
		if err != nil && store != nil {
			if cerr := store.Close(); cerr != nil {
				log.Error(cerr, "closing retrieval store after failed build")
			}
		}
	}()

	docs, err := LoadCorpus(ctx, dir, log)
	if err != nil {
		return nil, err
	}
	passages := toPassages(docs, opts.ChunkSize, opts.ChunkOverlap)

	if store == nil {
		store, err = NewLexicalStore()
		if err != nil {
			return nil, err
		}
	}

	if err := store.Reset(ctx); err != nil {
		return nil, err
	}
	if len(passages) > 0 {
		if err := store.Add(ctx, passages); err != nil {
			return nil, err
		}
	}

	size, err := store.Len(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("retrieval index built", "dir", dir, "documents", len(docs), "passages", size)
	opts.Metrics.SetIndexedChunks(size)

	return &Index{store: store, size: size, metrics: opts.Metrics}, nil
}

// Len returns the number of indexed passages.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.size
}

// Query returns the newline-joined text of the k passages most similar to
// text, or Sentinel when there is nothing to return.
func (i *Index) Query(ctx context.Context, text string, k int) (string, error) {
	if i.Len() == 0 {
		i.observe(metrics.OutcomeSentinel)
		return Sentinel, nil
	}
	if k <= 0 {
		k = DefaultK
	}

	hits, err := i.store.Search(ctx, text, k)
	if err != nil {
		i.observe(metrics.OutcomeError)
		return "", fmt.Errorf("retrieval: query %q: %w", text, err)
	}
	if len(hits) == 0 {
		i.observe(metrics.OutcomeSentinel)
		return Sentinel, nil
	}

	texts := make([]string, len(hits))
	for n, h := range hits {
		texts[n] = h.Text
	}
	i.observe(metrics.OutcomeHit)
	return strings.Join(texts, "\n"), nil
}

func (i *Index) observe(outcome string) {
	if i == nil {
		return
	}
	i.metrics.ObserveRetrieval(outcome)
}

// Close releases the backing store.
func (i *Index) Close() error {
	if i == nil || i.store == nil {
		return nil
	}
	return i.store.Close()
}
