package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var _ Store = (*PGVectorStore)(nil)

// DefaultPGTable is the table PGVectorStore writes passages to.
const DefaultPGTable = "transmute_passages"

// PGVectorStore persists passage embeddings in Postgres with the pgvector
// extension. The table outlives the process; Reset truncates it so a
// rebuild serves only the current corpus.
type PGVectorStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
	table    string
}

// NewPGVectorStore connects to databaseURL and ensures the passage table
// exists with vectors of dimension dim.
func NewPGVectorStore(ctx context.Context, databaseURL string, embedder Embedder, dim int) (*PGVectorStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("retrieval: connect to postgres: %w", err)
	}

	s := &PGVectorStore{pool: pool, embedder: embedder, table: DefaultPGTable}
	if err := s.migrate(ctx, dim); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGVectorStore) migrate(ctx context.Context, dim int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			source    TEXT NOT NULL,
			content   TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, pgx.Identifier{s.table}.Sanitize(), dim),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("retrieval: migrate pgvector store: %w", err)
		}
	}
	return nil
}

// Reset truncates the passage table.
func (s *PGVectorStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", pgx.Identifier{s.table}.Sanitize())); err != nil {
		return fmt.Errorf("retrieval: truncate passages: %w", err)
	}
	return nil
}

// Add embeds and upserts passages.
func (s *PGVectorStore) Add(ctx context.Context, passages []Passage) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, source, content, embedding) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET source = EXCLUDED.source, content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
		pgx.Identifier{s.table}.Sanitize())

	for _, p := range passages {
		emb, err := s.embedder.Embed(ctx, p.Text)
		if err != nil {
			return fmt.Errorf("retrieval: embed passage %s: %w", p.ID, err)
		}
		if _, err := s.pool.Exec(ctx, query, p.ID, p.Source, p.Text, pgvector.NewVector(emb)); err != nil {
			return fmt.Errorf("retrieval: insert passage %s: %w", p.ID, err)
		}
	}
	return nil
}

// Search returns the k passages nearest to query by L2 distance.
func (s *PGVectorStore) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT id, source, content FROM %s ORDER BY embedding <-> $1 LIMIT $2",
			pgx.Identifier{s.table}.Sanitize()),
		pgvector.NewVector(emb), k)
	if err != nil {
		return nil, fmt.Errorf("retrieval: query failed: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.ID, &p.Source, &p.Text); err != nil {
			return nil, fmt.Errorf("retrieval: scan passage: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Len counts stored passages.
func (s *PGVectorStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{s.table}.Sanitize())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("retrieval: count passages: %w", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}
