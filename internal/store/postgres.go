package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"paper-rag/internal/chunker"
)

// PostgresStore keeps papers and chunks in Postgres and ranks chunks with
// full-text search.
type PostgresStore struct {
	db   *sql.DB
	cols Collections
}

func NewPostgres(dsn string, cols Collections) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, cols: cols}, nil
}

func (s *PostgresStore) Collections() Collections { return s.cols }

func (s *PostgresStore) Close() error { return s.db.Close() }

// EnsureSchema creates the tables while holding an advisory lock, so
// processes starting together migrate one at a time. The lock belongs to a
// session, so locking, migrating and unlocking share one pinned connection.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const lockID = 424242001

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration connection: %w", err)
	}
	defer conn.Close()

	// Waits for a concurrent migration; the statements below are idempotent.
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id UUID PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			pdf_url TEXT,
			date TEXT,
			authors TEXT[],
			file_path TEXT,
			content TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			doc_id UUID REFERENCES papers(id) ON DELETE CASCADE,
			chunk_id INT,
			chunk_text TEXT,
			doc_title TEXT,
			start_index INT,
			end_index INT
		);`,
		`CREATE INDEX IF NOT EXISTS chunks_doc_id_idx ON chunks (doc_id);`,
		`CREATE INDEX IF NOT EXISTS chunks_text_idx ON chunks USING GIN (to_tsvector('english', chunk_text));`,
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreatePaper(ctx context.Context, p Paper) (string, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO papers(id, title, abstract, pdf_url, date, authors, file_path, content)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, p.Title, p.Abstract, p.PDFURL, p.Date, pq.Array(nonNil(p.Authors)), p.FilePath, p.Content)
	if err != nil {
		return "", fmt.Errorf("failed to create paper: %w", err)
	}
	return id.String(), nil
}

// InsertChunks writes the batch in one transaction, isolating each row in a
// savepoint so a rejected chunk does not abort the rest.
func (s *PostgresStore) InsertChunks(ctx context.Context, docTitle string, chunks []chunker.Chunk) ([]InsertFailure, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var failures []InsertFailure
	for _, c := range chunks {
		docID, err := uuid.Parse(c.DocID)
		if err != nil {
			failures = append(failures, InsertFailure{ChunkID: c.ID, Message: "invalid doc_id: " + err.Error()})
			continue
		}
		if _, err := tx.ExecContext(ctx, `SAVEPOINT chunk_row`); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks(id, doc_id, chunk_id, chunk_text, doc_title, start_index, end_index)
			VALUES($1,$2,$3,$4,$5,$6,$7)`,
			uuid.New(), docID, c.ID, c.Text, docTitle, c.Start, c.End)
		if err != nil {
			failures = append(failures, InsertFailure{ChunkID: c.ID, Message: err.Error()})
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT chunk_row`); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT chunk_row`); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return failures, nil
}

func (s *PostgresStore) GetObject(ctx context.Context, collection, id string) (map[string]any, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	switch collection {
	case s.cols.Papers:
		return s.getPaper(ctx, uid)
	case s.cols.Chunks:
		return s.getChunk(ctx, uid)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
}

func (s *PostgresStore) getPaper(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	var (
		p       Paper
		authors []string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT title, abstract, pdf_url, date, authors, file_path, content
		FROM papers WHERE id=$1`, id)
	err := row.Scan(&p.Title, &p.Abstract, &p.PDFURL, &p.Date, pq.Array(&authors), &p.FilePath, &p.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.cols.Papers, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper %s: %w", id, err)
	}
	p.Authors = authors
	return paperProperties(p), nil
}

func (s *PostgresStore) getChunk(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	var (
		c        chunker.Chunk
		docTitle string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, chunk_text, doc_title, start_index, end_index
		FROM chunks WHERE id=$1`, id)
	err := row.Scan(&c.ID, &c.DocID, &c.Text, &docTitle, &c.Start, &c.End)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.cols.Chunks, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %s: %w", id, err)
	}
	return chunkProperties(docTitle, c), nil
}

// Search ranks chunks with ts_rank over an English text search vector.
func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunk_id, doc_id, doc_title, chunk_text,
			ts_rank(to_tsvector('english', chunk_text), q) AS score
		FROM chunks, plainto_tsquery('english', $1) q
		WHERE to_tsvector('english', chunk_text) @@ q
		ORDER BY score DESC, chunk_id
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		h := Hit{Collection: s.cols.Chunks}
		if err := rows.Scan(&h.ObjectID, &h.ChunkID, &h.DocID, &h.DocTitle, &h.Text, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
