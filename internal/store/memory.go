package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"paper-rag/internal/chunker"
)

// MemoryStore is an in-process store backed by chromem-go. Documents are
// embedded with the supplied function and ranked by cosine similarity.
type MemoryStore struct {
	db     *chromem.DB
	papers *chromem.Collection
	chunks *chromem.Collection
	cols   Collections
}

func NewMemory(cols Collections, embed chromem.EmbeddingFunc) (*MemoryStore, error) {
	db := chromem.NewDB()
	papers, err := db.GetOrCreateCollection(cols.Papers, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", cols.Papers, err)
	}
	chunks, err := db.GetOrCreateCollection(cols.Chunks, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", cols.Chunks, err)
	}
	return &MemoryStore{db: db, papers: papers, chunks: chunks, cols: cols}, nil
}

func (s *MemoryStore) Collections() Collections { return s.cols }

func (s *MemoryStore) Close() error { return nil }

// EnsureSchema is a no-op; collections are created by NewMemory.
func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) CreatePaper(ctx context.Context, p Paper) (string, error) {
	id := uuid.NewString()
	summary := strings.TrimSpace(p.Title + "\n" + p.Abstract)
	if summary == "" {
		summary = id
	}
	doc := chromem.Document{
		ID:       id,
		Content:  summary,
		Metadata: stringify(paperProperties(p)),
	}
	if err := s.papers.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create paper: %w", err)
	}
	return id, nil
}

func (s *MemoryStore) InsertChunks(ctx context.Context, docTitle string, chunks []chunker.Chunk) ([]InsertFailure, error) {
	var failures []InsertFailure
	for _, c := range chunks {
		doc := chromem.Document{
			ID:       uuid.NewString(),
			Content:  c.Text,
			Metadata: stringify(chunkProperties(docTitle, c)),
		}
		if err := s.chunks.AddDocument(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures = append(failures, InsertFailure{ChunkID: c.ID, Message: err.Error()})
		}
	}
	return failures, nil
}

func (s *MemoryStore) GetObject(ctx context.Context, collection, id string) (map[string]any, error) {
	var coll *chromem.Collection
	switch collection {
	case s.cols.Papers:
		coll = s.papers
	case s.cols.Chunks:
		coll = s.chunks
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	doc, err := coll.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return unstringify(doc.Metadata), nil
}

func (s *MemoryStore) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	n := min(limit, s.chunks.Count())
	if n <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	results, err := s.chunks.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		chunkID, _ := strconv.Atoi(r.Metadata[PropChunkID])
		hits = append(hits, Hit{
			ObjectID:   r.ID,
			Collection: s.cols.Chunks,
			ChunkID:    chunkID,
			DocID:      r.Metadata[PropDocID],
			DocTitle:   r.Metadata[PropDocTitle],
			Text:       r.Content,
			Score:      r.Similarity,
		})
	}
	return hits, nil
}

var intProps = map[string]bool{PropChunkID: true, PropStartIndex: true, PropEndIndex: true}

func stringify(props map[string]any) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func unstringify(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if intProps[k] {
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
				continue
			}
		}
		out[k] = v
	}
	return out
}
