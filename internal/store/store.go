package store

import (
	"context"
	"errors"
	"strings"

	"paper-rag/internal/chunker"
)

var (
	ErrNotFound          = errors.New("object not found")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Property names shared by every provider.
const (
	PropTitle    = "title"
	PropAbstract = "abstract"
	PropPDFURL   = "pdf_url"
	PropDate     = "date"
	PropAuthors  = "authors"
	PropFilePath = "file_path"
	PropContent  = "content"

	PropChunkID    = "chunk_id"
	PropDocID      = "doc_id"
	PropChunkText  = "chunk_text"
	PropDocTitle   = "doc_title"
	PropStartIndex = "start_index"
	PropEndIndex   = "end_index"
)

// Collections names the paper and chunk collections.
type Collections struct {
	Papers string
	Chunks string
}

// Paper is a source document. ID is assigned by the store.
type Paper struct {
	ID       string
	Title    string
	Abstract string
	PDFURL   string
	Date     string
	Authors  []string
	FilePath string
	Content  string
}

// InsertFailure describes one chunk the backend rejected.
type InsertFailure struct {
	ChunkID int
	Message string
}

// Hit is a chunk returned by Search, best match first.
type Hit struct {
	ObjectID   string
	Collection string
	ChunkID    int
	DocID      string
	DocTitle   string
	Text       string
	Score      float32
}

// Store is the storage and retrieval backend for papers and their chunks.
type Store interface {
	EnsureSchema(ctx context.Context) error
	CreatePaper(ctx context.Context, p Paper) (string, error)
	// InsertChunks writes one batch. Rejected chunks are reported as failures;
	// an error means the batch as a whole could not be sent.
	InsertChunks(ctx context.Context, docTitle string, chunks []chunker.Chunk) ([]InsertFailure, error)
	GetObject(ctx context.Context, collection, id string) (map[string]any, error)
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Collections() Collections
	Close() error
}

func paperProperties(p Paper) map[string]any {
	return map[string]any{
		PropTitle:    p.Title,
		PropAbstract: p.Abstract,
		PropPDFURL:   p.PDFURL,
		PropDate:     p.Date,
		PropAuthors:  strings.Join(p.Authors, ", "),
		PropFilePath: p.FilePath,
		PropContent:  p.Content,
	}
}

func chunkProperties(docTitle string, c chunker.Chunk) map[string]any {
	return map[string]any{
		PropChunkID:    c.ID,
		PropDocID:      c.DocID,
		PropChunkText:  c.Text,
		PropDocTitle:   docTitle,
		PropStartIndex: c.Start,
		PropEndIndex:   c.End,
	}
}
