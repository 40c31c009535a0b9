package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-rag/internal/chunker"
)

var testCollections = Collections{Papers: "ArxivPDFs", Chunks: "PDFchunks"}

// keywordEmbedding counts a few topic words; the constant last dimension
// keeps every vector non-zero.
func keywordEmbedding(_ context.Context, text string) ([]float32, error) {
	topics := []string{"graph", "index", "protein", "quantum"}
	vec := make([]float32, len(topics)+1)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		for i, t := range topics {
			if strings.Trim(w, ".,") == t {
				vec[i]++
			}
		}
	}
	vec[len(topics)] = 0.1
	return vec, nil
}

func newTestMemory(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemory(testCollections, keywordEmbedding)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestMemoryStorePaperRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestMemory(t)

	id, err := s.CreatePaper(ctx, Paper{
		Title:    "Graph Indexes",
		Abstract: "A study of graph index structures.",
		PDFURL:   "http://arxiv.org/pdf/1",
		Date:     "2024-01-05 10:20:30+00:00",
		Authors:  []string{"Ada", "Alan"},
		FilePath: "pdfs/1.pdf",
		Content:  "full text",
	})
	require.NoError(t, err)

	props, err := s.GetObject(ctx, testCollections.Papers, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		PropTitle:    "Graph Indexes",
		PropAbstract: "A study of graph index structures.",
		PropPDFURL:   "http://arxiv.org/pdf/1",
		PropDate:     "2024-01-05 10:20:30+00:00",
		PropAuthors:  "Ada, Alan",
		PropFilePath: "pdfs/1.pdf",
		PropContent:  "full text",
	}, props)
}

func TestMemoryStoreChunksAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestMemory(t)

	docID, err := s.CreatePaper(ctx, Paper{Title: "Mixed"})
	require.NoError(t, err)

	chunks := []chunker.Chunk{
		{ID: 0, DocID: docID, Text: "graph graph index", Start: 0, End: 17},
		{ID: 1, DocID: docID, Text: "protein folding", Start: 18, End: 33},
		{ID: 2, DocID: docID, Text: "quantum index", Start: 34, End: 47},
	}
	failures, err := s.InsertChunks(ctx, "Mixed", chunks)
	require.NoError(t, err)
	assert.Empty(t, failures)

	hits, err := s.Search(ctx, "graph", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3, "limit is capped at the collection size")
	assert.Equal(t, "graph graph index", hits[0].Text)
	assert.Equal(t, 0, hits[0].ChunkID)
	assert.Equal(t, docID, hits[0].DocID)
	assert.Equal(t, "Mixed", hits[0].DocTitle)
	assert.Equal(t, testCollections.Chunks, hits[0].Collection)

	props, err := s.GetObject(ctx, testCollections.Chunks, hits[0].ObjectID)
	require.NoError(t, err)
	assert.Equal(t, 0, props[PropChunkID])
	assert.Equal(t, 17, props[PropEndIndex])
	assert.Equal(t, docID, props[PropDocID])

	top, err := s.Search(ctx, "protein", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "protein folding", top[0].Text)
}

func TestMemoryStoreSearchEmpty(t *testing.T) {
	s := newTestMemory(t)
	hits, err := s.Search(context.Background(), "graph", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStoreGetObjectErrors(t *testing.T) {
	s := newTestMemory(t)
	_, err := s.GetObject(context.Background(), testCollections.Papers, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetObject(context.Background(), "Other", "x")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
