package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func TestSplitURL(t *testing.T) {
	tests := []struct {
		raw        string
		wantScheme string
		wantHost   string
		wantErr    bool
	}{
		{"https://abc.weaviate.cloud", "https", "abc.weaviate.cloud", false},
		{"http://localhost:8080", "http", "localhost:8080", false},
		{"abc.weaviate.cloud", "https", "abc.weaviate.cloud", false},
		{"", "", "", true},
		{"http://", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			scheme, host, err := splitURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantHost, host)
		})
	}
}

func TestWeaviateClasses(t *testing.T) {
	s := &WeaviateStore{cols: testCollections, vectorizer: "text2vec-weaviate"}

	chunks := s.chunkClass()
	assert.Equal(t, "PDFchunks", chunks.Class)
	assert.Equal(t, "text2vec-weaviate", chunks.Vectorizer)
	types := map[string]string{}
	for _, p := range chunks.Properties {
		types[p.Name] = p.DataType[0]
	}
	assert.Equal(t, map[string]string{
		PropChunkID:    "int",
		PropDocID:      "uuid",
		PropChunkText:  "text",
		PropDocTitle:   "text",
		PropStartIndex: "int",
		PropEndIndex:   "int",
	}, types)

	for _, p := range chunks.Properties {
		if p.Name == PropChunkText {
			assert.Nil(t, p.ModuleConfig, "chunk text must be vectorized")
		} else {
			assert.NotNil(t, p.ModuleConfig, p.Name)
		}
	}

	papers := s.paperClass()
	assert.Equal(t, "ArxivPDFs", papers.Class)
	assert.Len(t, papers.Properties, 7)
}

func TestParseHits(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]any{
			"PDFchunks": []any{
				map[string]any{
					"chunk_id":   float64(3),
					"doc_id":     "doc-1",
					"chunk_text": "hnsw graphs",
					"doc_title":  "Indexes",
					"_additional": map[string]any{
						"id":       "obj-1",
						"distance": 0.25,
					},
				},
				"garbage",
			},
		},
	}
	hits := parseHits(data, "PDFchunks")
	require.Len(t, hits, 1)
	assert.Equal(t, Hit{
		ObjectID:   "obj-1",
		Collection: "PDFchunks",
		ChunkID:    3,
		DocID:      "doc-1",
		DocTitle:   "Indexes",
		Text:       "hnsw graphs",
		Score:      0.75,
	}, hits[0])

	assert.Empty(t, parseHits(map[string]models.JSONObject{}, "PDFchunks"))
}
