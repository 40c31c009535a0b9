package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paper-rag/internal/arxiv"
	"paper-rag/internal/config"
	"paper-rag/internal/ingest"
	"paper-rag/internal/queue"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1603.09320v4</id>
    <updated>2018-08-14T00:00:00Z</updated>
    <title>Efficient and robust approximate nearest neighbor search</title>
    <summary>HNSW graphs.</summary>
    <author><name>Yu. A. Malkov</name></author>
    <link title="pdf" href="%s/pdf/1603.09320v4" rel="related" type="application/pdf"/>
  </entry>
</feed>`

func TestApplyOverrides(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"download"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{
		"--query", "graph index", "--max-results", "3", "--dir", "/tmp/papers",
		"--strategy", "fixed", "--chunk-size", "120", "--overlap", "0.1",
	}))

	cfg := config.Config{ArxivQuery: "vector database", ArxivMaxResults: 25, DownloadDir: "pdfs", StoreProvider: "weaviate"}
	applyOverrides(cmd, &cfg)

	assert.Equal(t, "graph index", cfg.ArxivQuery)
	assert.Equal(t, 3, cfg.ArxivMaxResults)
	assert.Equal(t, "/tmp/papers", cfg.DownloadDir)
	assert.Equal(t, "fixed", cfg.ChunkStrategy)
	assert.Equal(t, 120, cfg.ChunkSize)
	assert.Equal(t, 0.1, cfg.ChunkOverlapFraction)
	assert.Equal(t, "weaviate", cfg.StoreProvider, "unset flags keep config values")
}

func TestDownloadCommand(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/query":
			fmt.Fprintf(w, feed, srv.URL)
		case "/pdf/1603.09320v4":
			w.Write([]byte("%PDF-1.4 fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Setenv("ARXIV_URL", srv.URL+"/api/query")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"download", "--dir", dir, "--max-results", "1"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var papers []arxiv.Paper
	require.NoError(t, json.Unmarshal(out.Bytes(), &papers))
	require.Len(t, papers, 1)
	assert.Equal(t, filepath.Join(dir, "1603.09320v4.pdf"), papers[0].FilePath)

	body, err := os.ReadFile(papers[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(body))
}

func TestAskRequiresQuestion(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ask"})
	assert.Error(t, root.Execute())
}

func TestLocalSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "notes.bin", filepath.Join("sub", "c.PDF")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	sources, err := localSources(dir)
	require.NoError(t, err)
	assert.Equal(t, []ingest.Source{
		{FilePath: filepath.Join(dir, "a.md")},
		{FilePath: filepath.Join(dir, "b.txt")},
		{FilePath: filepath.Join(dir, "sub", "c.PDF")},
	}, sources)

	_, err = localSources(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestEnqueuePapers(t *testing.T) {
	papers := []arxiv.Paper{{Title: "A"}, {Title: "B"}}

	q := new(queue.MockQueue)
	q.On("Enqueue", mock.Anything, mock.MatchedBy(func(task queue.Task) bool {
		var p arxiv.Paper
		return task.Type == queue.TaskTypeIngest && task.Decode(&p) == nil && p.Title != ""
	})).Return(nil).Twice()
	q.On("Close").Return(nil).Once()

	n, err := enqueuePapers(context.Background(), q, papers)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	q.AssertExpectations(t)

	failing := new(queue.MockQueue)
	failing.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("no responders"))
	failing.On("Close").Return(nil).Once()
	n, err = enqueuePapers(context.Background(), failing, papers)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	failing.AssertExpectations(t)

	unflushed := new(queue.MockQueue)
	unflushed.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Twice()
	unflushed.On("Close").Return(errors.New("connection closed")).Once()
	n, err = enqueuePapers(context.Background(), unflushed, papers)
	assert.EqualError(t, err, "connection closed")
	assert.Equal(t, 0, n)
	unflushed.AssertExpectations(t)
}
