package arxiv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v2</id>
    <updated>2024-01-05T10:20:30Z</updated>
    <title>Vector Databases:
      A Survey</title>
    <summary>  We survey vector
    databases.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2401.00001v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="%[1]s/pdf/2401.00001v2" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <updated>1999-01-01T00:00:00Z</updated>
    <title>Old Style Identifier</title>
    <summary>Legacy.</summary>
    <author><name>Someone</name></author>
  </entry>
</feed>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearch(t *testing.T) {
	var gotQuery string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, feedTemplate, srv.URL)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/query", srv.Client(), discardLogger())
	papers, err := c.Search(context.Background(), "vector database", 25)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Contains(t, gotQuery, "search_query=all%3Avector+database")
	assert.Contains(t, gotQuery, "max_results=25")
	assert.Contains(t, gotQuery, "sortBy=relevance")

	assert.Equal(t, Paper{
		EntryID:  "http://arxiv.org/abs/2401.00001v2",
		Title:    "Vector Databases: A Survey",
		Abstract: "We survey vector databases.",
		PDFURL:   srv.URL + "/pdf/2401.00001v2",
		Date:     "2024-01-05 10:20:30+00:00",
		Authors:  []string{"Ada Lovelace", "Alan Turing"},
	}, papers[0])

	assert.Equal(t, "http://arxiv.org/pdf/hep-th/9901001v1", papers[1].PDFURL)
	assert.Equal(t, "9901001v1.pdf", papers[1].FileName())
}

func TestSearchLimitsResults(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feedTemplate, srv.URL)
	}))
	defer srv.Close()

	papers, err := NewClient(srv.URL, srv.Client(), discardLogger()).Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"bad status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"bad body", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "<feed><entry>") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(srv.URL, srv.Client(), discardLogger()).Search(context.Background(), "q", 5)
			assert.Error(t, err)
		})
	}
}

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "%PDF-1.4 "+r.URL.Path)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "pdfs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	existing := filepath.Join(dir, "2401.00003v1.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("cached"), 0o644))

	papers := []Paper{
		{EntryID: "http://arxiv.org/abs/2401.00001v1", Title: "one", PDFURL: srv.URL + "/pdf/one"},
		{EntryID: "http://arxiv.org/abs/2401.00002v1", Title: "two", PDFURL: srv.URL + "/missing"},
		{EntryID: "http://arxiv.org/abs/2401.00003v1", Title: "three", PDFURL: srv.URL + "/pdf/three"},
		{EntryID: "http://arxiv.org/abs/2401.00004v1", Title: "four", PDFURL: srv.URL + "/pdf/four"},
	}

	c := NewClient(srv.URL, srv.Client(), discardLogger())
	got, err := c.Download(context.Background(), papers, dir, 2)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"one", "three", "four"}, []string{got[0].Title, got[1].Title, got[2].Title})
	assert.Equal(t, filepath.Join(dir, "2401.00001v1.pdf"), got[0].FilePath)
	assert.Equal(t, existing, got[1].FilePath)
	assert.EqualValues(t, 3, hits.Load(), "existing file must not be fetched")

	body, err := os.ReadFile(got[2].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 /pdf/four", string(body))

	cached, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(cached))

	_, err = os.Stat(filepath.Join(dir, "2401.00002v1.pdf"))
	assert.True(t, os.IsNotExist(err), "failed download must not leave a file")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".download-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDownloadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	papers := []Paper{{EntryID: "http://arxiv.org/abs/1", PDFURL: srv.URL}}
	_, err := NewClient(srv.URL, srv.Client(), discardLogger()).Download(ctx, papers, t.TempDir(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}
