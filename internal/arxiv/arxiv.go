// Package arxiv searches the arXiv catalog and downloads paper PDFs.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Paper is one search result. FilePath is set once the PDF is on disk.
type Paper struct {
	EntryID  string   `json:"entry_id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	PDFURL   string   `json:"pdf_url"`
	Date     string   `json:"date"`
	Authors  []string `json:"authors"`
	FilePath string   `json:"file_path,omitempty"`
}

// FileName is the local name of the paper's PDF: the last segment of its
// entry id plus ".pdf".
func (p Paper) FileName() string {
	id := strings.TrimRight(p.EntryID, "/")
	return id[strings.LastIndex(id, "/")+1:] + ".pdf"
}

const defaultTimeout = 60 * time.Second

// Client talks to the arXiv Atom API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a client for the query endpoint at baseURL. A nil
// httpClient gets a default with a timeout.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient, log: log}
}

type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Updated string `xml:"updated"`
	Authors []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
		Type  string `xml:"type,attr"`
	} `xml:"link"`
}

// Search returns up to limit papers matching query, most relevant first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv search returned status %d", resp.StatusCode)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv feed: %w", err)
	}
	papers := make([]Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		papers = append(papers, e.paper())
	}
	if len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

func (e entry) paper() Paper {
	p := Paper{
		EntryID:  strings.TrimSpace(e.ID),
		Title:    collapse(e.Title),
		Abstract: collapse(e.Summary),
		Date:     formatDate(e.Updated),
	}
	for _, a := range e.Authors {
		p.Authors = append(p.Authors, collapse(a.Name))
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
			break
		}
	}
	if p.PDFURL == "" {
		p.PDFURL = strings.Replace(p.EntryID, "/abs/", "/pdf/", 1)
	}
	return p
}

// formatDate renders the feed timestamp as "2006-01-02 15:04:05+00:00".
func formatDate(s string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.Format("2006-01-02 15:04:05-07:00")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Download stores each paper's PDF in dir, skipping files that already
// exist, and returns the papers that are on disk with FilePath set, in input
// order. Failed downloads are logged and left out.
func (c *Client) Download(ctx context.Context, papers []Paper, dir string, concurrency int) ([]Paper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ok := make([]bool, len(papers))
	out := make([]Paper, len(papers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range papers {
		g.Go(func() error {
			p.FilePath = filepath.Join(dir, p.FileName())
			if _, err := os.Stat(p.FilePath); err == nil {
				c.log.Info("already exists", "title", p.Title, "path", p.FilePath)
				out[i], ok[i] = p, true
				return nil
			}
			if err := c.fetch(gctx, p.PDFURL, p.FilePath); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Error("download failed", "title", p.Title, "url", p.PDFURL, "err", err)
				return nil
			}
			c.log.Info("downloaded", "title", p.Title, "path", p.FilePath)
			out[i], ok[i] = p, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]Paper, 0, len(papers))
	for i := range out {
		if ok[i] {
			result = append(result, out[i])
		}
	}
	return result, nil
}

// fetch writes the body of src to path through a temp file so a failed
// transfer never leaves a partial PDF behind.
func (c *Client) fetch(ctx context.Context, src, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
