// Package ingest turns downloaded papers into stored, chunked documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"paper-rag/internal/arxiv"
	"paper-rag/internal/chunker"
	"paper-rag/internal/extract"
	"paper-rag/internal/store"
)

// Options configure a Pipeline.
type Options struct {
	Chunk          chunker.Options
	Extract        extract.Options
	BatchSize      int
	ErrorThreshold int
}

// Source is a document on disk plus whatever catalog metadata is known.
type Source struct {
	Title    string
	Abstract string
	PDFURL   string
	Date     string
	Authors  []string
	FilePath string
}

// FromArxiv maps a downloaded arXiv paper to a Source.
func FromArxiv(p arxiv.Paper) Source {
	return Source{
		Title:    p.Title,
		Abstract: p.Abstract,
		PDFURL:   p.PDFURL,
		Date:     p.Date,
		Authors:  p.Authors,
		FilePath: p.FilePath,
	}
}

// Result describes one ingested paper.
type Result struct {
	DocID    string
	Chunks   int
	Rejected int
}

// Summary totals a Run.
type Summary struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Chunks   int `json:"chunks"`
}

// Pipeline extracts, chunks and stores papers.
type Pipeline struct {
	store store.Store
	log   *slog.Logger
	opts  Options
}

// New validates opts and builds a Pipeline.
func New(st store.Store, log *slog.Logger, opts Options) (*Pipeline, error) {
	if err := opts.Chunk.Validate(); err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.ErrorThreshold < 0 {
		opts.ErrorThreshold = 0
	}
	return &Pipeline{store: st, log: log, opts: opts}, nil
}

// Skipped reports whether err means the document had nothing to ingest.
func Skipped(err error) bool {
	return errors.Is(err, extract.ErrNoText) || errors.Is(err, extract.ErrUnsupported)
}

// Ingest stores one paper and its chunks.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (Result, error) {
	doc, err := extract.File(src.FilePath, p.opts.Extract)
	if err != nil {
		return Result{}, err
	}
	title := src.Title
	if title == "" {
		title = doc.Title
	}
	// Chunk offsets index into the normalized text, so that is what gets stored.
	text := chunker.Normalize(doc.Text)

	docID, err := p.store.CreatePaper(ctx, store.Paper{
		Title:    title,
		Abstract: src.Abstract,
		PDFURL:   src.PDFURL,
		Date:     src.Date,
		Authors:  src.Authors,
		FilePath: src.FilePath,
		Content:  text,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create paper: %w", err)
	}

	chunks, err := chunker.ChunkText(text, docID, p.opts.Chunk)
	if err != nil {
		return Result{}, fmt.Errorf("chunk %q: %w", title, err)
	}

	res := Result{DocID: docID}
	tally := NewFailureTally(p.opts.ErrorThreshold, p.log.With("doc_id", docID))
	for start := 0; start < len(chunks); start += p.opts.BatchSize {
		batch := chunks[start:min(start+p.opts.BatchSize, len(chunks))]
		failures, err := p.store.InsertChunks(ctx, title, batch)
		if err != nil {
			return res, fmt.Errorf("insert chunks: %w", err)
		}
		res.Chunks += len(batch) - len(failures)
		res.Rejected += len(failures)
		if err := tally.Add(failures); err != nil {
			return res, fmt.Errorf("%q: %w (%d failures)", title, err, tally.Count())
		}
	}
	p.log.Info("ingested paper", "title", title, "doc_id", docID, "chunks", res.Chunks, "rejected", res.Rejected)
	return res, nil
}

// Run ingests sources one after another. Per-paper failures are logged and
// counted; only cancellation stops the run early.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (Summary, error) {
	var sum Summary
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := p.Ingest(ctx, src)
		switch {
		case err == nil:
			sum.Ingested++
			sum.Chunks += res.Chunks
		case Skipped(err):
			sum.Skipped++
			p.log.Warn("skipping paper", "path", src.FilePath, "err", err)
		default:
			sum.Failed++
			sum.Chunks += res.Chunks
			p.log.Error("paper ingestion failed", "path", src.FilePath, "err", err)
		}
	}
	return sum, nil
}
