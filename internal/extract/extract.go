// Package extract turns source files into plain text for chunking. Structured
// formats keep their top three heading levels as markdown '#' lines so the
// chunker can split on them.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupported is returned for file extensions without an extractor.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNoText means the file was readable but yielded no text.
	ErrNoText = errors.New("no text extracted")
)

// Document is the extracted text of one file.
type Document struct {
	Title string
	Text  string
}

// Options tunes extraction.
type Options struct {
	MaxPages int // PDF page limit, 0 reads all pages
}

type extractFunc func(path string, opts Options) (Document, error)

var extractors = map[string]extractFunc{
	".pdf":      extractPDF,
	".docx":     extractDOCX,
	".html":     extractHTML,
	".htm":      extractHTML,
	".md":       extractMarkdown,
	".markdown": extractMarkdown,
	".txt":      extractPlain,
}

// Supported reports whether path has an extension File can handle.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// File extracts the text of the file at path. The title falls back to the
// file name without extension.
func File(path string, opts Options) (Document, error) {
	fn, ok := extractors[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	doc, err := fn(path, opts)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return Document{}, fmt.Errorf("extract %s: %w", filepath.Base(path), ErrNoText)
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

func extractPlain(path string, _ Options) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{Text: string(b)}, nil
}

// writeHeading renders a heading as a markdown line. Levels past 3 are
// written as plain lines since the chunker only splits on 1-3.
func writeHeading(b *strings.Builder, level int, text string) {
	if text == "" {
		return
	}
	if level >= 1 && level <= 3 {
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
	}
	b.WriteString(text)
	b.WriteString("\n")
}

func writeParagraph(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	b.WriteString(text)
	b.WriteString("\n\n")
}
