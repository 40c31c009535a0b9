package chunker

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrInvalidConfig reports chunking options that cannot produce chunks.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Strategy selects how a document is segmented before windowing.
type Strategy string

const (
	// StrategySections splits at markdown heading lines first.
	StrategySections Strategy = "sections"
	// StrategyFixed windows the whole document as one section.
	StrategyFixed Strategy = "fixed"
)

// Options controls how text is chunked.
type Options struct {
	Size            int // words per chunk
	OverlapFraction float64
	Strategy        Strategy
}

// Chunk is one retrieval unit of a document. Start and End are character
// offsets into the normalized document text.
type Chunk struct {
	ID    int    `json:"chunk_id"`
	DocID string `json:"doc_id"`
	Text  string `json:"chunk_text"`
	Start int    `json:"start_index"`
	End   int    `json:"end_index"`
}

// Validate checks the options without chunking anything.
func (o Options) Validate() error {
	if _, err := o.Step(); err != nil {
		return err
	}
	switch o.Strategy {
	case "", StrategySections, StrategyFixed:
		return nil
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, o.Strategy)
	}
}

// Stream returns the chunks of text in emission order. The text is normalized
// first and offsets refer to Normalize(text). Options are validated up front,
// so the returned sequence cannot fail; it recomputes from scratch on every
// iteration.
func Stream(text, docID string, opts Options) (iter.Seq[Chunk], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	text = Normalize(text)

	return func(yield func(Chunk) bool) {
		id := 0
		for _, sec := range segment(text, opts.Strategy) {
			words := Words(sec.Text)
			if len(words) == 0 {
				continue
			}
			// Options were validated above.
			spans, _ := Build(words, opts)
			for _, sp := range spans {
				c := Chunk{
					ID:    id,
					DocID: docID,
					Text:  sp.Text,
					Start: sec.Start + sp.Start,
					End:   sec.Start + sp.End,
				}
				id++
				if !yield(c) {
					return
				}
			}
		}
	}, nil
}

// ChunkText collects Stream into a slice.
func ChunkText(text, docID string, opts Options) ([]Chunk, error) {
	seq, err := Stream(text, docID, opts)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

func segment(text string, strategy Strategy) []Section {
	if strategy == StrategyFixed {
		if text == "" {
			return nil
		}
		return []Section{{Start: 0, End: runeLen(text), Text: text}}
	}
	return SplitSections(text)
}
