package chunker

import (
	"fmt"
	"math"
	"strings"
)

// Span is a chunk payload before it is numbered and placed in the document.
// Offsets are relative to the word spans it was built from.
type Span struct {
	Text  string
	Start int
	End   int
}

// Build turns a section's word spans into chunk payloads. A section that fits
// in opts.Size words becomes a single chunk; a larger one is covered by a
// sliding window of opts.Size words that advances by Size-overlap words. The
// last window may hold fewer words than the step and is still emitted.
func Build(words []WordSpan, opts Options) ([]Span, error) {
	step, err := opts.Step()
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, nil
	}
	if len(words) <= opts.Size {
		return []Span{join(words)}, nil
	}

	var spans []Span
	for start := 0; start < len(words); start += step {
		end := min(start+opts.Size, len(words))
		spans = append(spans, join(words[start:end]))
		if end == len(words) {
			break
		}
	}
	return spans, nil
}

// Step validates the options and returns the sliding-window step.
func (o Options) Step() (int, error) {
	if o.Size <= 0 {
		return 0, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, o.Size)
	}
	if math.IsNaN(o.OverlapFraction) || o.OverlapFraction < 0 || o.OverlapFraction >= 1 {
		return 0, fmt.Errorf("%w: overlap fraction must be in [0,1), got %v", ErrInvalidConfig, o.OverlapFraction)
	}
	overlap := int(math.Floor(float64(o.Size) * o.OverlapFraction))
	step := o.Size - overlap
	if step <= 0 {
		return 0, fmt.Errorf("%w: size %d with overlap %d leaves no step", ErrInvalidConfig, o.Size, overlap)
	}
	return step, nil
}

func join(words []WordSpan) Span {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return Span{
		Text:  strings.Join(parts, " "),
		Start: words[0].Start,
		End:   words[len(words)-1].End,
	}
}
