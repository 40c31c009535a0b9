package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize converts CRLF line endings to LF. No other whitespace is touched,
// so offsets computed on the result stay exact.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// Section is a run of lines opened by a heading line or by the start of the
// document. Start and End are character offsets into the document text and
// Text is exactly text[Start:End].
type Section struct {
	Start int
	End   int
	Text  string
}

// SplitSections partitions text into sections at heading lines. A heading line
// starts with one to three '#' characters followed by whitespace. Empty text
// yields no sections.
func SplitSections(text string) []Section {
	var (
		sections []Section
		cur      Section
		open     bool
		curByte  int
		pos      int
		bytePos  int
	)
	closeOpen := func() {
		cur.Text = text[curByte:bytePos]
		sections = append(sections, cur)
		open = false
	}
	for _, line := range splitLines(text) {
		if open && isHeading(line) {
			closeOpen()
		}
		if !open {
			cur = Section{Start: pos}
			curByte = bytePos
			open = true
		}
		pos += utf8.RuneCountInString(line)
		bytePos += len(line)
		cur.End = pos
	}
	if open {
		closeOpen()
	}
	return sections
}

func isHeading(line string) bool {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 3 || n == len(line) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line[n:])
	return isSpace(r)
}

// splitLines breaks text into lines that keep their terminators, so the
// lines concatenate back to text. Besides \n it honors the other line
// boundaries used by Unicode-aware line splitting (\r, \r\n, \v, \f, file,
// group and record separators, NEL, LS, PS).
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		if !isLineBreak(r) {
			i = next
			continue
		}
		if r == '\r' && next < len(text) && text[next] == '\n' {
			next++
		}
		lines = append(lines, text[start:next])
		start = next
		i = next
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// isSpace matches the whitespace class used for heading and word detection:
// Unicode white space plus the ASCII information separators.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
