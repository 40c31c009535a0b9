package chunker

import "unicode/utf8"

// WordSpan is a maximal run of non-whitespace characters. Start and End are
// character offsets relative to the text the span was found in.
type WordSpan struct {
	Text  string
	Start int
	End   int
}

// Words returns the word spans of text in left-to-right order.
func Words(text string) []WordSpan {
	var (
		words     []WordSpan
		inWord    bool
		wordByte  int
		wordStart int
		pos       int
	)
	for i, r := range text {
		if isSpace(r) {
			if inWord {
				words = append(words, WordSpan{Text: text[wordByte:i], Start: wordStart, End: pos})
				inWord = false
			}
		} else if !inWord {
			inWord = true
			wordByte = i
			wordStart = pos
		}
		pos++
	}
	if inWord {
		words = append(words, WordSpan{Text: text[wordByte:], Start: wordStart, End: pos})
	}
	return words
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
