package extract

import (
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func extractMarkdown(path string, _ Options) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{Title: MarkdownTitle(src), Text: string(src)}, nil
}

// MarkdownTitle returns the text of the first heading in src, or "".
func MarkdownTitle(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			return string(h.Text(src))
		}
	}
	return ""
}
