package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(path string, opts Options) (doc Document, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", ErrNoText, rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: open pdf: %v", ErrNoText, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	if opts.MaxPages > 0 && numPages > opts.MaxPages {
		numPages = opts.MaxPages
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}
	return Document{Text: textBuilder.String()}, nil
}
