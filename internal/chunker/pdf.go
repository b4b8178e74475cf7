package chunker

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/oranjParker/Paperbase/internal/core"
)

// ExtractPages pulls plain text out of a PDF, one Page per physical page,
// numbered from 1. Unparseable bytes are a malformed-input failure, never
// retried. The pdf package panics on some corrupt files, so extraction runs
// behind a recover.
func ExtractPages(data []byte, docName string) (pages []core.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", core.ErrMalformedInput, docName, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedInput, docName, err)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", core.ErrMalformedInput, docName, i, err)
		}

		pages = append(pages, core.Page{
			Document: docName,
			Number:   i,
			Text:     text,
		})
	}

	return pages, nil
}
