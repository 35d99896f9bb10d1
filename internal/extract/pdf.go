package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(content []byte) Result {
	if len(content) == 0 {
		return Result{Status: StatusEmpty}
	}
	r, err := openPDF(content)
	if err != nil {
		return failed(fmt.Errorf("open PDF: %w", err))
	}
	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	var warnings []string
	for i := 1; i <= numPages; i++ {
		text, err := pageText(r, i)
		if err != nil {
			warnings = append(warnings, err.Error())
			text = ""
		}
		pages = append(pages, text)
	}
	return finish(strings.TrimSpace(strings.Join(pages, "\n")), numPages, warnings)
}

// openPDF guards against the reader panicking on malformed cross-reference tables.
func openPDF(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

// pageText decodes one page; a failure stays local to that page.
func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extract page %d: %v", i, rec)
		}
	}()
	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", i, err)
	}
	return text, nil
}
