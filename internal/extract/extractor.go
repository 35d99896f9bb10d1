// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Status tells a legitimately empty document apart from one whose parser failed.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of one extraction. Text is empty unless Status is StatusOK.
// Units is a page count for PDF and an approximation (lines/40) for other formats.
type Result struct {
	Text     string
	Units    int
	Status   Status
	Err      error
	Warnings []string
}

// Empty reports whether no text was produced, for whatever reason.
func (r Result) Empty() bool {
	return r.Text == ""
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

func finish(text string, units int, warnings []string) Result {
	status := StatusOK
	if text == "" {
		status = StatusEmpty
	}
	return Result{Text: text, Units: units, Status: status, Warnings: warnings}
}

// approxUnits estimates a page count from line breaks.
func approxUnits(text string) int {
	n := strings.Count(text, "\n") / 40
	if n < 1 {
		return 1
	}
	return n
}

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// NormalizeExt returns the lowercase extension of key without the dot, or "" when there is none.
func NormalizeExt(key string) string {
	dot := strings.LastIndex(key, ".")
	if dot == -1 || strings.Contains(key[dot:], "/") {
		return ""
	}
	return strings.ToLower(key[dot+1:])
}

// Extract reads the file at path and extracts its text. Only the read can return an error;
// decode problems are reported through Result.
func (e *Extractor) Extract(path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, NormalizeExt(filepath.Base(path))), nil
}

// ExtractBytes extracts text from content based on the extension hint ("pdf" or ".pdf").
// Unknown extensions are decoded as UTF-8 text.
func (e *Extractor) ExtractBytes(content []byte, ext string) Result {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return extractPDF(content)
	case "docx", "doc":
		return extractDOCX(content)
	case "xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}

// extractPlain decodes content as UTF-8, dropping invalid byte sequences.
func extractPlain(content []byte) Result {
	text := strings.ToValidUTF8(string(content), "")
	return finish(text, approxUnits(text), nil)
}
