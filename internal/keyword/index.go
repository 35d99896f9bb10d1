// Package keyword provides full-text indexing and search over extracted document text.
package keyword

import (
	"context"
)

// Document is the indexed view of one ingested document.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Key     string `json:"key"`
}

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from title matches. Values > 1 enable
	// separate title and content queries merged additively.
	TitleBoost float64
	// PhraseBoost multiplies the score when the query appears as a phrase.
	PhraseBoost float64
	// FuzzyEnabled matches terms within Fuzziness edits (1 or 2, default 2).
	FuzzyEnabled bool
	Fuzziness    int
	// Highlight requests content fragments around matched terms.
	Highlight bool
}

// Index defines full-text search operations keyed by document ID.
type Index interface {
	Index(ctx context.Context, id string, doc *Document) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID        string
	Score     float64
	Fragments []string
}
