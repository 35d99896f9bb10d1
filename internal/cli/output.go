// Package cli renders query, dashboard and ingestion results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/ingest"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat accepts "text" or "json" (case-insensitive); "" means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputText):
		return OutputText, nil
	case string(OutputJSON):
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteQueryResults writes a query response in the given format.
func WriteQueryResults(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.FiltersApplied) == 0 {
		fmt.Fprintln(w, "\nNo filters could be derived from the question.")
		return nil
	}
	parts := make([]string, 0, len(resp.FiltersApplied))
	for _, f := range resp.FiltersApplied.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", f, resp.FiltersApplied[f]))
	}
	fmt.Fprintf(w, "\nFilters: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(w, "Found %d matching documents\n\n", len(resp.Matches))
	for i, m := range resp.Matches {
		fmt.Fprintf(w, "%d. %s\n", i+1, m.Document)
		fmt.Fprintf(w, "   agreement: %s | law: %s | industry: %s\n",
			orDash(m.AgreementType), orDash(m.GoverningLaw), orDash(m.Industry))
	}
	return nil
}

// WriteDashboard writes facet counts, most frequent first.
func WriteDashboard(w io.Writer, d *models.Dashboard, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, d)
	}
	writeCounts(w, "Agreement types", d.AgreementTypes)
	writeCounts(w, "Jurisdictions", d.Jurisdictions)
	writeCounts(w, "Industries", d.Industries)
	return nil
}

func writeCounts(w io.Writer, heading string, counts map[string]int) {
	fmt.Fprintf(w, "\n%s:\n", heading)
	if len(counts) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %d\n", k, counts[k])
	}
}

// WriteSearchHits writes full-text search hits with their highlighted fragments.
func WriteSearchHits(w io.Writer, hits []models.SearchHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, hits)
	}
	fmt.Fprintf(w, "\nFound %d results\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %s (score %.4f)\n", i+1, h.Document, h.Score)
		if h.Metadata != nil && h.Metadata.Title != "" {
			fmt.Fprintf(w, "   Title: %s\n", h.Metadata.Title)
		}
		for _, frag := range h.Fragments {
			fmt.Fprintf(w, "   ... %s\n", utils.Truncate(strings.Join(strings.Fields(frag), " "), 200))
		}
	}
	return nil
}

// WriteDocuments writes stored document records.
func WriteDocuments(w io.Writer, docs []*models.DocumentRecord, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, docs)
	}
	fmt.Fprintf(w, "\n%d documents\n\n", len(docs))
	for _, d := range docs {
		title, status := "", ""
		if d.Metadata != nil {
			title, status = d.Metadata.Title, d.Metadata.IngestionStatus
		}
		fmt.Fprintf(w, "%s  %s\n", d.DocumentID, d.S3Key)
		fmt.Fprintf(w, "   %s [%s]\n", orDash(title), orDash(status))
	}
	return nil
}

// WriteOutcomes writes per-document ingestion outcomes.
func WriteOutcomes(w io.Writer, res *ingest.EventResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if !res.OK {
		fmt.Fprintf(w, "Nothing ingested: %s\n", res.Reason)
		return nil
	}
	for _, o := range res.Processed {
		fmt.Fprintf(w, "%-8s %s  %s\n", statusLabel(o.Status), o.DocumentID, o.Key)
		if o.Status != models.StatusOK {
			fmt.Fprintf(w, "         %s\n", o.Status)
		}
	}
	return nil
}

func statusLabel(status string) string {
	if status == models.StatusOK || status == models.StatusSkipped {
		return status
	}
	return "ERROR"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
