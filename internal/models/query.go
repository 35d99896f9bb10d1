package models

import (
	"fmt"
	"sort"
	"strings"
)

// Facet is one classification dimension a query can be filtered on.
type Facet string

const (
	FacetAgreementType Facet = "agreement_type"
	FacetGoverningLaw  Facet = "governing_law"
	FacetIndustry      Facet = "industry"
)

// Facets lists every facet in a fixed order.
var Facets = []Facet{FacetAgreementType, FacetGoverningLaw, FacetIndustry}

// ParseFacet converts a string into a known Facet.
func ParseFacet(s string) (Facet, error) {
	f := Facet(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range Facets {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown facet %q", s)
}

// FilterSet maps a facet to the canonical value a document must match.
// Keys are present only when a value was determined.
type FilterSet map[Facet]string

// Keys returns the facets in the set, sorted.
func (fs FilterSet) Keys() []Facet {
	keys := make([]Facet, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a shallow copy that is never nil.
func (fs FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// QueryRequest is the body of a query call.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryMatch is a single document that satisfied every applied filter.
type QueryMatch struct {
	Document      string `json:"document"`
	GoverningLaw  string `json:"governing_law"`
	AgreementType string `json:"agreement_type"`
	Industry      string `json:"industry"`
}

// QueryResponse is the result of answering a question.
type QueryResponse struct {
	OK             bool         `json:"ok"`
	FiltersApplied FilterSet    `json:"filters_applied"`
	Matches        []QueryMatch `json:"matches"`
}

// NewQueryResponse returns an ok response with the given filters and no matches.
func NewQueryResponse(filters FilterSet) *QueryResponse {
	return &QueryResponse{OK: true, FiltersApplied: filters.Clone(), Matches: []QueryMatch{}}
}

// ContextHints flags which facets a question talks about.
type ContextHints struct {
	MentionsLaw       bool `json:"mentions_law"`
	MentionsAgreement bool `json:"mentions_agreement"`
	MentionsIndustry  bool `json:"mentions_industry"`
}

// AnalysisContext accompanies a question sent for analysis so the analyzer knows
// which fields and vocabulary are expected.
type AnalysisContext struct {
	Domain    string             `json:"domain"`
	Task      string             `json:"task"`
	Fields    []Facet            `json:"fields"`
	Vocab     map[Facet][]string `json:"vocab"`
	Hints     ContextHints       `json:"hints"`
	Locale    string             `json:"locale"`
	Timezone  string             `json:"timezone"`
	Timestamp string             `json:"timestamp"`
}

// AnalyzeRequest is the body of an analysis call.
type AnalyzeRequest struct {
	Text    string           `json:"text"`
	Context *AnalysisContext `json:"context,omitempty"`
}
