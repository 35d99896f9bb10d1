// Package filters turns questions and classifications into facet filters and matches stored metadata against them.
package filters

import (
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

type synonym struct {
	key   string
	canon string
}

// Table order is significant: when scanning a question, the first key found wins.
var (
	agreementSynonyms = []synonym{
		{"msa", "MSA"},
		{"master services agreement", "MSA"},
		{"nda", "NDA"},
		{"non disclosure", "NDA"},
		{"non-disclosure", "NDA"},
		{"sow", "SOW"},
		{"statement of work", "SOW"},
		{"dpa", "DPA"},
		{"data processing agreement", "DPA"},
		{"employment", "Employment"},
	}
	industrySynonyms = []synonym{
		{"tech", "Technology"},
		{"technology", "Technology"},
		{"it", "Technology"},
		{"software", "Technology"},
		{"healthcare", "Healthcare"},
		{"health care", "Healthcare"},
		{"finance", "Finance"},
		{"fintech", "Finance"},
		{"banking", "Finance"},
		{"manufacturing", "Manufacturing"},
		{"retail", "Retail"},
		{"ecommerce", "Retail"},
		{"e-commerce", "Retail"},
	}
	lawSynonyms = []synonym{
		{"us", "US"},
		{"usa", "US"},
		{"united states", "US"},
		{"u.s.", "US"},
		{"u.s.a.", "US"},
		{"uk", "UK"},
		{"england", "UK"},
		{"united kingdom", "UK"},
		{"uae", "AE"},
		{"united arab emirates", "AE"},
		{"ae", "AE"},
		{"germany", "DE"},
		{"german", "DE"},
		{"de", "DE"},
		{"deutschland", "DE"},
		{"south africa", "ZA"},
		{"za", "ZA"},
	}
)

var canonical = map[models.Facet]map[string]string{
	models.FacetAgreementType: index(agreementSynonyms),
	models.FacetIndustry:      index(industrySynonyms),
	models.FacetGoverningLaw:  index(lawSynonyms),
}

func index(table []synonym) map[string]string {
	m := make(map[string]string, len(table)*2)
	for _, s := range table {
		m[s.key] = s.canon
	}
	// canonical values map to themselves so canonicalization is idempotent
	for _, s := range table {
		if _, ok := m[norm(s.canon)]; !ok {
			m[norm(s.canon)] = s.canon
		}
	}
	return m
}

func tableFor(f models.Facet) []synonym {
	switch f {
	case models.FacetAgreementType:
		return agreementSynonyms
	case models.FacetIndustry:
		return industrySynonyms
	case models.FacetGoverningLaw:
		return lawSynonyms
	}
	return nil
}

// Canonicalize maps a facet value to its canonical code. Unknown values are returned unchanged.
func Canonicalize(f models.Facet, value string) string {
	if c, ok := canonical[f][norm(value)]; ok {
		return c
	}
	return value
}

// Vocabulary returns the distinct canonical values of a facet in table order.
func Vocabulary(f models.Facet) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range tableFor(f) {
		if !seen[s.canon] {
			seen[s.canon] = true
			out = append(out, s.canon)
		}
	}
	return out
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
