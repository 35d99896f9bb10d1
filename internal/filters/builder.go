package filters

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

// DefaultMinConfidence gates analysis-derived agreement type and industry filters.
const DefaultMinConfidence = 0.70

// shortQuestionTokens is the length at or below which bare jurisdiction tokens count as a law filter.
const shortQuestionTokens = 4

// FromQuestion extracts filters from the words of a question. Governing law is
// only read when the question mentions law, or when the question is short or
// yielded nothing else.
func FromQuestion(question string) models.FilterSet {
	qn := norm(question)
	out := models.FilterSet{}

	if v, ok := firstHit(qn, agreementSynonyms); ok {
		out[models.FacetAgreementType] = v
	}
	if v, ok := firstHit(qn, industrySynonyms); ok {
		out[models.FacetIndustry] = v
	}
	if strings.Contains(qn, "law") || strings.Contains(qn, "governing") {
		if v, ok := firstHit(qn, lawSynonyms); ok {
			out[models.FacetGoverningLaw] = v
		}
	}
	if _, ok := out[models.FacetGoverningLaw]; !ok {
		if len(strings.Fields(qn)) <= shortQuestionTokens || len(out) == 0 {
			if v, ok := firstHit(qn, lawSynonyms); ok {
				out[models.FacetGoverningLaw] = v
			}
		}
	}
	return out
}

// FromAnalysis extracts filters from a classification. Governing law is taken
// whenever present; the other facets only at or above minConf.
func FromAnalysis(res *models.ClassificationResult, minConf float64) models.FilterSet {
	out := models.FilterSet{}
	if res == nil {
		return out
	}
	if res.GoverningLaw != "" {
		out[models.FacetGoverningLaw] = Canonicalize(models.FacetGoverningLaw, res.GoverningLaw)
	}
	if res.AgreementType != "" && res.AgreementTypeConfidence >= minConf {
		out[models.FacetAgreementType] = Canonicalize(models.FacetAgreementType, res.AgreementType)
	}
	if res.Industry != "" && res.IndustryConfidence >= minConf {
		out[models.FacetIndustry] = Canonicalize(models.FacetIndustry, res.Industry)
	}
	return out
}

// Merge overlays question filters on analysis filters; the question wins on collision.
func Merge(analysis, question models.FilterSet) models.FilterSet {
	out := analysis.Clone()
	for k, v := range question {
		out[k] = v
	}
	return out
}

// Build combines both passes with the default confidence gate.
func Build(question string, res *models.ClassificationResult) models.FilterSet {
	return Merge(FromAnalysis(res, DefaultMinConfidence), FromQuestion(question))
}

func firstHit(qn string, table []synonym) (string, bool) {
	for _, s := range table {
		if containsTerm(qn, s.key) {
			return s.canon, true
		}
	}
	return "", false
}

// containsTerm reports whether term occurs in s as a whole word, allowing a
// trailing plural "s" for terms of three or more letters ("msas" hits "msa").
func containsTerm(s, term string) bool {
	plural := utf8.RuneCountInString(term) >= 3
	for from := 0; from <= len(s)-len(term); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end, plural) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int, plural bool) bool {
	if i == len(s) {
		return true
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !isWordRune(r) {
		return true
	}
	if plural && r == 's' {
		return boundaryAfter(s, i+size, false)
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
