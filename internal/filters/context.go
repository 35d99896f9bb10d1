package filters

import (
	"strings"
	"time"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

var (
	lawCues       = []string{"law", "governing", "under", "pursuant to"}
	agreementCues = []string{"agreement", "contract", "msa", "nda", "sow", "dpa"}
	industryCues  = []string{"industry", "sector", "tech", "technology", "healthcare", "finance", "manufacturing", "retail"}
)

// BuildContext describes a question for the analyzer: the expected fields, their vocabulary and which facets the question mentions.
func BuildContext(question string, now time.Time) *models.AnalysisContext {
	qn := norm(question)
	return &models.AnalysisContext{
		Domain: "legal_documents",
		Task:   "extract_contract_filters",
		Fields: []models.Facet{models.FacetGoverningLaw, models.FacetAgreementType, models.FacetIndustry},
		Vocab: map[models.Facet][]string{
			models.FacetGoverningLaw:  Vocabulary(models.FacetGoverningLaw),
			models.FacetAgreementType: Vocabulary(models.FacetAgreementType),
			models.FacetIndustry:      Vocabulary(models.FacetIndustry),
		},
		Hints: models.ContextHints{
			MentionsLaw:       mentionsAny(qn, lawCues),
			MentionsAgreement: mentionsAny(qn, agreementCues),
			MentionsIndustry:  mentionsAny(qn, industryCues),
		},
		Locale:    "en-US",
		Timezone:  "Africa/Johannesburg",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

func mentionsAny(qn string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(qn, c) {
			return true
		}
	}
	return false
}
