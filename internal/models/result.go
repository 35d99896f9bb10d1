package models

// ClassificationResult is the output of one analysis of a document's text.
// It is always replaced wholesale, never patched field by field.
type ClassificationResult struct {
	Title                   string   `json:"title,omitempty"`
	EffectiveDate           string   `json:"effective_date,omitempty"`
	GoverningLaw            string   `json:"governing_law,omitempty"`
	GoverningLawConfidence  float64  `json:"governing_law_confidence"`
	AgreementType           string   `json:"agreement_type,omitempty"`
	AgreementTypeConfidence float64  `json:"agreement_type_confidence"`
	Industry                string   `json:"industry,omitempty"`
	IndustryConfidence      float64  `json:"industry_confidence"`
	Parties                 []string `json:"parties"`
}

// NewClassificationResult returns an empty result with a non-nil parties list.
func NewClassificationResult() *ClassificationResult {
	return &ClassificationResult{Parties: []string{}}
}

// IsEmpty reports whether no field was determined.
func (r *ClassificationResult) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Title == "" && r.EffectiveDate == "" && r.GoverningLaw == "" &&
		r.AgreementType == "" && r.Industry == "" && len(r.Parties) == 0
}

// Dashboard holds facet frequency counts keyed by the raw stored values.
type Dashboard struct {
	OK             bool           `json:"ok"`
	AgreementTypes map[string]int `json:"agreement_types"`
	Jurisdictions  map[string]int `json:"jurisdictions"`
	Industries     map[string]int `json:"industries"`
}

// NewDashboard returns a dashboard with empty, non-nil buckets.
func NewDashboard() *Dashboard {
	return &Dashboard{
		OK:             true,
		AgreementTypes: map[string]int{},
		Jurisdictions:  map[string]int{},
		Industries:     map[string]int{},
	}
}

// SearchHit is one full-text search match over extracted document text.
type SearchHit struct {
	DocumentID string    `json:"documentId"`
	Document   string    `json:"document"`
	Score      float64   `json:"score"`
	Metadata   *Metadata `json:"metadata,omitempty"`
	Fragments  []string  `json:"fragments,omitempty"`
}

// NLPHealth is the health payload of the analysis service.
type NLPHealth struct {
	OK         bool   `json:"ok"`
	EmbedModel string `json:"embed_model"`
}
