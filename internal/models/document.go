// Package models defines core data structures for stored documents, classifications, and queries.
package models

// NLPVersion tags every record written by the ingestion pipeline.
const NLPVersion = "oss-v1"

// Ingestion status values stored in Metadata.IngestionStatus.
const (
	StatusOK          = "OK"
	StatusSkipped     = "SKIPPED"
	nlpErrorPrefix    = "NLP_ERROR: "
	ingestErrorPrefix = "ERROR: "
)

// NLPErrorStatus formats the status recorded when classification failed but the record was kept.
func NLPErrorStatus(err error) string {
	return nlpErrorPrefix + err.Error()
}

// IngestErrorStatus formats the status returned when a record could not be ingested at all.
func IngestErrorStatus(err error) string {
	return ingestErrorPrefix + err.Error()
}

// DocumentRecord is the persisted view of one ingested object.
// DocumentID is derived from (Bucket, S3Key) so re-ingesting the same object upserts.
type DocumentRecord struct {
	DocumentID   string    `json:"documentId"`
	Bucket       string    `json:"bucket"`
	S3Key        string    `json:"s3Key"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	PageCount    int       `json:"pageCount"`
	TextKey      string    `json:"textKey,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	LastModified string    `json:"lastModified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	NLPVersion   string    `json:"nlpVersion"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Metadata is the classification attached to a DocumentRecord.
type Metadata struct {
	Title                   string   `json:"title"`
	AgreementType           string   `json:"agreement_type"`
	AgreementTypeConfidence float64  `json:"agreement_type_confidence"`
	GoverningLaw            string   `json:"governing_law"`
	GoverningLawConfidence  float64  `json:"governing_law_confidence"`
	EffectiveDate           string   `json:"effective_date"`
	Industry                string   `json:"industry"`
	IndustryConfidence      float64  `json:"industry_confidence"`
	Parties                 []string `json:"parties"`
	IngestionStatus         string   `json:"ingestion_status"`
	// Jurisdiction is a legacy alias of GoverningLaw found on older records.
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Facet returns the stored value for f, or "" when unset.
func (m *Metadata) Facet(f Facet) string {
	if m == nil {
		return ""
	}
	switch f {
	case FacetAgreementType:
		return m.AgreementType
	case FacetGoverningLaw:
		return m.GoverningLaw
	case FacetIndustry:
		return m.Industry
	}
	return ""
}

// MetadataFromResult copies a classification into a stored metadata value.
func MetadataFromResult(r *ClassificationResult) *Metadata {
	m := &Metadata{Parties: []string{}}
	if r == nil {
		return m
	}
	m.Title = r.Title
	m.AgreementType = r.AgreementType
	m.AgreementTypeConfidence = r.AgreementTypeConfidence
	m.GoverningLaw = r.GoverningLaw
	m.GoverningLawConfidence = r.GoverningLawConfidence
	m.EffectiveDate = r.EffectiveDate
	m.Industry = r.Industry
	m.IndustryConfidence = r.IndustryConfidence
	if len(r.Parties) > 0 {
		m.Parties = append([]string(nil), r.Parties...)
	}
	return m
}
