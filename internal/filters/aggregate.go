package filters

import "github.com/fouadroumieh/legal-assistant/internal/models"

// Tally counts facet values across records for the dashboard. Counts are keyed
// by the stored value as written, without canonicalization. Records without a
// governing law fall back to the legacy jurisdiction field.
func Tally(records []*models.DocumentRecord) *models.Dashboard {
	d := models.NewDashboard()
	for _, rec := range records {
		if rec == nil || rec.Metadata == nil {
			continue
		}
		m := rec.Metadata
		inc(d.AgreementTypes, m.AgreementType)
		law := m.GoverningLaw
		if law == "" {
			law = m.Jurisdiction
		}
		inc(d.Jurisdictions, law)
		inc(d.Industries, m.Industry)
	}
	return d
}

func inc(bucket map[string]int, key string) {
	if key != "" {
		bucket[key]++
	}
}
