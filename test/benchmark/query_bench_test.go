package benchmark

import (
	"fmt"
	"testing"

	"github.com/fouadroumieh/legal-assistant/internal/filters"
	"github.com/fouadroumieh/legal-assistant/internal/heuristics"
	"github.com/fouadroumieh/legal-assistant/internal/models"
)

func BenchmarkFromQuestion(b *testing.B) {
	questions := []string{
		"show me all NDAs governed by UK law",
		"master services agreements in the technology industry",
		"which data processing agreements fall under German law?",
		"employment contracts",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = filters.FromQuestion(questions[i%len(questions)])
	}
}

func BenchmarkMatchAndTally(b *testing.B) {
	types := []string{"NDA", "MSA", "SOW", "DPA", "Employment"}
	laws := []string{"US", "UK", "DE", "AE", "ZA"}
	industries := []string{"Technology", "Healthcare", "Finance", "Retail"}
	records := make([]*models.DocumentRecord, 10000)
	for i := range records {
		records[i] = &models.DocumentRecord{
			DocumentID: fmt.Sprintf("doc-%05d", i),
			Metadata: &models.Metadata{
				AgreementType: types[i%len(types)],
				GoverningLaw:  laws[i%len(laws)],
				Industry:      industries[i%len(industries)],
			},
		}
	}
	fs := models.FilterSet{models.FacetAgreementType: "NDA", models.FacetGoverningLaw: "UK"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		for _, r := range records {
			if filters.Matches(r.Metadata, fs) {
				n++
			}
		}
		_ = n
		_ = filters.Tally(records)
	}
}

func BenchmarkGuessTitle(b *testing.B) {
	text := "\n\n  MASTER SERVICES AGREEMENT  \nThis Master Services Agreement is entered into as of January 5, 2024.\n"
	for i := 0; i < b.N; i++ {
		_ = heuristics.GuessTitle(text, heuristics.IngestTitleMax)
	}
}
