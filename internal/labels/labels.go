// Package labels defines the closed label sets documents are classified into.
package labels

import (
	"fmt"
	"strings"
)

// Label is a short code with the descriptive phrase it is compared against.
type Label struct {
	Code   string
	Phrase string
}

// Bank is an ordered set of labels. Order matters: it breaks similarity ties.
type Bank struct {
	Name   string
	Labels []Label
}

// Agreement classifies contract types.
var Agreement = Bank{
	Name: "agreement",
	Labels: []Label{
		{Code: "NDA", Phrase: "non-disclosure, confidentiality agreement between parties to protect confidential information"},
		{Code: "MSA", Phrase: "master services agreement describing broad terms for services between parties"},
		{Code: "SOW", Phrase: "statement of work describing scope, deliverables, and milestones"},
		{Code: "DPA", Phrase: "data processing agreement outlining privacy, processing personal data, GDPR"},
		{Code: "Employment", Phrase: "employment agreement between company and employee"},
		{Code: "Lease", Phrase: "lease or rental agreement for property or equipment"},
	},
}

// Industry classifies the business sector a contract belongs to.
var Industry = Bank{
	Name: "industry",
	Labels: []Label{
		{Code: "Technology", Phrase: "software, cloud, saas, technology services"},
		{Code: "Healthcare", Phrase: "medical, healthcare, clinical services, pharma"},
		{Code: "Finance", Phrase: "banking, payments, fintech, investments"},
		{Code: "Manufacturing", Phrase: "production, factory, supply chain, equipment"},
		{Code: "Retail", Phrase: "retail, ecommerce, consumer goods"},
	},
}

// Anchors returns the "code: phrase" strings embedded for each label, in bank order.
func (b Bank) Anchors() []string {
	out := make([]string, len(b.Labels))
	for i, l := range b.Labels {
		out[i] = l.Code + ": " + l.Phrase
	}
	return out
}

// Codes returns the label codes in bank order.
func (b Bank) Codes() []string {
	out := make([]string, len(b.Labels))
	for i, l := range b.Labels {
		out[i] = l.Code
	}
	return out
}

// Validate checks that the bank is non-empty and codes are unique and non-blank.
func (b Bank) Validate() error {
	if len(b.Labels) == 0 {
		return fmt.Errorf("label bank %q is empty", b.Name)
	}
	seen := make(map[string]bool, len(b.Labels))
	for _, l := range b.Labels {
		if strings.TrimSpace(l.Code) == "" {
			return fmt.Errorf("label bank %q has a blank code", b.Name)
		}
		if seen[l.Code] {
			return fmt.Errorf("label bank %q repeats code %s", b.Name, l.Code)
		}
		seen[l.Code] = true
	}
	return nil
}
