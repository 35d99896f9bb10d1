// Package jurisdiction detects the governing-law jurisdiction of a contract.
package jurisdiction

import (
	"context"
	"fmt"
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/ner"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

const (
	// HintConfidence is reported when a literal hint phrase is found.
	HintConfidence = 0.70
	// EntityConfidence is reported when only recognized place entities point to a jurisdiction.
	EntityConfidence = 0.65
	// EntityScanRunes limits how much text the recognizer sees.
	EntityScanRunes = 8000
)

type rule struct {
	code    string
	phrases []string
}

// hints are matched as substrings of the lowercased text, first code wins.
var hints = []rule{
	{"US", []string{"united states", "state of", "delaware", "california", "new york", "usa"}},
	{"DE", []string{"germany", "bundesrepublik", "deutschland"}},
	{"UK", []string{"united kingdom", "england", "wales", "scotland", "northern ireland"}},
	{"ZA", []string{"south africa", "republic of south africa"}},
	{"AE", []string{"united arab emirates", "uae", "dubai", "abu dhabi"}},
}

// entityNames are matched as substrings of lowercased GPE/LOC entity texts.
var entityNames = []rule{
	{"US", []string{"united states"}},
	{"DE", []string{"germany"}},
	{"UK", []string{"united kingdom", "england"}},
	{"ZA", []string{"south africa"}},
	{"AE", []string{"united arab emirates", "dubai", "abu dhabi"}},
}

// Result is a detected jurisdiction code with its confidence. Code is "" when nothing was found.
type Result struct {
	Code       string
	Confidence float64
}

// Detector combines literal hints with a named-entity fallback.
type Detector struct {
	recognizer ner.Recognizer
}

// NewDetector returns a detector. A nil recognizer disables the entity fallback.
func NewDetector(recognizer ner.Recognizer) *Detector {
	return &Detector{recognizer: recognizer}
}

// Detect returns the jurisdiction of text. A recognizer failure yields an empty result and the error.
func (d *Detector) Detect(ctx context.Context, text string) (Result, error) {
	if code := matchHints(strings.ToLower(text)); code != "" {
		return Result{Code: code, Confidence: HintConfidence}, nil
	}
	if d.recognizer == nil {
		return Result{}, nil
	}

	entities, err := d.recognizer.Recognize(ctx, utils.HeadRunes(text, EntityScanRunes))
	if err != nil {
		return Result{}, fmt.Errorf("recognize places: %w", err)
	}
	var places []string
	for _, e := range ner.OfType(entities, ner.TypeGPE, ner.TypeLoc) {
		places = append(places, strings.ToLower(e.Text))
	}
	for _, r := range entityNames {
		for _, p := range places {
			if containsAny(p, r.phrases) {
				return Result{Code: r.code, Confidence: EntityConfidence}, nil
			}
		}
	}
	return Result{}, nil
}

func matchHints(lower string) string {
	for _, r := range hints {
		if containsAny(lower, r.phrases) {
			return r.code
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
