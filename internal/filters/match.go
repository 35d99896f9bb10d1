package filters

import (
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

// Matches reports whether stored metadata satisfies every facet in fs. Both
// sides are canonicalized, then the stored value must equal, start with, or
// contain the wanted value. An empty filter set matches everything.
func Matches(meta *models.Metadata, fs models.FilterSet) bool {
	for facet, want := range fs {
		if !matchValue(facet, meta.Facet(facet), want) {
			return false
		}
	}
	return true
}

func matchValue(facet models.Facet, stored, want string) bool {
	if want == "" {
		return true
	}
	if stored == "" {
		return false
	}
	sv := norm(Canonicalize(facet, stored))
	wv := norm(Canonicalize(facet, want))
	return sv == wv || strings.HasPrefix(sv, wv) || strings.Contains(sv, wv)
}
