package ner

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Places known to the gazetteer, lowercased. Countries, states and cities are GPE; regions are LOC.
var defaultPlaces = map[string]Type{
	"united states of america": TypeGPE, "united states": TypeGPE, "usa": TypeGPE, "u.s.a.": TypeGPE,
	"delaware": TypeGPE, "california": TypeGPE, "new york": TypeGPE, "texas": TypeGPE, "washington": TypeGPE,
	"germany": TypeGPE, "federal republic of germany": TypeGPE, "berlin": TypeGPE, "munich": TypeGPE,
	"frankfurt": TypeGPE, "hamburg": TypeGPE,
	"united kingdom": TypeGPE, "england": TypeGPE, "wales": TypeGPE, "scotland": TypeGPE,
	"northern ireland": TypeGPE, "london": TypeGPE, "manchester": TypeGPE,
	"south africa": TypeGPE, "republic of south africa": TypeGPE, "cape town": TypeGPE,
	"johannesburg": TypeGPE, "pretoria": TypeGPE, "durban": TypeGPE,
	"united arab emirates": TypeGPE, "uae": TypeGPE, "dubai": TypeGPE, "abu dhabi": TypeGPE,
	"france": TypeGPE, "paris": TypeGPE, "netherlands": TypeGPE, "amsterdam": TypeGPE,
	"ireland": TypeGPE, "dublin": TypeGPE, "switzerland": TypeGPE, "zurich": TypeGPE,
	"canada": TypeGPE, "singapore": TypeGPE, "india": TypeGPE, "australia": TypeGPE,
	"europe": TypeLoc, "african continent": TypeLoc, "middle east": TypeLoc, "north america": TypeLoc,
	"european economic area": TypeLoc, "gulf region": TypeLoc,
}

var orgSuffixes = map[string]bool{
	"inc": true, "inc.": true, "incorporated": true, "llc": true, "l.l.c.": true,
	"ltd": true, "ltd.": true, "limited": true, "gmbh": true, "ag": true, "se": true,
	"corp": true, "corp.": true, "corporation": true, "plc": true, "llp": true, "lp": true,
	"s.a.": true, "b.v.": true, "n.v.": true, "co.": true, "company": true, "fze": true, "fzco": true,
}

// Words that never start an organization name even when capitalized.
var orgStopwords = map[string]bool{
	"the": true, "this": true, "and": true, "between": true, "by": true, "of": true, "with": true,
	"to": true, "for": true, "from": true, "agreement": true, "party": true, "parties": true,
	"whereas": true, "dated": true, "made": true,
}

const maxOrgWords = 4

var (
	personHonorific = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?[ \t]+([A-Z][a-z]+(?:[ \t]+[A-Z]\.)?(?:[ \t]+[A-Z][a-z]+){0,2})`)
	personNameLine  = regexp.MustCompile(`(?m)^[ \t]*(?:Name|Signed by|Signatory)[ \t]*:[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z]\.)?(?:[ \t]+[A-Z][a-z]+){1,2})[ \t]*$`)
	wordToken       = regexp.MustCompile(`[^\s,;:()"]+`)
)

// Gazetteer is an offline rule-based recognizer: place names from a fixed list,
// company names ending in a legal-form suffix, and people introduced by an
// honorific or a "Name:" line.
type Gazetteer struct {
	places     *regexp.Regexp
	placeTypes map[string]Type
}

// NewGazetteer returns a recognizer over the built-in place list plus extra places.
func NewGazetteer(extra map[string]Type) *Gazetteer {
	placeTypes := make(map[string]Type, len(defaultPlaces)+len(extra))
	for name, t := range defaultPlaces {
		placeTypes[name] = t
	}
	for name, t := range extra {
		placeTypes[strings.ToLower(strings.TrimSpace(name))] = t
	}
	names := make([]string, 0, len(placeTypes))
	for name := range placeTypes {
		names = append(names, regexp.QuoteMeta(name))
	}
	// longer names first so "united states of america" wins over "united states"
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return &Gazetteer{
		places:     regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(` + strings.Join(names, "|") + `)(?:$|[^\pL\pN])`),
		placeTypes: placeTypes,
	}
}

type span struct {
	start int
	ent   Entity
}

// Recognize returns entities in order of their first character.
func (g *Gazetteer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []span
	spans = append(spans, g.findPlaces(text)...)
	spans = append(spans, findOrgs(text)...)
	spans = append(spans, findPeople(text)...)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := make([]Entity, len(spans))
	for i, s := range spans {
		out[i] = s.ent
	}
	return out, nil
}

func (g *Gazetteer) findPlaces(text string) []span {
	var out []span
	for pos := 0; pos < len(text); {
		loc := g.places.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		name := text[start:end]
		out = append(out, span{start: start, ent: Entity{Text: name, Type: g.placeTypes[strings.ToLower(name)]}})
		// the trailing boundary rune may begin the next match
		pos = end
	}
	return out
}

func findOrgs(text string) []span {
	var out []span
	words := wordToken.FindAllStringIndex(text, -1)
	for i, w := range words {
		if !orgSuffixes[strings.ToLower(text[w[0]:w[1]])] {
			continue
		}
		first := i
		for j := i - 1; j >= 0 && i-j <= maxOrgWords; j-- {
			word := text[words[j][0]:words[j][1]]
			if strings.ContainsAny(text[words[j][1]:words[j+1][0]], "\n\r") {
				break
			}
			if !startsUpper(word) || orgStopwords[strings.ToLower(word)] {
				break
			}
			first = j
		}
		if first == i {
			continue
		}
		start, end := words[first][0], w[1]
		name := strings.TrimRight(text[start:end], ",")
		out = append(out, span{start: start, ent: Entity{Text: name, Type: TypeOrg}})
	}
	return out
}

func findPeople(text string) []span {
	var out []span
	for _, re := range []*regexp.Regexp{personHonorific, personNameLine} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, span{start: m[2], ent: Entity{Text: text[m[2]:m[3]], Type: TypePerson}})
		}
	}
	return out
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}
