package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened so re-ingesting a document replaces its entry by ID.
// Remove the index directory after changing the mapping to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so party names match as written.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("key", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

// Index indexes a document by id, replacing any previous entry.
func (b *BleveIndex) Index(_ context.Context, id string, doc *Document) error {
	return b.index.Index(id, doc)
}

// Search runs a match query and returns up to limit results.
// With opts nil or both boosts <= 1 a single match over title and content is used.
// Otherwise title and content are queried separately and merged with additive scoring,
// a term coverage penalty and a phrase boost.
func (b *BleveIndex) Search(_ context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if limit <= 0 {
		limit = 10
	}
	o := SearchOptions{TitleBoost: 1, PhraseBoost: 1, Fuzziness: 2}
	if opts != nil {
		if opts.TitleBoost > 0 {
			o.TitleBoost = opts.TitleBoost
		}
		if opts.PhraseBoost > 0 {
			o.PhraseBoost = opts.PhraseBoost
		}
		if opts.Fuzziness > 0 {
			o.Fuzziness = opts.Fuzziness
		}
		o.FuzzyEnabled = opts.FuzzyEnabled
		o.Highlight = opts.Highlight
	}

	var (
		out []*Result
		err error
	)
	if o.TitleBoost <= 1.0 && o.PhraseBoost <= 1.0 {
		out, err = b.searchSingle(query, limit, o)
	} else {
		out, err = b.searchWithBoosts(query, limit, o)
	}
	if err != nil {
		return nil, err
	}
	if o.Highlight {
		b.attachFragments(query, out)
	}
	return out, nil
}

func (b *BleveIndex) searchSingle(query string, limit int, o SearchOptions) ([]*Result, error) {
	var q blevequery.Query
	if o.FuzzyEnabled {
		q = buildFuzzyQuery(query, o.Fuzziness, "")
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) searchWithBoosts(query string, limit int, o SearchOptions) ([]*Result, error) {
	// The same document can appear in both result sets, so over-fetch before merging.
	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}
	terms := tokenizeQuery(query)

	titleHits, err := b.fieldScores(query, "title", reqSize, o)
	if err != nil {
		return nil, fmt.Errorf("Bleve title search failed: %w", err)
	}
	contentHits, err := b.fieldScores(query, "content", reqSize, o)
	if err != nil {
		return nil, fmt.Errorf("Bleve content search failed: %w", err)
	}

	coverage := map[string]int{}
	if len(terms) > 1 {
		coverage = b.termCoverage(terms, reqSize, o)
	}
	phrases := map[string]bool{}
	if o.PhraseBoost > 1.0 && len(terms) > 1 {
		phrases = b.phraseMatches(query, reqSize)
	}

	ids := make(map[string]struct{}, len(titleHits)+len(contentHits))
	for id := range titleHits {
		ids[id] = struct{}{}
	}
	for id := range contentHits {
		ids[id] = struct{}{}
	}

	merged := make([]*Result, 0, len(ids))
	for id := range ids {
		score := titleHits[id]*o.TitleBoost + contentHits[id]
		if n := len(terms); n > 1 {
			// (matched/total)^2 ranks documents matching every term above partial matches.
			matched := coverage[id]
			if matched == 0 {
				matched = 1
			}
			c := float64(matched) / float64(n)
			score *= c * c
		}
		if phrases[id] {
			score *= o.PhraseBoost
		}
		merged = append(merged, &Result{ID: id, Score: score})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (b *BleveIndex) fieldScores(query, field string, size int, o SearchOptions) (map[string]float64, error) {
	var q blevequery.Query
	if o.FuzzyEnabled {
		q = buildFuzzyQuery(query, o.Fuzziness, field)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		q = mq
	}
	req := bleve.NewSearchRequest(q)
	req.Size = size
	results, err := b.index.Search(req)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(results.Hits))
	for _, hit := range results.Hits {
		scores[hit.ID] = hit.Score
	}
	return scores, nil
}

// termCoverage counts how many query terms each document matches.
func (b *BleveIndex) termCoverage(terms []string, size int, o SearchOptions) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		var q blevequery.Query
		if o.FuzzyEnabled {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(o.Fuzziness)
			q = fq
		} else {
			q = bleve.NewMatchQuery(term)
		}
		req := bleve.NewSearchRequest(q)
		req.Size = size
		results, err := b.index.Search(req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

func (b *BleveIndex) phraseMatches(query string, size int) map[string]bool {
	matches := make(map[string]bool)
	for _, field := range []string{"content", "title"} {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField(field)
		req := bleve.NewSearchRequest(pq)
		req.Size = size
		results, err := b.index.Search(req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			matches[hit.ID] = true
		}
	}
	return matches
}

// attachFragments fills Result.Fragments with highlighted content snippets.
func (b *BleveIndex) attachFragments(query string, results []*Result) {
	if len(results) == 0 {
		return
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	mq := bleve.NewMatchQuery(query)
	mq.SetField("content")
	q := bleve.NewConjunctionQuery(bleve.NewDocIDQuery(ids), mq)
	req := bleve.NewSearchRequest(q)
	req.Size = len(ids)
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")
	hits, err := b.index.Search(req)
	if err != nil {
		return
	}
	byID := make(map[string][]string, len(hits.Hits))
	for _, hit := range hits.Hits {
		byID[hit.ID] = hit.Fragments["content"]
	}
	for _, r := range results {
		r.Fragments = byID[r.ID]
	}
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery ORs a FuzzyQuery per term. An empty field searches all fields.
func buildFuzzyQuery(queryStr string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(_ context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
