package query

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fouadroumieh/legal-assistant/internal/keyword"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
)

type fakeAnalyzer struct {
	res *models.ClassificationResult
	err error
}

func (f *fakeAnalyzer) Analyze(context.Context, string) (*models.ClassificationResult, error) {
	return f.res, f.err
}

type hintAnalyzer struct {
	fakeAnalyzer
	hints *models.AnalysisContext
}

func (h *hintAnalyzer) AnalyzeWithContext(_ context.Context, _ string, hints *models.AnalysisContext) (*models.ClassificationResult, error) {
	h.hints = hints
	return h.res, h.err
}

func seedStore(t *testing.T) storage.MetadataStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"), "documents")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	docs := []struct {
		id, key string
		meta    *models.Metadata
	}{
		{"a1", "uploads/nda-uk.pdf", &models.Metadata{AgreementType: "NDA", GoverningLaw: "UK", Industry: "Technology"}},
		{"a2", "uploads/nda-us.pdf", &models.Metadata{AgreementType: "NDA", GoverningLaw: "US", Industry: "Finance"}},
		{"a3", "uploads/msa-uk.pdf", &models.Metadata{AgreementType: "MSA", GoverningLaw: "UK"}},
		{"a4", "uploads/msa-uk-tech.pdf", &models.Metadata{AgreementType: "MSA", GoverningLaw: "England", Industry: "Technology"}},
		{"a5", "uploads/pending.pdf", nil},
	}
	ctx := context.Background()
	for _, d := range docs {
		rec := &models.DocumentRecord{DocumentID: d.id, Bucket: "docs", S3Key: d.key, Metadata: d.meta}
		if err := store.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func documents(resp *models.QueryResponse) []string {
	out := make([]string, len(resp.Matches))
	for i, m := range resp.Matches {
		out[i] = m.Document
	}
	return out
}

func TestService_Query(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		question    string
		analyzer    *fakeAnalyzer
		wantFilters models.FilterSet
		wantDocs    []string
	}{
		{
			name:        "question filters only",
			question:    "Which NDAs are governed by UK law?",
			analyzer:    &fakeAnalyzer{res: models.NewClassificationResult()},
			wantFilters: models.FilterSet{models.FacetAgreementType: "NDA", models.FacetGoverningLaw: "UK"},
			wantDocs:    []string{"uploads/nda-uk.pdf"},
		},
		{
			name:     "analysis adds facets",
			question: "show me technology contracts",
			analyzer: &fakeAnalyzer{res: &models.ClassificationResult{
				AgreementType: "MSA", AgreementTypeConfidence: 0.9, GoverningLaw: "uk",
			}},
			wantFilters: models.FilterSet{
				models.FacetIndustry:      "Technology",
				models.FacetAgreementType: "MSA",
				models.FacetGoverningLaw:  "UK",
			},
			wantDocs: []string{"uploads/msa-uk-tech.pdf"},
		},
		{
			name:        "analysis failure degrades to question filters",
			question:    "Which NDAs are governed by UK law?",
			analyzer:    &fakeAnalyzer{err: errors.New("timeout")},
			wantFilters: models.FilterSet{models.FacetAgreementType: "NDA", models.FacetGoverningLaw: "UK"},
			wantDocs:    []string{"uploads/nda-uk.pdf"},
		},
		{
			name:        "no filters",
			question:    "hello there",
			analyzer:    &fakeAnalyzer{res: models.NewClassificationResult()},
			wantFilters: models.FilterSet{},
			wantDocs:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(store, WithAnalyzer(tt.analyzer))
			resp, err := svc.Query(ctx, tt.question)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if !resp.OK {
				t.Error("response should be ok")
			}
			if len(resp.FiltersApplied) != len(tt.wantFilters) {
				t.Errorf("filters = %v, want %v", resp.FiltersApplied, tt.wantFilters)
			}
			for k, v := range tt.wantFilters {
				if resp.FiltersApplied[k] != v {
					t.Errorf("filter %s = %q, want %q", k, resp.FiltersApplied[k], v)
				}
			}
			got := documents(resp)
			if resp.Matches == nil {
				t.Error("matches should never be nil")
			}
			if len(got) != len(tt.wantDocs) {
				t.Fatalf("matches = %v, want %v", got, tt.wantDocs)
			}
			for i := range tt.wantDocs {
				if got[i] != tt.wantDocs[i] {
					t.Errorf("match %d = %s, want %s", i, got[i], tt.wantDocs[i])
				}
			}
		})
	}
}

func TestService_QueryMatchFields(t *testing.T) {
	svc := NewService(seedStore(t), WithAnalyzer(&fakeAnalyzer{}))
	resp, err := svc.Query(context.Background(), "NDA under UK law")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	m := resp.Matches[0]
	if m.GoverningLaw != "UK" || m.AgreementType != "NDA" || m.Industry != "Technology" {
		t.Errorf("match = %+v", m)
	}
}

func TestService_QueryErrors(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	svc := NewService(store, WithAnalyzer(&fakeAnalyzer{}))
	for _, q := range []string{"", "   \n\t"} {
		if _, err := svc.Query(ctx, q); !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("Query(%q) err = %v, want ErrEmptyQuestion", q, err)
		}
	}

	if _, err := NewService(store).Query(ctx, "NDAs"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured without analyzer, got %v", err)
	}
}

func TestService_QuerySendsHints(t *testing.T) {
	analyzer := &hintAnalyzer{fakeAnalyzer: fakeAnalyzer{res: models.NewClassificationResult()}}
	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	svc := NewService(seedStore(t), WithAnalyzer(analyzer), WithClock(func() time.Time { return fixed }))

	if _, err := svc.Query(context.Background(), "  technology agreements under German law "); err != nil {
		t.Fatal(err)
	}
	h := analyzer.hints
	if h == nil {
		t.Fatal("hints not sent")
	}
	if !h.Hints.MentionsLaw || !h.Hints.MentionsAgreement || !h.Hints.MentionsIndustry {
		t.Errorf("hints = %+v", h.Hints)
	}
	if h.Timestamp != "2024-02-03T04:05:06Z" {
		t.Errorf("timestamp = %q", h.Timestamp)
	}
}

func TestService_List(t *testing.T) {
	svc := NewService(seedStore(t), WithListLimit(3))
	ctx := context.Background()

	recs, err := svc.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("default limit: got %d records", len(recs))
	}
	recs, _ = svc.List(ctx, 100)
	if len(recs) != 5 {
		t.Errorf("expected all 5 records, got %d", len(recs))
	}
}

func TestService_ListEmpty(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "empty.db"), "documents")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	recs, err := NewService(store).List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil list, got %v", recs)
	}
}

func TestService_Dashboard(t *testing.T) {
	d, err := NewService(seedStore(t)).Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.AgreementTypes["NDA"] != 2 || d.AgreementTypes["MSA"] != 2 {
		t.Errorf("agreement types = %v", d.AgreementTypes)
	}
	if d.Jurisdictions["UK"] != 2 || d.Jurisdictions["US"] != 1 || d.Jurisdictions["England"] != 1 {
		t.Errorf("jurisdictions = %v", d.Jurisdictions)
	}
	if d.Industries["Technology"] != 2 || d.Industries["Finance"] != 1 {
		t.Errorf("industries = %v", d.Industries)
	}
}

func TestService_Search(t *testing.T) {
	store := seedStore(t)
	idx, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Index(ctx, "a1", &keyword.Document{Title: "NDA", Content: "Acme Inc shall protect confidential information."})
	_ = idx.Index(ctx, "gone", &keyword.Document{Title: "Old", Content: "confidential draft"})

	svc := NewService(store, WithKeywordIndex(idx))
	hits, err := svc.Search(ctx, "confidential", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected stale hit dropped, got %+v", hits)
	}
	if hits[0].DocumentID != "a1" || hits[0].Document != "uploads/nda-uk.pdf" || hits[0].Metadata == nil {
		t.Errorf("hit = %+v", hits[0])
	}

	if _, err := svc.Search(ctx, " ", 5); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := NewService(store).Search(ctx, "x", 5); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
