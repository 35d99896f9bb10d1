package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/docid"
	"github.com/fouadroumieh/legal-assistant/internal/keyword"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/nlpclient"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
)

const ndaText = `MUTUAL NON-DISCLOSURE AGREEMENT

This Agreement is made on 2024-03-15 between Acme Inc and Globex LLC.
Confidential information shall not be disclosed.`

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	res   *models.ClassificationResult
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*models.ClassificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.res, f.err
}

type fixture struct {
	objects *storage.LocalStore
	store   *storage.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	objects, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "objects"))
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"), "documents")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return &fixture{objects: objects, store: store}
}

func (f *fixture) put(t *testing.T, key, body string) {
	t.Helper()
	if err := f.objects.Put(context.Background(), "docs", key, []byte(body), ""); err != nil {
		t.Fatal(err)
	}
}

func ndaResult() *models.ClassificationResult {
	return &models.ClassificationResult{
		AgreementType:           "NDA",
		AgreementTypeConfidence: 0.9,
		GoverningLaw:            "US",
		GoverningLawConfidence:  0.7,
		Industry:                "Technology",
		IndustryConfidence:      0.4,
		Parties:                 []string{"Acme Inc", "Globex LLC"},
	}
}

func TestProcessor_Process(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	analyzer := &fakeAnalyzer{res: ndaResult()}
	p := NewProcessor(f.objects, f.store, WithAnalyzer(analyzer), WithLogger(zap.NewNop()))
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md", EventTime: "2024-05-01T10:00:00Z"})
	if out.Status != models.StatusOK {
		t.Fatalf("status = %q", out.Status)
	}
	wantID := docid.FromLocation("docs", "uploads/nda.md")
	if out.DocumentID != wantID || out.Key != "uploads/nda.md" {
		t.Errorf("outcome = %+v, want id %s", out, wantID)
	}

	rec, err := f.store.Get(ctx, wantID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.TextKey != "extracted/uploads/nda.md.txt" || rec.CreatedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("record = %+v", rec)
	}
	if rec.NLPVersion != models.NLPVersion || rec.Size != int64(len(ndaText)) || rec.ETag == "" {
		t.Errorf("head fields not recorded: %+v", rec)
	}
	m := rec.Metadata
	if m == nil {
		t.Fatal("metadata missing")
	}
	if m.Title != "MUTUAL NON-DISCLOSURE AGREEMENT" {
		t.Errorf("title = %q", m.Title)
	}
	if m.EffectiveDate != "2024-03-15" {
		t.Errorf("effective date = %q", m.EffectiveDate)
	}
	if m.AgreementType != "NDA" || m.GoverningLaw != "US" || len(m.Parties) != 2 {
		t.Errorf("classification not stored: %+v", m)
	}
	if m.IngestionStatus != models.StatusOK {
		t.Errorf("ingestion status = %q", m.IngestionStatus)
	}

	text, err := f.objects.Get(ctx, "docs", "extracted/uploads/nda.md.txt")
	if err != nil {
		t.Fatalf("text artifact missing: %v", err)
	}
	if string(text.Body) != ndaText {
		t.Errorf("text artifact = %q", text.Body)
	}
}

func TestProcessor_ReingestUpserts(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	p := NewProcessor(f.objects, f.store, WithAnalyzer(&fakeAnalyzer{res: ndaResult()}))
	ctx := context.Background()

	first := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md"})
	second := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md"})
	if first.DocumentID != second.DocumentID {
		t.Errorf("re-ingest changed id: %s vs %s", first.DocumentID, second.DocumentID)
	}
	if n, _ := f.store.Count(ctx); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestProcessor_AnalysisErrorKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	partial := &models.ClassificationResult{AgreementType: "NDA", AgreementTypeConfidence: 0.8, Parties: []string{}}
	p := NewProcessor(f.objects, f.store, WithAnalyzer(&fakeAnalyzer{res: partial, err: errors.New("embedder down")}))
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md"})
	if out.Status != models.StatusOK {
		t.Fatalf("status = %q", out.Status)
	}
	rec, err := f.store.Get(ctx, out.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata.IngestionStatus != "NLP_ERROR: embedder down" {
		t.Errorf("ingestion status = %q", rec.Metadata.IngestionStatus)
	}
	if rec.Metadata.AgreementType != "NDA" {
		t.Errorf("partial result should be kept, got %+v", rec.Metadata)
	}
	if rec.Metadata.Title != "MUTUAL NON-DISCLOSURE AGREEMENT" || rec.Metadata.EffectiveDate != "2024-03-15" {
		t.Errorf("heuristic fallbacks not applied: %+v", rec.Metadata)
	}
}

func TestProcessor_DisabledAnalyzerIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	p := NewProcessor(f.objects, f.store, WithAnalyzer(&fakeAnalyzer{err: nlpclient.ErrDisabled}))
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md"})
	rec, err := f.store.Get(ctx, out.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata.IngestionStatus != models.StatusOK {
		t.Errorf("ingestion status = %q", rec.Metadata.IngestionStatus)
	}
}

func TestProcessor_EmptyText(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/blank.md", "")
	analyzer := &fakeAnalyzer{res: ndaResult()}
	p := NewProcessor(f.objects, f.store, WithAnalyzer(analyzer))
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/blank.md"})
	if out.Status != models.StatusOK {
		t.Fatalf("status = %q", out.Status)
	}
	if analyzer.calls != 0 {
		t.Errorf("analyzer should not run on empty text, ran %d times", analyzer.calls)
	}
	rec, _ := f.store.Get(ctx, out.DocumentID)
	if rec.TextKey != "" {
		t.Errorf("no text key expected, got %q", rec.TextKey)
	}
	if rec.Metadata.Title != "blank.md" || rec.Metadata.AgreementType != "" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
}

func TestProcessor_SkipsTextArtifacts(t *testing.T) {
	f := newFixture(t)
	analyzer := &fakeAnalyzer{}
	p := NewProcessor(f.objects, f.store, WithAnalyzer(analyzer), WithTextPrefix("text/"))

	for _, key := range []string{"text/uploads/a.pdf.txt", "uploads/readme.txt"} {
		out := p.Process(context.Background(), Record{Bucket: "docs", Key: key})
		if out.Status != models.StatusSkipped || out.DocumentID != "" {
			t.Errorf("%s: outcome = %+v", key, out)
		}
	}
	if analyzer.calls != 0 {
		t.Error("skipped keys must not be analyzed")
	}
}

func TestProcessor_MissingObject(t *testing.T) {
	f := newFixture(t)
	p := NewProcessor(f.objects, f.store)
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/gone.pdf"})
	if !strings.HasPrefix(out.Status, "ERROR: ") {
		t.Fatalf("status = %q", out.Status)
	}
	id, err := uuid.Parse(out.DocumentID)
	if err != nil || id.Version() != 4 {
		t.Errorf("error outcome should carry a random id, got %q", out.DocumentID)
	}
	if n, _ := f.store.Count(ctx); n != 0 {
		t.Errorf("no record expected, got %d", n)
	}
}

func TestProcessor_DefaultCreatedAt(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	p := NewProcessor(f.objects, f.store, WithClock(func() time.Time { return fixed }))

	out := p.Process(context.Background(), Record{Bucket: "docs", Key: "uploads/nda.md"})
	rec, err := f.store.Get(context.Background(), out.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt != "2024-06-01T10:00:00Z" {
		t.Errorf("createdAt = %q", rec.CreatedAt)
	}
}

func TestProcessor_KeywordIndex(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/nda.md", ndaText)
	idx, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	p := NewProcessor(f.objects, f.store, WithKeywordIndex(idx))
	ctx := context.Background()

	out := p.Process(ctx, Record{Bucket: "docs", Key: "uploads/nda.md"})
	hits, err := idx.Search(ctx, "globex", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != out.DocumentID {
		t.Errorf("indexed hits = %+v, want %s", hits, out.DocumentID)
	}
}

func TestProcessor_HandleEvent(t *testing.T) {
	f := newFixture(t)
	f.put(t, "uploads/My NDA.md", ndaText)
	p := NewProcessor(f.objects, f.store)
	ctx := context.Background()

	res, err := p.HandleEvent(ctx, []byte(`{"Records":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Reason != "no-records" {
		t.Errorf("empty event result = %+v", res)
	}

	raw := `{"Records":[
		{"s3":{"bucket":{"name":"docs"},"object":{"key":"uploads/My+NDA.md"}}},
		{"s3":{"bucket":{"name":"docs"},"object":{"key":"extracted/uploads/My+NDA.md.txt"}}},
		{"s3":{"bucket":{"name":"docs"},"object":{"key":"uploads/missing.pdf"}}}
	]}`
	res, err = p.HandleEvent(ctx, []byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || len(res.Processed) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Processed[0].Key != "uploads/My NDA.md" || res.Processed[0].Status != models.StatusOK {
		t.Errorf("first outcome = %+v", res.Processed[0])
	}
	if !strings.HasPrefix(res.Processed[1].Status, "ERROR: ") {
		t.Errorf("second outcome = %+v", res.Processed[1])
	}

	if _, err := p.HandleEvent(ctx, []byte("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestProcessor_IngestFile(t *testing.T) {
	f := newFixture(t)
	p := NewProcessor(f.objects, f.store)
	path := filepath.Join(t.TempDir(), "Office Lease.md")
	if err := os.WriteFile(path, []byte("OFFICE LEASE\nLandlord: Acme Inc"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := p.IngestFile(context.Background(), "docs", path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Key != "uploads/Office Lease.md" || out.Status != models.StatusOK {
		t.Errorf("outcome = %+v", out)
	}
	rec, err := f.store.Get(context.Background(), out.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata.Title != "OFFICE LEASE" {
		t.Errorf("title = %q", rec.Metadata.Title)
	}
}
