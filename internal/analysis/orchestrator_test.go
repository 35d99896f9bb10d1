package analysis

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/classify"
	"github.com/fouadroumieh/legal-assistant/internal/embedding"
	"github.com/fouadroumieh/legal-assistant/internal/jurisdiction"
	"github.com/fouadroumieh/legal-assistant/internal/labels"
	"github.com/fouadroumieh/legal-assistant/internal/ner"
)

type fakeClassifier struct {
	codes map[string]string
	err   error
}

func (f *fakeClassifier) BestLabel(_ context.Context, _ string, bank labels.Bank) (string, float64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return f.codes[bank.Name], 0.9, nil
}

type fakeDetector struct {
	res jurisdiction.Result
	err error
}

func (f *fakeDetector) Detect(context.Context, string) (jurisdiction.Result, error) {
	return f.res, f.err
}

type fakeRecognizer struct {
	entities []ner.Entity
	err      error
}

func (f *fakeRecognizer) Recognize(context.Context, string) ([]ner.Entity, error) {
	return f.entities, f.err
}

const ndaText = "NDA between Acme Inc and Globex LLC, governed by the laws of the State of Delaware."

func TestAnalyze_endToEnd(t *testing.T) {
	gaz := ner.NewGazetteer(nil)
	o := NewOrchestrator(
		classify.New(embedding.NewMockEmbedder(384)),
		jurisdiction.NewDetector(gaz),
		gaz,
		WithLogger(zap.NewNop()),
	)
	res, err := o.Analyze(context.Background(), ndaText)
	if err != nil {
		t.Fatal(err)
	}
	if res.AgreementType != "NDA" {
		t.Errorf("agreement_type = %s", res.AgreementType)
	}
	if res.GoverningLaw != "US" || res.GoverningLawConfidence != jurisdiction.HintConfidence {
		t.Errorf("governing_law = %s@%.2f", res.GoverningLaw, res.GoverningLawConfidence)
	}
	if res.Title != ndaText {
		t.Errorf("title = %q", res.Title)
	}
	if !reflect.DeepEqual(res.Parties, []string{"Acme Inc", "Globex LLC"}) {
		t.Errorf("parties = %v", res.Parties)
	}
	if res.Industry == "" {
		t.Error("industry is always chosen when embeddings succeed")
	}
}

func TestAnalyze_fieldsFromEachStep(t *testing.T) {
	o := NewOrchestrator(
		&fakeClassifier{codes: map[string]string{"agreement": "Lease", "industry": "Retail"}},
		&fakeDetector{res: jurisdiction.Result{Code: "ZA", Confidence: 0.7}},
		&fakeRecognizer{},
		WithTitleMax(10),
	)
	res, err := o.Analyze(context.Background(), "A very long first line here\nShort one\nDated 2023-04-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Short one" {
		t.Errorf("title = %q", res.Title)
	}
	if res.EffectiveDate != "2023-04-01" {
		t.Errorf("effective_date = %q", res.EffectiveDate)
	}
	if res.AgreementType != "Lease" || res.Industry != "Retail" || res.GoverningLaw != "ZA" {
		t.Errorf("result = %+v", res)
	}
	if res.Parties == nil || len(res.Parties) != 0 {
		t.Errorf("parties = %#v, want empty non-nil", res.Parties)
	}
}

func TestAnalyze_partiesDedupAndCap(t *testing.T) {
	rec := &fakeRecognizer{entities: []ner.Entity{
		{Text: " Acme Inc ", Type: ner.TypeOrg},
		{Text: "Berlin", Type: ner.TypeGPE},
		{Text: "Acme Inc", Type: ner.TypeOrg},
		{Text: "ACME INC", Type: ner.TypeOrg},
		{Text: "Jane Doe", Type: ner.TypePerson},
		{Text: "Globex LLC", Type: ner.TypeOrg},
		{Text: "Initech", Type: ner.TypeOrg},
	}}
	o := NewOrchestrator(&fakeClassifier{}, &fakeDetector{}, rec)
	res, err := o.Analyze(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Acme Inc", "ACME INC", "Jane Doe", "Globex LLC"}
	if !reflect.DeepEqual(res.Parties, want) {
		t.Errorf("parties = %v, want %v", res.Parties, want)
	}
}

func TestAnalyze_failuresLeaveFieldsUnset(t *testing.T) {
	embedErr := errors.New("embedder offline")
	nerErr := errors.New("ner offline")
	o := NewOrchestrator(
		&fakeClassifier{err: embedErr},
		&fakeDetector{res: jurisdiction.Result{Code: "DE", Confidence: 0.7}},
		&fakeRecognizer{err: nerErr},
	)
	res, err := o.Analyze(context.Background(), "MUTUAL NDA\nsigned 01/02/2022")
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if !errors.Is(err, embedErr) || !errors.Is(err, nerErr) {
		t.Fatalf("err = %v, want both failures joined", err)
	}
	if !strings.Contains(err.Error(), "agreement type") || !strings.Contains(err.Error(), "industry") {
		t.Errorf("err should name the failed steps: %v", err)
	}
	if res.AgreementType != "" || res.AgreementTypeConfidence != 0 || res.Industry != "" || res.IndustryConfidence != 0 {
		t.Errorf("labels should be unset: %+v", res)
	}
	if res.GoverningLaw != "DE" || res.Title != "MUTUAL NDA" || res.EffectiveDate != "01/02/2022" {
		t.Errorf("independent fields lost: %+v", res)
	}
	if res.Parties == nil {
		t.Error("parties should be empty, not nil")
	}
}

func TestAnalyze_nilRecognizer(t *testing.T) {
	o := NewOrchestrator(&fakeClassifier{}, &fakeDetector{}, nil)
	res, err := o.Analyze(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Parties) != 0 {
		t.Errorf("parties = %v", res.Parties)
	}
}
