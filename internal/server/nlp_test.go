package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

type fakeAnalyzer struct {
	text  string
	hints *models.AnalysisContext
	err   error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (*models.ClassificationResult, error) {
	return f.AnalyzeWithContext(ctx, text, nil)
}

func (f *fakeAnalyzer) AnalyzeWithContext(_ context.Context, text string, hints *models.AnalysisContext) (*models.ClassificationResult, error) {
	f.text, f.hints = text, hints
	res := models.NewClassificationResult()
	res.Title = "Mutual Non-Disclosure Agreement"
	if f.err == nil {
		res.AgreementType, res.AgreementTypeConfidence = "NDA", 0.91
	}
	return res, f.err
}

func TestNLP_Health(t *testing.T) {
	h := NewNLPService(&fakeAnalyzer{}, "paraphrase-MiniLM-L6-v2", nil).Routes()
	w := serve(h, http.MethodGet, "/health", "")
	var out models.NLPHealth
	decode(t, w, &out)
	if !out.OK || out.EmbedModel != "paraphrase-MiniLM-L6-v2" {
		t.Errorf("health: got %+v", out)
	}
}

func TestNLP_Analyze(t *testing.T) {
	a := &fakeAnalyzer{}
	h := NewNLPService(a, "m", nil).Routes()

	w := serve(h, http.MethodPost, "/analyze", `{"text":"This NDA ...","context":{"task":"extract_contract_filters"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var res models.ClassificationResult
	decode(t, w, &res)
	if res.AgreementType != "NDA" || res.Title == "" || res.Parties == nil {
		t.Errorf("result: got %+v", res)
	}
	if a.text != "This NDA ..." || a.hints == nil || a.hints.Task != "extract_contract_filters" {
		t.Errorf("analyzer got text %q hints %+v", a.text, a.hints)
	}
}

func TestNLP_AnalyzePartialFailure(t *testing.T) {
	h := NewNLPService(&fakeAnalyzer{err: errors.New("recognizer down")}, "m", nil).Routes()
	w := serve(h, http.MethodPost, "/analyze", `{"text":"x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var res models.ClassificationResult
	decode(t, w, &res)
	if res.Title == "" || res.AgreementType != "" {
		t.Errorf("partial result: got %+v", res)
	}
}

func TestNLP_AnalyzeBadBody(t *testing.T) {
	h := NewNLPService(&fakeAnalyzer{}, "m", nil).Routes()
	if w := serve(h, http.MethodPost, "/analyze", "{"); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", w.Code)
	}
}
