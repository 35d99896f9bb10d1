// Package analysis runs every classifier over a document's text and assembles one result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/heuristics"
	"github.com/fouadroumieh/legal-assistant/internal/jurisdiction"
	"github.com/fouadroumieh/legal-assistant/internal/labels"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/ner"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

const (
	// MaxParties caps the number of parties reported per document.
	MaxParties = 4
	// PartyScanRunes limits how much text is searched for parties.
	PartyScanRunes = 8000
)

// Analyzer produces a classification for document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.ClassificationResult, error)
}

// ContextAnalyzer is an Analyzer that can also take hints about the caller's intent.
type ContextAnalyzer interface {
	Analyzer
	AnalyzeWithContext(ctx context.Context, text string, hints *models.AnalysisContext) (*models.ClassificationResult, error)
}

// LabelClassifier picks a label from a bank.
type LabelClassifier interface {
	BestLabel(ctx context.Context, text string, bank labels.Bank) (string, float64, error)
}

// JurisdictionDetector finds the governing law of a text.
type JurisdictionDetector interface {
	Detect(ctx context.Context, text string) (jurisdiction.Result, error)
}

// Orchestrator runs the title, date, label, jurisdiction and party extractors
// concurrently. The extractors share nothing, so a failure in one leaves the
// others' fields intact.
type Orchestrator struct {
	classifier LabelClassifier
	detector   JurisdictionDetector
	recognizer ner.Recognizer
	agreement  labels.Bank
	industry   labels.Bank
	titleMax   int
	logger     *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTitleMax sets the longest line accepted as a title.
func WithTitleMax(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.titleMax = n
		}
	}
}

// WithBanks replaces the agreement and industry label banks.
func WithBanks(agreement, industry labels.Bank) Option {
	return func(o *Orchestrator) {
		o.agreement = agreement
		o.industry = industry
	}
}

// NewOrchestrator wires the extractors. recognizer may be nil, in which case no parties are reported.
func NewOrchestrator(classifier LabelClassifier, detector JurisdictionDetector, recognizer ner.Recognizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		detector:   detector,
		recognizer: recognizer,
		agreement:  labels.Agreement,
		industry:   labels.Industry,
		titleMax:   heuristics.AnalyzeTitleMax,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze classifies text. The result is never nil; fields whose extractor
// failed stay unset with zero confidence and the failures are joined into err.
func (o *Orchestrator) Analyze(ctx context.Context, text string) (*models.ClassificationResult, error) {
	res := models.NewClassificationResult()
	res.Title = heuristics.GuessTitle(text, o.titleMax)
	res.EffectiveDate = heuristics.FirstDate(text)

	var (
		wg      sync.WaitGroup
		errChan = make(chan error, 4)
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		code, conf, err := o.classifier.BestLabel(ctx, text, o.agreement)
		if err != nil {
			errChan <- fmt.Errorf("agreement type: %w", err)
			return
		}
		res.AgreementType, res.AgreementTypeConfidence = code, conf
	}()
	go func() {
		defer wg.Done()
		code, conf, err := o.classifier.BestLabel(ctx, text, o.industry)
		if err != nil {
			errChan <- fmt.Errorf("industry: %w", err)
			return
		}
		res.Industry, res.IndustryConfidence = code, conf
	}()
	go func() {
		defer wg.Done()
		j, err := o.detector.Detect(ctx, text)
		if err != nil {
			errChan <- fmt.Errorf("governing law: %w", err)
			return
		}
		res.GoverningLaw, res.GoverningLawConfidence = j.Code, j.Confidence
	}()
	go func() {
		defer wg.Done()
		parties, err := o.parties(ctx, text)
		if err != nil {
			errChan <- fmt.Errorf("parties: %w", err)
			return
		}
		res.Parties = parties
	}()

	wg.Wait()
	close(errChan)
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		o.logger.Warn("analysis incomplete", zap.Error(err))
	}
	return res, err
}

// AnalyzeWithContext is Analyze for callers that send question hints. Local analysis
// classifies the text the same way regardless of hints.
func (o *Orchestrator) AnalyzeWithContext(ctx context.Context, text string, hints *models.AnalysisContext) (*models.ClassificationResult, error) {
	if hints != nil {
		o.logger.Debug("analysis hints", zap.String("task", hints.Task), zap.Any("fields", hints.Fields))
	}
	return o.Analyze(ctx, text)
}

// parties returns up to MaxParties distinct organization and person names in first-seen order.
func (o *Orchestrator) parties(ctx context.Context, text string) ([]string, error) {
	out := []string{}
	if o.recognizer == nil {
		return out, nil
	}
	entities, err := o.recognizer.Recognize(ctx, utils.HeadRunes(text, PartyScanRunes))
	if err != nil {
		return out, err
	}
	seen := make(map[string]bool)
	for _, e := range ner.OfType(entities, ner.TypeOrg, ner.TypePerson) {
		name := strings.TrimSpace(e.Text)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		if len(out) == MaxParties {
			break
		}
	}
	return out, nil
}
