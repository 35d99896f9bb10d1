// Package query answers natural-language questions and reports over stored document records.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/analysis"
	"github.com/fouadroumieh/legal-assistant/internal/filters"
	"github.com/fouadroumieh/legal-assistant/internal/keyword"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
)

var (
	// ErrEmptyQuestion is returned for blank questions and search queries.
	ErrEmptyQuestion = errors.New("empty question provided")
	// ErrNotConfigured is returned when a dependency the call needs was not wired.
	ErrNotConfigured = errors.New("not configured")
)

const (
	// DefaultListLimit is the number of records List returns when no limit is given.
	DefaultListLimit = 25
	// DefaultSearchLimit caps Search results when no limit is given.
	DefaultSearchLimit = 10
)

// Service answers questions against a MetadataStore.
type Service struct {
	store     storage.MetadataStore
	analyzer  analysis.Analyzer
	index     keyword.Index
	minConf   float64
	listLimit int
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer sets the analyzer questions are sent to. Query requires one.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) {
		s.analyzer = a
	}
}

// WithKeywordIndex enables Search.
func WithKeywordIndex(idx keyword.Index) Option {
	return func(s *Service) {
		s.index = idx
	}
}

// WithMinConfidence sets the confidence gate for analysis-derived filters.
func WithMinConfidence(c float64) Option {
	return func(s *Service) {
		if c > 0 {
			s.minConf = c
		}
	}
}

// WithListLimit sets the default List size.
func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// WithClock overrides the time stamped on analysis hints.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a query service over store.
func NewService(store storage.MetadataStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		minConf:   filters.DefaultMinConfidence,
		listLimit: DefaultListLimit,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query derives filters from the question's words and from a live analysis of the question,
// then returns every stored document matching all of them. A question that yields no filters
// returns an ok response with no matches.
func (s *Service) Query(ctx context.Context, question string) (*models.QueryResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("analyzer: %w", ErrNotConfigured)
	}

	fromQuestion := filters.FromQuestion(question)
	fromAnalysis := filters.FromAnalysis(s.analyze(ctx, question), s.minConf)
	fs := filters.Merge(fromAnalysis, fromQuestion)
	s.logger.Debug("query filters",
		zap.String("question", question),
		zap.Any("question_filters", fromQuestion),
		zap.Any("analysis_filters", fromAnalysis),
	)

	resp := models.NewQueryResponse(fs)
	if len(fs) == 0 {
		return resp, nil
	}

	records, err := storage.ScanAll(ctx, s.store, 0)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Metadata == nil || !filters.Matches(rec.Metadata, fs) {
			continue
		}
		resp.Matches = append(resp.Matches, models.QueryMatch{
			Document:      rec.S3Key,
			GoverningLaw:  rec.Metadata.GoverningLaw,
			AgreementType: rec.Metadata.AgreementType,
			Industry:      rec.Metadata.Industry,
		})
	}
	return resp, nil
}

// analyze returns nil when the analyzer fails, so the question's own filters still apply.
func (s *Service) analyze(ctx context.Context, question string) *models.ClassificationResult {
	var (
		res *models.ClassificationResult
		err error
	)
	if ca, ok := s.analyzer.(analysis.ContextAnalyzer); ok {
		res, err = ca.AnalyzeWithContext(ctx, question, filters.BuildContext(question, s.now()))
	} else {
		res, err = s.analyzer.Analyze(ctx, question)
	}
	if err != nil {
		s.logger.Warn("question analysis failed", zap.Error(err))
		return nil
	}
	return res
}

// List returns up to limit records; a non-positive limit uses the configured default.
func (s *Service) List(ctx context.Context, limit int) ([]*models.DocumentRecord, error) {
	if limit <= 0 {
		limit = s.listLimit
	}
	records, err := storage.ScanAll(ctx, s.store, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.DocumentRecord{}
	}
	return records, nil
}

// Dashboard counts agreement types, jurisdictions and industries over all records.
func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	records, err := storage.ScanAll(ctx, s.store, 0)
	if err != nil {
		return nil, err
	}
	return filters.Tally(records), nil
}

// Search runs a full-text query over extracted text and joins hits with their records.
// Hits whose record no longer exists are dropped.
func (s *Service) Search(ctx context.Context, q string, limit int) ([]models.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	if s.index == nil {
		return nil, fmt.Errorf("keyword index: %w", ErrNotConfigured)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results, err := s.index.Search(ctx, q, limit, &keyword.SearchOptions{
		TitleBoost:  2.0,
		PhraseBoost: 1.5,
		Highlight:   true,
	})
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		rec, err := s.store.Get(ctx, r.ID)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("stale keyword hit", zap.String("document_id", r.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, models.SearchHit{
			DocumentID: rec.DocumentID,
			Document:   rec.S3Key,
			Score:      r.Score,
			Metadata:   rec.Metadata,
			Fragments:  r.Fragments,
		})
	}
	return hits, nil
}
