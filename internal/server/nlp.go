package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/analysis"
	"github.com/fouadroumieh/legal-assistant/internal/models"
)

// maxAnalyzeBytes bounds an /analyze body.
const maxAnalyzeBytes = 8 << 20

// NLPService serves document analysis.
type NLPService struct {
	analyzer   analysis.ContextAnalyzer
	embedModel string
	logger     *zap.Logger
}

// NewNLPService creates the analysis service. embedModel is reported by /health.
func NewNLPService(analyzer analysis.ContextAnalyzer, embedModel string, logger *zap.Logger) *NLPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NLPService{analyzer: analyzer, embedModel: embedModel, logger: logger}
}

// Routes returns the analysis router.
func (s *NLPService) Routes() http.Handler {
	r := newRouter(s.logger)
	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	return r
}

func (s *NLPService) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.NLPHealth{OK: true, EmbedModel: s.embedModel})
}

// handleAnalyze always answers with a result; extractor failures only leave fields empty.
func (s *NLPService) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	res, err := s.analyzer.AnalyzeWithContext(r.Context(), req.Text, req.Context)
	if err != nil {
		s.logger.Warn("analysis returned partial result", zap.Error(err))
	}
	if res == nil {
		res = models.NewClassificationResult()
	}
	respondJSON(w, http.StatusOK, res)
}
