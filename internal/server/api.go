package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/ingest"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/query"
	"github.com/fouadroumieh/legal-assistant/internal/queue"
)

// maxEventBytes bounds the body of an ingest notification.
const maxEventBytes = 1 << 20

// Querier answers document questions.
type Querier interface {
	Query(ctx context.Context, question string) (*models.QueryResponse, error)
	List(ctx context.Context, limit int) ([]*models.DocumentRecord, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Search(ctx context.Context, q string, limit int) ([]models.SearchHit, error)
}

// EventHandler ingests a raw bucket notification.
type EventHandler interface {
	HandleEvent(ctx context.Context, raw []byte) (*ingest.EventResult, error)
}

// API serves the document endpoints.
type API struct {
	querier  Querier
	events   EventHandler
	enqueuer queue.Enqueuer
	region   string
	nlpURL   string
	logger   *zap.Logger
}

// APIOption configures an API.
type APIOption func(*API)

// WithEventHandler enables POST /ingest with inline processing.
func WithEventHandler(h EventHandler) APIOption {
	return func(a *API) {
		a.events = h
	}
}

// WithEnqueuer makes POST /ingest queue records instead of processing them inline.
func WithEnqueuer(e queue.Enqueuer) APIOption {
	return func(a *API) {
		a.enqueuer = e
	}
}

// WithHealthInfo sets the region and analysis URL reported by /health.
func WithHealthInfo(region, nlpURL string) APIOption {
	return func(a *API) {
		a.region = region
		a.nlpURL = nlpURL
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) APIOption {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPI creates the document API over querier.
func NewAPI(querier Querier, opts ...APIOption) *API {
	a := &API{querier: querier, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes returns the API router.
func (a *API) Routes() http.Handler {
	r := newRouter(a.logger)
	r.Get("/health", a.handleHealth)
	r.Get("/docs", a.handleListDocs)
	r.Post("/query", a.handleQuery)
	r.Get("/dashboard", a.handleDashboard)
	r.Get("/search", a.handleSearch)
	r.Post("/ingest", a.handleIngest)
	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"region":  a.region,
		"nlp_url": a.nlpURL,
	})
}

func (a *API) handleListDocs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	docs, err := a.querier.List(r.Context(), limit)
	if err != nil {
		a.logger.Error("list documents failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (a *API) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := a.querier.Query(r.Context(), req.Question)
	switch {
	case errors.Is(err, query.ErrEmptyQuestion):
		respondError(w, http.StatusBadRequest, "Empty question provided")
		return
	case errors.Is(err, query.ErrNotConfigured):
		respondError(w, http.StatusInternalServerError, "NLP_URL not configured")
		return
	case err != nil:
		a.logger.Error("query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := a.querier.Dashboard(r.Context())
	if err != nil {
		a.logger.Error("dashboard failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, dash)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	hits, err := a.querier.Search(r.Context(), r.URL.Query().Get("q"), limit)
	switch {
	case errors.Is(err, query.ErrEmptyQuestion):
		respondError(w, http.StatusBadRequest, "q is required")
		return
	case errors.Is(err, query.ErrNotConfigured):
		respondError(w, http.StatusNotImplemented, "search index not configured")
		return
	case err != nil:
		a.logger.Error("search failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "hits": hits})
}

func (a *API) handleIngest(w http.ResponseWriter, r *http.Request) {
	if a.events == nil && a.enqueuer == nil {
		respondError(w, http.StatusNotImplemented, "ingestion not enabled")
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if a.enqueuer != nil {
		a.enqueue(w, r, raw)
		return
	}
	res, err := a.events.HandleEvent(r.Context(), raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (a *API) enqueue(w http.ResponseWriter, r *http.Request, raw []byte) {
	recs, err := ingest.RecordsFromEvent(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(recs) == 0 {
		respondJSON(w, http.StatusOK, &ingest.EventResult{OK: false, Reason: "no-records"})
		return
	}
	for _, rec := range recs {
		if err := a.enqueuer.Enqueue(r.Context(), rec); err != nil {
			a.logger.Error("enqueue failed", zap.String("key", rec.Key), zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"ok": true, "queued": len(recs)})
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
