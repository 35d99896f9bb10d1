package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/analysis"
	"github.com/fouadroumieh/legal-assistant/internal/classify"
	"github.com/fouadroumieh/legal-assistant/internal/config"
	"github.com/fouadroumieh/legal-assistant/internal/embedding"
	"github.com/fouadroumieh/legal-assistant/internal/ingest"
	"github.com/fouadroumieh/legal-assistant/internal/jurisdiction"
	"github.com/fouadroumieh/legal-assistant/internal/keyword"
	"github.com/fouadroumieh/legal-assistant/internal/ner"
	"github.com/fouadroumieh/legal-assistant/internal/nlpclient"
	"github.com/fouadroumieh/legal-assistant/internal/query"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
)

// Components holds the long-lived handles a subcommand needs.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    storage.MetadataStore
	Objects  storage.ObjectStore
	Index    keyword.Index
	Analyzer analysis.ContextAnalyzer

	closers []io.Closer
}

// Close releases every handle in reverse order of creation.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}

func (c *Components) Processor() *ingest.Processor {
	opts := []ingest.Option{
		ingest.WithTextPrefix(c.Config.Objects.TextPrefix),
		ingest.WithTitleMax(c.Config.Heuristics.TitleMaxIngest),
		ingest.WithLogger(c.Logger),
	}
	if c.Analyzer != nil {
		opts = append(opts, ingest.WithAnalyzer(c.Analyzer))
	}
	if c.Index != nil {
		opts = append(opts, ingest.WithKeywordIndex(c.Index))
	}
	return ingest.NewProcessor(c.Objects, c.Store, opts...)
}

func (c *Components) QueryService() *query.Service {
	opts := []query.Option{
		query.WithMinConfidence(c.Config.Query.MinConfidence),
		query.WithListLimit(c.Config.Query.ListLimit),
		query.WithLogger(c.Logger),
	}
	if c.Analyzer != nil {
		opts = append(opts, query.WithAnalyzer(c.Analyzer))
	}
	if c.Index != nil {
		opts = append(opts, query.WithKeywordIndex(c.Index))
	}
	return query.NewService(c.Store, opts...)
}

// componentSet selects which optional handles to open.
type componentSet struct {
	analyzer bool
	index    bool
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, want componentSet) (*Components, error) {
	c := &Components{Config: cfg, Logger: logger}

	store, err := storage.NewMetadataStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	c.Store = store
	c.closers = append(c.closers, store)

	objects, err := storage.NewObjectStore(ctx, cfg.Objects)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}
	c.Objects = objects

	if want.index && cfg.Storage.BleveIndexPath != "" {
		idx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		c.Index = idx
		c.closers = append(c.closers, idx)
	}

	if want.analyzer {
		if cfg.NLP.URL != "" {
			client := nlpclient.New(cfg.NLP, nlpclient.WithLogger(logger))
			logger.Info("using remote analysis service", zap.String("nlp_url", client.URL()))
			c.Analyzer = client
		} else {
			orch, closers, err := newLocalAnalyzer(ctx, cfg, logger)
			if err != nil {
				c.Close()
				return nil, err
			}
			c.Analyzer = orch
			c.closers = append(c.closers, closers...)
		}
	}
	return c, nil
}

// newLocalAnalyzer wires the in-process classifier stack.
func newLocalAnalyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*analysis.Orchestrator, []io.Closer, error) {
	embedder, err := embedding.New(ctx, cfg.Embedding, cfg.NLP.GeminiAPIKey, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	closers := []io.Closer{embedder}

	recognizer, err := ner.New(ctx, cfg.NLP, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("failed to initialize recognizer: %w", err)
	}
	if cl, ok := recognizer.(io.Closer); ok {
		closers = append(closers, cl)
	}

	orch := analysis.NewOrchestrator(
		classify.New(embedder, classify.WithLogger(logger)),
		jurisdiction.NewDetector(recognizer),
		recognizer,
		analysis.WithTitleMax(cfg.Heuristics.TitleMaxAnalyze),
		analysis.WithLogger(logger),
	)
	logger.Info("local analysis initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("recognizer", cfg.NLP.Recognizer),
	)
	return orch, closers, nil
}
