package embedding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/config"
)

// ONNXOptions configures the local ONNX embedder.
type ONNXOptions struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
	CacheSize  int
}

// New builds the embedder selected by cfg.Provider: "onnx", "gemini" or "mock".
// When the ONNX model cannot be loaded it falls back to the mock embedder with a warning.
func New(ctx context.Context, cfg config.EmbeddingConfig, geminiAPIKey string, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "onnx":
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:  cfg.ModelPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
			CacheSize:  cfg.CacheSize,
		})
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using mock embedder",
				zap.String("model", cfg.ModelName),
				zap.Error(err))
			return NewMockEmbedder(cfg.Dimensions), nil
		}
		return e, nil
	case "gemini", "google":
		return NewGeminiEmbedder(ctx, geminiAPIKey, cfg.GeminiModel, cfg.CacheSize, logger)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
