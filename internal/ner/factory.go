package ner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/config"
)

// New builds the recognizer selected by cfg.Recognizer: "gazetteer" (default) or "gemini".
func New(ctx context.Context, cfg config.NLPConfig, logger *zap.Logger) (Recognizer, error) {
	switch strings.ToLower(cfg.Recognizer) {
	case "", "gazetteer":
		return NewGazetteer(nil), nil
	case "gemini":
		return NewGeminiRecognizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RequestsPerMinute, logger)
	default:
		return nil, fmt.Errorf("unknown recognizer: %s", cfg.Recognizer)
	}
}
