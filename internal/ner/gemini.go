package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/fouadroumieh/legal-assistant/internal/resilience"
)

const geminiPrompt = `Extract named entities from the contract text below.
Return a JSON array of objects {"text": string, "type": string} in order of appearance,
where type is one of ORG, PERSON, GPE (countries, states, cities) or LOC (other locations).
Copy entity text exactly as written. Return [] when there are none.

TEXT:
`

// GeminiRecognizer asks a Gemini model for entities as JSON.
type GeminiRecognizer struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	guard     *resilience.Guard
	logger    *zap.Logger
}

// NewGeminiRecognizer connects to Gemini with apiKey.
func NewGeminiRecognizer(ctx context.Context, apiKey, modelName string, requestsPerMinute int, logger *zap.Logger) (*GeminiRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	return &GeminiRecognizer{
		client:    client,
		model:     model,
		modelName: modelName,
		guard: resilience.NewGuard(resilience.Settings{
			Name:              "gemini-ner",
			RequestsPerMinute: requestsPerMinute,
		}, logger),
		logger: logger,
	}, nil
}

// Recognize sends text to the model and parses the returned entity list.
func (r *GeminiRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	ctx, span := otel.Tracer("ner").Start(ctx, "gemini.recognize")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", r.modelName),
		attribute.Int("ner.text_len", len(text)),
	)

	resp, err := resilience.Do(ctx, r.guard, func() (*genai.GenerateContentResponse, error) {
		return r.model.GenerateContent(ctx, genai.Text(geminiPrompt+text))
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, fmt.Errorf("gemini recognize: %w", err)
	}
	entities, err := parseEntities(responseText(resp))
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}
	span.SetAttributes(attribute.Int("ner.entities", len(entities)))
	return entities, nil
}

// Close releases the client.
func (r *GeminiRecognizer) Close() error {
	return r.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	return b.String()
}

// parseEntities decodes the model output, tolerating a fenced code block, and drops unknown tags.
func parseEntities(raw string) ([]Entity, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var items []Entity
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	out := items[:0]
	for _, e := range items {
		e.Text = strings.TrimSpace(e.Text)
		e.Type = Type(strings.ToUpper(string(e.Type)))
		if e.Text == "" || !e.Type.Valid() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
