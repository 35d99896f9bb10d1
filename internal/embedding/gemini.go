package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/fouadroumieh/legal-assistant/internal/resilience"
	"github.com/fouadroumieh/legal-assistant/internal/vector"
)

const (
	geminiDefaultDims = 768
	geminiBatchLimit  = 100
)

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	cache  *EmbeddingCache
	guard  *resilience.Guard
	dims   atomic.Int64
}

// NewGeminiEmbedder connects to Gemini with apiKey and the named embedding model.
func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, cacheSize int, logger *zap.Logger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.EmbeddingModel(modelName)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	e := &GeminiEmbedder{
		client: client,
		model:  model,
		cache:  NewEmbeddingCache(cacheSize),
		guard:  resilience.NewGuard(resilience.Settings{Name: "gemini-embed", RequestsPerMinute: 1500}, logger),
	}
	e.dims.Store(geminiDefaultDims)
	return e, nil
}

// Embed returns the normalized embedding of text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	res, err := resilience.Do(ctx, e.guard, func() (*genai.EmbedContentResponse, error) {
		return e.model.EmbedContent(ctx, genai.Text(text))
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrNoEmbedding
	}
	return e.keep(text, res.Embedding.Values), nil
}

// EmbedBatch embeds uncached texts in batches of at most 100.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var pending []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			out[i] = cached
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(pending))
		chunk := pending[start:end]
		batch := e.model.NewBatch()
		for _, i := range chunk {
			batch.AddContent(genai.Text(texts[i]))
		}
		res, err := resilience.Do(ctx, e.guard, func() (*genai.BatchEmbedContentsResponse, error) {
			return e.model.BatchEmbedContents(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed: %w", err)
		}
		if res == nil || len(res.Embeddings) != len(chunk) {
			return nil, ErrNoEmbedding
		}
		for j, i := range chunk {
			if res.Embeddings[j] == nil || len(res.Embeddings[j].Values) == 0 {
				return nil, ErrNoEmbedding
			}
			out[i] = e.keep(texts[i], res.Embeddings[j].Values)
		}
	}
	return out, nil
}

func (e *GeminiEmbedder) keep(text string, values []float32) []float32 {
	emb := make([]float32, len(values))
	copy(emb, values)
	vector.Normalize(emb)
	e.dims.Store(int64(len(emb)))
	e.cache.Set(text, emb)
	return emb
}

// Dimensions reports the length of the last vector returned, or the model default before any call.
func (e *GeminiEmbedder) Dimensions() int {
	return int(e.dims.Load())
}

// Close releases the client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
