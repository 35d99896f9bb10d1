// Package classify picks the closest label from a bank by embedding similarity.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/embedding"
	"github.com/fouadroumieh/legal-assistant/internal/labels"
	"github.com/fouadroumieh/legal-assistant/internal/vector"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

// MaxTextRunes is how much of a document is embedded for classification.
const MaxTextRunes = 5000

// ErrEmptyBank is returned when classifying against a bank without labels.
var ErrEmptyBank = errors.New("label bank is empty")

// Classifier scores text against label anchors. Anchor embeddings are computed
// on first use of a bank and kept for the life of the classifier.
type Classifier struct {
	embedder embedding.Embedder
	logger   *zap.Logger

	mu      sync.Mutex
	anchors map[string]*vector.AnchorSet
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a classifier backed by embedder.
func New(embedder embedding.Embedder, opts ...Option) *Classifier {
	c := &Classifier{
		embedder: embedder,
		logger:   zap.NewNop(),
		anchors:  make(map[string]*vector.AnchorSet),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BestLabel returns the code of the label most similar to text and its cosine similarity.
// There is no minimum score: some label is always chosen. Ties go to the earlier label.
func (c *Classifier) BestLabel(ctx context.Context, text string, bank labels.Bank) (string, float64, error) {
	if len(bank.Labels) == 0 {
		return "", 0, ErrEmptyBank
	}
	set, err := c.anchorSet(ctx, bank)
	if err != nil {
		return "", 0, err
	}

	query, err := c.embedder.Embed(ctx, utils.HeadRunes(text, MaxTextRunes))
	if err != nil {
		return "", 0, fmt.Errorf("embed text: %w", err)
	}
	best, err := set.Nearest(query)
	if err != nil {
		return "", 0, fmt.Errorf("score %s labels: %w", bank.Name, err)
	}
	return best.Label, best.Score, nil
}

func (c *Classifier) anchorSet(ctx context.Context, bank labels.Bank) (*vector.AnchorSet, error) {
	anchors := bank.Anchors()
	key := bank.Name + "\x00" + strings.Join(anchors, "\x1f")

	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.anchors[key]; ok {
		return set, nil
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}

	vecs, err := c.embedder.EmbedBatch(ctx, anchors)
	if err != nil {
		return nil, fmt.Errorf("embed %s anchors: %w", bank.Name, err)
	}
	if len(vecs) != len(anchors) {
		return nil, fmt.Errorf("embed %s anchors: %w", bank.Name, embedding.ErrNoEmbedding)
	}
	set, err := vector.NewAnchorSet(bank.Codes(), vecs)
	if err != nil {
		return nil, fmt.Errorf("index %s anchors: %w", bank.Name, err)
	}
	c.anchors[key] = set
	c.logger.Debug("label anchors embedded",
		zap.String("bank", bank.Name),
		zap.Int("labels", set.Len()),
		zap.Int("dimensions", set.Dimensions()))
	return set, nil
}
