// Package nlpclient calls a remote analysis service over HTTP.
package nlpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/config"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/resilience"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

// ErrDisabled is returned when no service URL is configured.
var ErrDisabled = errors.New("nlp service url not configured")

const (
	defaultTimeout  = 20 * time.Second
	defaultMaxChars = 200000
	maxErrorBody    = 512
)

// Client posts text to {URL}/analyze.
type Client struct {
	baseURL  string
	http     *http.Client
	maxChars int
	guard    *resilience.Guard
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client from cfg. A client without URL returns ErrDisabled from every call.
func New(cfg config.NLPConfig, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxChars := cfg.MaxTextChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	c := &Client{
		baseURL:  strings.TrimRight(config.NormalizeURL(cfg.URL), "/"),
		http:     &http.Client{Timeout: timeout},
		maxChars: maxChars,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.guard = resilience.NewGuard(resilience.Settings{
		Name:              "nlp-service",
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, c.logger)
	return c
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// URL returns the normalized service base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// Analyze sends document text for classification.
func (c *Client) Analyze(ctx context.Context, text string) (*models.ClassificationResult, error) {
	return c.AnalyzeWithContext(ctx, text, nil)
}

// AnalyzeWithContext sends text with optional hints describing the expected fields.
// Text beyond the configured limit is cut at a rune boundary.
func (c *Client) AnalyzeWithContext(ctx context.Context, text string, hints *models.AnalysisContext) (*models.ClassificationResult, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	ctx, span := otel.Tracer("nlpclient").Start(ctx, "nlp.analyze")
	defer span.End()

	body, err := json.Marshal(models.AnalyzeRequest{
		Text:    utils.HeadRunes(text, c.maxChars),
		Context: hints,
	})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}
	span.SetAttributes(
		attribute.String("nlp.url", c.baseURL),
		attribute.Int("nlp.request_bytes", len(body)),
		attribute.Bool("nlp.has_context", hints != nil),
	)

	start := time.Now()
	res, err := resilience.Do(ctx, c.guard, func() (*models.ClassificationResult, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("nlp.error", true))
		return nil, err
	}
	c.logger.Debug("nlp call",
		zap.String("url", c.baseURL+"/analyze"),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*models.ClassificationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nlp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("nlp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	res := models.NewClassificationResult()
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("decode nlp response: %w", err)
	}
	if res.Parties == nil {
		res.Parties = []string{}
	}
	return res, nil
}

// Health calls {URL}/health.
func (c *Client) Health(ctx context.Context) (*models.NLPHealth, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nlp health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nlp health returned %d", resp.StatusCode)
	}
	var h models.NLPHealth
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode nlp health: %w", err)
	}
	return &h, nil
}
