// Package queue moves ingestion onto Redis-backed asynq workers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/config"
	"github.com/fouadroumieh/legal-assistant/internal/ingest"
)

// TaskIngestDocument carries one ingest.Record.
const TaskIngestDocument = "document:ingest"

const (
	ingestMaxRetry = 3
	ingestTimeout  = 10 * time.Minute
	ingestQueue    = "default"
)

// ErrNotConfigured is returned when no Redis address is set.
var ErrNotConfigured = errors.New("queue: redis address not configured")

// NewIngestTask builds a task for rec.
func NewIngestTask(rec ingest.Record) (*asynq.Task, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(ingestMaxRetry),
		asynq.Timeout(ingestTimeout),
		asynq.Queue(ingestQueue),
	), nil
}

// Enqueuer hands records to background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, rec ingest.Record) error
}

// Client enqueues ingest tasks on Redis.
type Client struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewClient connects to the Redis server in cfg.
func NewClient(cfg config.QueueConfig, logger *zap.Logger) (*Client, error) {
	if cfg.RedisAddr == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
		logger: logger,
	}, nil
}

// Enqueue schedules rec for ingestion.
func (c *Client) Enqueue(ctx context.Context, rec ingest.Record) error {
	task, err := NewIngestTask(rec)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", rec.Key, err)
	}
	c.logger.Debug("task enqueued",
		zap.String("task_id", info.ID),
		zap.String("bucket", rec.Bucket),
		zap.String("key", rec.Key),
	)
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// RecordProcessor ingests a single record.
type RecordProcessor interface {
	Process(ctx context.Context, rec ingest.Record) ingest.Outcome
}

// Handler runs ingest tasks.
type Handler struct {
	processor RecordProcessor
	logger    *zap.Logger
}

// NewHandler creates a handler backed by processor.
func NewHandler(processor RecordProcessor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{processor: processor, logger: logger}
}

// ProcessTask ingests the task's record. Undecodable payloads are not retried; an
// ingestion error is returned so asynq retries it.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var rec ingest.Record
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if rec.Bucket == "" || rec.Key == "" {
		return fmt.Errorf("incomplete record %+v: %w", rec, asynq.SkipRetry)
	}
	out := h.processor.Process(ctx, rec)
	h.logger.Info("ingest task done",
		zap.String("key", out.Key),
		zap.String("document_id", out.DocumentID),
		zap.String("status", out.Status),
	)
	if strings.HasPrefix(out.Status, "ERROR: ") {
		return errors.New(strings.TrimPrefix(out.Status, "ERROR: "))
	}
	return nil
}

// NewServeMux routes ingest tasks to h.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskIngestDocument, h)
	return mux
}

// NewServer creates a worker server for cfg.
func NewServer(cfg config.QueueConfig, logger *zap.Logger) (*asynq.Server, error) {
	if cfg.RedisAddr == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	), nil
}
