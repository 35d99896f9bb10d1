package watcher

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/ingest"
	"github.com/fouadroumieh/legal-assistant/internal/queue"
)

// Ingester is the part of the ingestion processor the dispatcher drives.
type Ingester interface {
	Process(ctx context.Context, rec ingest.Record) ingest.Outcome
	Upload(ctx context.Context, bucket, filePath string) (ingest.Record, error)
}

// Dispatcher turns settled inbox files into ingestion records.
//
// A file already inside the local object store root is ingested in place: the first
// path element is the bucket and the rest is the key. Any other file is uploaded into
// the default bucket first. Records are queued when an enqueuer is set, otherwise they
// are processed inline.
type Dispatcher struct {
	ingester   Ingester
	bucket     string
	objectRoot string
	textPrefix string
	enqueuer   queue.Enqueuer
	logger     *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObjectRoot sets the local object store root whose files are ingested in place.
func WithObjectRoot(root string) DispatcherOption {
	return func(d *Dispatcher) {
		if root != "" {
			d.objectRoot = filepath.Clean(root)
		}
	}
}

// WithTextPrefix sets the extracted-text prefix; files under it are never ingested.
func WithTextPrefix(prefix string) DispatcherOption {
	return func(d *Dispatcher) {
		if prefix != "" {
			d.textPrefix = prefix
		}
	}
}

// WithEnqueuer queues records for background workers instead of processing them inline.
func WithEnqueuer(e queue.Enqueuer) DispatcherOption {
	return func(d *Dispatcher) {
		d.enqueuer = e
	}
}

// WithDispatchLogger sets the logger.
func WithDispatchLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher uploading outside files into bucket.
func NewDispatcher(ingester Ingester, bucket string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		ingester:   ingester,
		bucket:     bucket,
		textPrefix: "extracted/",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle implements Handler.
func (d *Dispatcher) Handle(ctx context.Context, path string) {
	rec, ok, err := d.record(ctx, path)
	if err != nil {
		d.logger.Error("inbox upload failed", zap.String("path", path), zap.Error(err))
		return
	}
	if !ok {
		return
	}

	if d.enqueuer != nil {
		if err := d.enqueuer.Enqueue(ctx, rec); err != nil {
			d.logger.Error("enqueue failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	out := d.ingester.Process(ctx, rec)
	d.logger.Info("inbox file ingested",
		zap.String("path", path),
		zap.String("document_id", out.DocumentID),
		zap.String("status", out.Status),
	)
}

// record maps path to an ingestion record. ok is false for files that must be ignored.
func (d *Dispatcher) record(ctx context.Context, path string) (ingest.Record, bool, error) {
	if bucket, key, inside := d.locate(path); inside {
		if bucket == "" || key == "" || ingest.IsTextArtifact(d.textPrefix, key) {
			return ingest.Record{}, false, nil
		}
		return ingest.Record{Bucket: bucket, Key: ingest.EncodeKey(key)}, true, nil
	}
	rec, err := d.ingester.Upload(ctx, d.bucket, path)
	if err != nil {
		return ingest.Record{}, false, err
	}
	return rec, true, nil
}

// locate splits a path under the object root into bucket and key.
func (d *Dispatcher) locate(path string) (bucket, key string, inside bool) {
	if d.objectRoot == "" || !inDir(d.objectRoot, path) {
		return "", "", false
	}
	rel, err := filepath.Rel(d.objectRoot, filepath.Clean(path))
	if err != nil || rel == "." {
		return "", "", true
	}
	bucket, key, _ = strings.Cut(filepath.ToSlash(rel), "/")
	return bucket, key, true
}
