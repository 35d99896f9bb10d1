package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/analysis"
	"github.com/fouadroumieh/legal-assistant/internal/docid"
	"github.com/fouadroumieh/legal-assistant/internal/extract"
	"github.com/fouadroumieh/legal-assistant/internal/heuristics"
	"github.com/fouadroumieh/legal-assistant/internal/keyword"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/nlpclient"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
)

// UploadPrefix is where files ingested from the command line are stored.
const UploadPrefix = "uploads/"

// Outcome is the per-record result. Status is "OK", "SKIPPED" or "ERROR: <reason>".
type Outcome struct {
	DocumentID string `json:"documentId,omitempty"`
	Key        string `json:"key"`
	Status     string `json:"status"`
}

// EventResult summarizes one event. Skipped records are not listed.
type EventResult struct {
	OK        bool      `json:"ok"`
	Reason    string    `json:"reason,omitempty"`
	Processed []Outcome `json:"processed,omitempty"`
}

// Processor ingests objects: read, extract, store text, analyze, persist.
type Processor struct {
	objects    storage.ObjectStore
	store      storage.MetadataStore
	extractor  *extract.Extractor
	analyzer   analysis.Analyzer
	index      keyword.Index
	textPrefix string
	titleMax   int
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithAnalyzer sets the analyzer. Without one, records get heuristic title and date only.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(p *Processor) {
		p.analyzer = a
	}
}

// WithKeywordIndex indexes extracted text for full-text search.
func WithKeywordIndex(idx keyword.Index) Option {
	return func(p *Processor) {
		p.index = idx
	}
}

// WithTextPrefix sets the key prefix of extracted text artifacts.
func WithTextPrefix(prefix string) Option {
	return func(p *Processor) {
		p.textPrefix = prefix
	}
}

// WithTitleMax sets the length cap of heuristic titles.
func WithTitleMax(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.titleMax = n
		}
	}
}

// WithClock overrides the time source used when an event carries no time.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a processor reading from objects and writing to store.
func NewProcessor(objects storage.ObjectStore, store storage.MetadataStore, opts ...Option) *Processor {
	p := &Processor{
		objects:    objects,
		store:      store,
		extractor:  extract.NewExtractor(),
		textPrefix: "extracted/",
		titleMax:   heuristics.IngestTitleMax,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process ingests one record. Failures never escape: they become an "ERROR: ..." status
// under a fresh random ID, so one bad object cannot stop a batch.
func (p *Processor) Process(ctx context.Context, rec Record) Outcome {
	key := UnquoteKey(rec.Key)
	log := p.logger.With(zap.String("bucket", rec.Bucket), zap.String("key", key))

	if IsTextArtifact(p.textPrefix, key) {
		log.Debug("skipping text artifact")
		return Outcome{Key: key, Status: models.StatusSkipped}
	}

	createdAt := rec.EventTime
	if createdAt == "" {
		createdAt = p.now().UTC().Format("2006-01-02T15:04:05Z")
	}

	id, status, err := p.ingest(ctx, rec.Bucket, key, createdAt, log)
	if err != nil {
		log.Error("ingestion failed", zap.Error(err))
		return Outcome{DocumentID: docid.Random(), Key: key, Status: models.IngestErrorStatus(err)}
	}
	log.Info("document ingested", zap.String("document_id", id), zap.String("ingestion_status", status))
	return Outcome{DocumentID: id, Key: key, Status: models.StatusOK}
}

func (p *Processor) ingest(ctx context.Context, bucket, key, createdAt string, log *zap.Logger) (string, string, error) {
	obj, err := p.objects.Get(ctx, bucket, key)
	if err != nil {
		return "", "", err
	}
	ext := extract.NormalizeExt(key)
	log.Debug("object read",
		zap.Int64("size", obj.Size),
		zap.String("content_type", obj.ContentType),
		zap.String("ext", ext),
	)

	extracted := p.extractor.ExtractBytes(obj.Body, ext)
	if extracted.Status == extract.StatusFailed {
		log.Warn("extraction failed", zap.Error(extracted.Err))
	}
	for _, w := range extracted.Warnings {
		log.Debug("extraction warning", zap.String("warning", w))
	}
	text := extracted.Text

	textKey := ""
	if text != "" {
		textKey = BuildTextKey(p.textPrefix, key)
		if err := p.objects.Put(ctx, bucket, textKey, []byte(text), TextContentType); err != nil {
			return "", "", fmt.Errorf("save extracted text: %w", err)
		}
	}

	var (
		res    *models.ClassificationResult
		nlpErr error
	)
	switch {
	case text == "":
		log.Warn("no text extracted; skipping analysis")
	case p.analyzer != nil:
		res, nlpErr = p.analyzer.Analyze(ctx, text)
		if errors.Is(nlpErr, nlpclient.ErrDisabled) {
			res, nlpErr = nil, nil
		}
		if nlpErr != nil {
			log.Warn("analysis error", zap.Error(nlpErr))
		}
	}

	meta := models.MetadataFromResult(res)
	base := path.Base(key)
	if text != "" {
		meta.Title = firstNonEmpty(meta.Title, heuristics.GuessTitle(text, p.titleMax), base)
	} else {
		meta.Title = base
	}
	if meta.EffectiveDate == "" {
		meta.EffectiveDate = heuristics.FirstDate(text)
	}
	meta.IngestionStatus = models.StatusOK
	if nlpErr != nil {
		meta.IngestionStatus = models.NLPErrorStatus(nlpErr)
	}

	id := docid.FromLocation(bucket, key)
	record := &models.DocumentRecord{
		DocumentID:   id,
		Bucket:       bucket,
		S3Key:        key,
		MimeType:     obj.ContentType,
		Size:         obj.Size,
		PageCount:    extracted.Units,
		TextKey:      textKey,
		CreatedAt:    createdAt,
		LastModified: obj.LastModified,
		ETag:         obj.ETag,
		NLPVersion:   models.NLPVersion,
	}
	if err := p.store.Put(ctx, record); err != nil {
		return "", "", err
	}
	if err := p.store.UpdateMetadata(ctx, id, meta); err != nil {
		return "", "", err
	}

	if p.index != nil && text != "" {
		doc := &keyword.Document{Title: meta.Title, Content: text, Key: key}
		if err := p.index.Index(ctx, id, doc); err != nil {
			log.Warn("keyword indexing failed", zap.String("document_id", id), zap.Error(err))
		}
	}
	return id, meta.IngestionStatus, nil
}

// HandleEvent processes every record of a raw notification event.
func (p *Processor) HandleEvent(ctx context.Context, raw []byte) (*EventResult, error) {
	recs, err := RecordsFromEvent(raw)
	if err != nil {
		return nil, err
	}
	p.logger.Info("parsed event", zap.Int("records", len(recs)))
	if len(recs) == 0 {
		return &EventResult{OK: false, Reason: "no-records"}, nil
	}

	out := &EventResult{OK: true, Processed: []Outcome{}}
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		o := p.Process(ctx, r)
		if o.Status != models.StatusSkipped {
			out.Processed = append(out.Processed, o)
		}
	}
	p.logger.Info("processed event", zap.Int("processed", len(out.Processed)))
	return out, nil
}

// Upload copies a local file into bucket under UploadPrefix and returns the record to ingest.
func (p *Processor) Upload(ctx context.Context, bucket, filePath string) (Record, error) {
	body, err := os.ReadFile(filePath)
	if err != nil {
		return Record{}, fmt.Errorf("read file: %w", err)
	}
	key := UploadPrefix + filepath.Base(filePath)
	if err := p.objects.Put(ctx, bucket, key, body, storage.ContentTypeFor(key)); err != nil {
		return Record{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return Record{Bucket: bucket, Key: EncodeKey(key)}, nil
}

// IngestFile uploads a local file and processes it.
func (p *Processor) IngestFile(ctx context.Context, bucket, filePath string) (Outcome, error) {
	rec, err := p.Upload(ctx, bucket, filePath)
	if err != nil {
		return Outcome{}, err
	}
	return p.Process(ctx, rec), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
