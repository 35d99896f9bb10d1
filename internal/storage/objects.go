package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/config"
)

// Object is a fetched object with the head fields recorded on its DocumentRecord.
type Object struct {
	Body         []byte
	ContentType  string
	Size         int64
	ETag         string
	LastModified string
}

// ObjectStore reads and writes whole objects addressed by bucket and key.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (*Object, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// NewObjectStore returns the store selected by cfg.Type: "local" (default) or "s3".
func NewObjectStore(ctx context.Context, cfg config.ObjectsConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local", "fs":
		return NewLocalStore(cfg.Root)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown object store type: %s", cfg.Type)
	}
}

// ContentTypeFor guesses a content type from the key's extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	}
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
