// Package storage persists document records and the objects they were extracted from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fouadroumieh/legal-assistant/internal/config"
	"github.com/fouadroumieh/legal-assistant/internal/models"
)

var (
	// ErrNotFound is returned when a record or object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTable is returned for table names that are not plain identifiers.
	ErrInvalidTable = errors.New("invalid table name")
)

// DefaultPageSize is the number of records fetched per ScanPage call by ScanAll.
const DefaultPageSize = 100

// MetadataStore persists DocumentRecords keyed by DocumentID.
type MetadataStore interface {
	// Put inserts rec or replaces the stored record with the same DocumentID.
	Put(ctx context.Context, rec *models.DocumentRecord) error
	// UpdateMetadata replaces only the metadata of an existing record.
	UpdateMetadata(ctx context.Context, documentID string, meta *models.Metadata) error
	Get(ctx context.Context, documentID string) (*models.DocumentRecord, error)
	// ScanPage returns up to limit records after cursor in DocumentID order,
	// and the cursor of the next page ("" when there is none).
	ScanPage(ctx context.Context, cursor string, limit int) ([]*models.DocumentRecord, string, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// ScanAll follows ScanPage cursors until the store is exhausted or limit records
// were read. A limit of 0 reads everything.
func ScanAll(ctx context.Context, store MetadataStore, limit int) ([]*models.DocumentRecord, error) {
	var (
		out    []*models.DocumentRecord
		cursor string
	)
	for {
		page := DefaultPageSize
		if limit > 0 && limit-len(out) < page {
			page = limit - len(out)
		}
		recs, next, err := store.ScanPage(ctx, cursor, page)
		if err != nil {
			return nil, fmt.Errorf("scan documents: %w", err)
		}
		out = append(out, recs...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if next == "" {
			return out, nil
		}
		cursor = next
	}
}

// NewMetadataStore opens the store selected by cfg.Driver: "sqlite" (default) or "postgres".
func NewMetadataStore(ctx context.Context, cfg config.StorageConfig) (MetadataStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(cfg.DatabasePath, cfg.DocumentsTable)
	case "postgres", "postgresql", "pgx":
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DocumentsTable)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func validateTable(name string) error {
	if !tableNameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return nil
}
