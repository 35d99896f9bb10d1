package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

// PostgresStore implements MetadataStore on a pgx connection pool. Metadata is a JSONB column.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore connects to connString and creates the table if needed.
func NewPostgresStore(ctx context.Context, connString, table string) (*PostgresStore, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if connString == "" {
		return nil, errors.New("postgres: database url is required")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool, table: table}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		document_id TEXT PRIMARY KEY,
		bucket TEXT NOT NULL,
		s3_key TEXT NOT NULL,
		mime_type TEXT,
		size BIGINT NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		text_key TEXT,
		created_at TEXT,
		last_modified TEXT,
		etag TEXT,
		nlp_version TEXT,
		metadata JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_location ON %[1]s(bucket, s3_key);
	`, s.table))
	return err
}

// Put upserts rec.
func (s *PostgresStore) Put(ctx context.Context, rec *models.DocumentRecord) error {
	meta, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (document_id, bucket, s3_key, mime_type, size, page_count, text_key,
			created_at, last_modified, etag, nlp_version, metadata, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, now())
		 ON CONFLICT (document_id) DO UPDATE SET
			bucket = EXCLUDED.bucket,
			s3_key = EXCLUDED.s3_key,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			page_count = EXCLUDED.page_count,
			text_key = EXCLUDED.text_key,
			created_at = EXCLUDED.created_at,
			last_modified = EXCLUDED.last_modified,
			etag = EXCLUDED.etag,
			nlp_version = EXCLUDED.nlp_version,
			metadata = EXCLUDED.metadata,
			updated_at = now()`, s.table),
		rec.DocumentID, rec.Bucket, rec.S3Key, rec.MimeType, rec.Size, rec.PageCount, nullString(rec.TextKey),
		rec.CreatedAt, rec.LastModified, rec.ETag, rec.NLPVersion, meta,
	)
	if err != nil {
		return fmt.Errorf("put document %s: %w", rec.DocumentID, err)
	}
	return nil
}

// UpdateMetadata replaces the metadata column of an existing record.
func (s *PostgresStore) UpdateMetadata(ctx context.Context, documentID string, meta *models.Metadata) error {
	raw, err := marshalMetadata(meta)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET metadata = $1::jsonb, updated_at = now() WHERE document_id = $2`, s.table),
		raw, documentID,
	)
	if err != nil {
		return fmt.Errorf("update metadata %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return nil
}

const postgresColumns = `document_id, bucket, s3_key, COALESCE(mime_type, ''), size, page_count,
	COALESCE(text_key, ''), COALESCE(created_at, ''), COALESCE(last_modified, ''), COALESCE(etag, ''),
	COALESCE(nlp_version, ''), metadata`

// Get returns a record by ID.
func (s *PostgresStore) Get(ctx context.Context, documentID string) (*models.DocumentRecord, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE document_id = $1`, postgresColumns, s.table), documentID)
	rec, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return rec, err
}

// ScanPage returns records with document_id greater than cursor.
func (s *PostgresStore) ScanPage(ctx context.Context, cursor string, limit int) ([]*models.DocumentRecord, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE document_id > $1 ORDER BY document_id LIMIT $2`, postgresColumns, s.table),
		cursor, limit,
	)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var recs []*models.DocumentRecord
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, "", err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return recs, nextCursor(recs, limit), nil
}

// Count returns the number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRecord(row pgx.Row) (*models.DocumentRecord, error) {
	var (
		rec  models.DocumentRecord
		meta []byte
	)
	err := row.Scan(&rec.DocumentID, &rec.Bucket, &rec.S3Key, &rec.MimeType, &rec.Size, &rec.PageCount,
		&rec.TextKey, &rec.CreatedAt, &rec.LastModified, &rec.ETag, &rec.NLPVersion, &meta)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 && string(meta) != "null" {
		rec.Metadata, err = unmarshalMetadata(meta)
		if err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
