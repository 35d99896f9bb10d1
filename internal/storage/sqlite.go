package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fouadroumieh/legal-assistant/internal/models"
)

// SQLiteStore implements MetadataStore using SQLite. Metadata is kept as a JSON column.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the table.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath, table string) (*SQLiteStore, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db, table: table}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		document_id TEXT PRIMARY KEY,
		bucket TEXT NOT NULL,
		s3_key TEXT NOT NULL,
		mime_type TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		text_key TEXT,
		created_at TEXT,
		last_modified TEXT,
		etag TEXT,
		nlp_version TEXT,
		metadata TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_location ON %[1]s(bucket, s3_key);
	`, s.table)
	_, err := s.db.Exec(schema)
	return err
}

// Put upserts rec.
func (s *SQLiteStore) Put(ctx context.Context, rec *models.DocumentRecord) error {
	meta, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (document_id, bucket, s3_key, mime_type, size, page_count, text_key,
			created_at, last_modified, etag, nlp_version, metadata, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
			bucket = excluded.bucket,
			s3_key = excluded.s3_key,
			mime_type = excluded.mime_type,
			size = excluded.size,
			page_count = excluded.page_count,
			text_key = excluded.text_key,
			created_at = excluded.created_at,
			last_modified = excluded.last_modified,
			etag = excluded.etag,
			nlp_version = excluded.nlp_version,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`, s.table),
		rec.DocumentID, rec.Bucket, rec.S3Key, rec.MimeType, rec.Size, rec.PageCount, nullString(rec.TextKey),
		rec.CreatedAt, rec.LastModified, rec.ETag, rec.NLPVersion, meta, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put document %s: %w", rec.DocumentID, err)
	}
	return nil
}

// UpdateMetadata replaces the metadata column of an existing record.
func (s *SQLiteStore) UpdateMetadata(ctx context.Context, documentID string, meta *models.Metadata) error {
	raw, err := marshalMetadata(meta)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET metadata = ?, updated_at = ? WHERE document_id = ?`, s.table),
		raw, time.Now().UTC(), documentID,
	)
	if err != nil {
		return fmt.Errorf("update metadata %s: %w", documentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return nil
}

const sqliteColumns = `document_id, bucket, s3_key, mime_type, size, page_count, text_key,
	created_at, last_modified, etag, nlp_version, metadata`

// Get returns a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, documentID string) (*models.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE document_id = ?`, sqliteColumns, s.table), documentID)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return rec, err
}

// ScanPage returns records with document_id greater than cursor.
func (s *SQLiteStore) ScanPage(ctx context.Context, cursor string, limit int) ([]*models.DocumentRecord, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE document_id > ? ORDER BY document_id LIMIT ?`, sqliteColumns, s.table),
		cursor, limit,
	)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var recs []*models.DocumentRecord
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*models.DocumentRecord, error) {
	var (
		rec                                models.DocumentRecord
		mimeType, textKey, createdAt, etag sql.NullString
		lastMod, nlpVersion, meta          sql.NullString
	)
	err := row.Scan(&rec.DocumentID, &rec.Bucket, &rec.S3Key, &mimeType, &rec.Size, &rec.PageCount,
		&textKey, &createdAt, &lastMod, &etag, &nlpVersion, &meta)
	if err != nil {
		return nil, err
	}
	rec.MimeType = mimeType.String
	rec.TextKey = textKey.String
	rec.CreatedAt = createdAt.String
	rec.LastModified = lastMod.String
	rec.ETag = etag.String
	rec.NLPVersion = nlpVersion.String
	if meta.Valid && meta.String != "" {
		rec.Metadata, err = unmarshalMetadata([]byte(meta.String))
		if err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func marshalMetadata(meta *models.Metadata) (any, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(b []byte) (*models.Metadata, error) {
	var m models.Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if m.Parties == nil {
		m.Parties = []string{}
	}
	return &m, nil
}

func nextCursor(recs []*models.DocumentRecord, limit int) string {
	if len(recs) < limit || len(recs) == 0 {
		return ""
	}
	return recs[len(recs)-1].DocumentID
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
