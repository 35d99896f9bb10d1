package storage

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps objects on disk under root/<bucket>/<key>.
type LocalStore struct {
	root string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("local object store: root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create object root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory holding all buckets.
func (s *LocalStore) Root() string {
	return s.root
}

// BucketDir returns the directory for bucket.
func (s *LocalStore) BucketDir(bucket string) string {
	return filepath.Join(s.root, bucket)
}

// Path resolves bucket and key to a file path, rejecting keys that escape the bucket.
func (s *LocalStore) Path(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	clean := filepath.Clean(filepath.FromSlash("/" + key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.BucketDir(bucket), clean), nil
}

// Get reads an object. ETag is the quoted MD5 of the body, as S3 reports for simple uploads.
func (s *LocalStore) Get(_ context.Context, bucket, key string) (*Object, error) {
	p, err := s.Path(bucket, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, key, ErrNotFound)
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &Object{
		Body:         body,
		ContentType:  ContentTypeFor(key),
		Size:         info.Size(),
		ETag:         fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(body))),
		LastModified: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

// Put writes an object through a temp file and rename so readers never see partial content.
func (s *LocalStore) Put(_ context.Context, bucket, key string, body []byte, _ string) error {
	p, err := s.Path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// UsageBytes returns the total size in bytes of all objects under root.
func (s *LocalStore) UsageBytes() (int64, error) {
	return dirSize(s.root)
}

// DiskUsageBytes returns the total size in bytes of the given paths (files or directories).
// Empty and missing paths are skipped.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		n, err := dirSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
