package ingest

import (
	"net/url"
	"strings"
)

// TextContentType is stored on extracted text artifacts.
const TextContentType = "text/plain; charset=utf-8"

// UnquoteKey decodes a notification key ("+" is a space). Malformed escapes are kept verbatim.
func UnquoteKey(raw string) string {
	if k, err := url.QueryUnescape(raw); err == nil {
		return k
	}
	return strings.ReplaceAll(raw, "+", " ")
}

// EncodeKey is the inverse of UnquoteKey, for records built from plain object keys.
// Slashes stay literal, as in bucket notifications.
func EncodeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.QueryEscape(p)
	}
	return strings.Join(parts, "/")
}

// IsTextArtifact reports whether key is extracted text written by the pipeline,
// or any .txt object, neither of which is ingested.
func IsTextArtifact(prefix, key string) bool {
	return (prefix != "" && strings.HasPrefix(key, prefix)) || strings.HasSuffix(key, ".txt")
}

// BuildTextKey returns the key the extracted text of key is stored under.
func BuildTextKey(prefix, key string) string {
	k := key
	if prefix != "" {
		k = strings.TrimPrefix(k, prefix)
	}
	k = strings.TrimSuffix(k, ".txt")
	return prefix + k + ".txt"
}
