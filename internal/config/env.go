package config

import (
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

func lookupNonEmpty(lookup LookupFunc, keys ...string) string {
	for _, k := range keys {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ApplyEnv overrides cfg with the environment variables the deployed services read.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if v := lookupNonEmpty(lookup, "DOCUMENTS_TABLE"); v != "" {
		cfg.Storage.DocumentsTable = v
	}
	if v := lookupNonEmpty(lookup, "DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
		if cfg.Storage.Driver == "" {
			cfg.Storage.Driver = "postgres"
		}
	}
	if v := lookupNonEmpty(lookup, "DOCS_BUCKET"); v != "" {
		cfg.Objects.Bucket = v
	}
	if v := lookupNonEmpty(lookup, "TEXT_PREFIX"); v != "" {
		cfg.Objects.TextPrefix = v
	}
	if v := lookupNonEmpty(lookup, "DOCS_BUCKET_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"); v != "" {
		cfg.Objects.Region = v
	}
	if v := lookupNonEmpty(lookup, "S3_ENDPOINT"); v != "" {
		cfg.Objects.Endpoint = v
	}
	if v := lookupNonEmpty(lookup, "AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Objects.AccessKey = v
	}
	if v := lookupNonEmpty(lookup, "AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Objects.SecretKey = v
	}
	if v := lookupNonEmpty(lookup, "NLP_URL"); v != "" {
		cfg.NLP.URL = v
	}
	if v := lookupNonEmpty(lookup, "GEMINI_API_KEY"); v != "" {
		cfg.NLP.GeminiAPIKey = v
	}
	if v := lookupNonEmpty(lookup, "EMBED_MODEL_NAME"); v != "" {
		cfg.Embedding.ModelName = v
	}
	if v := lookupNonEmpty(lookup, "REDIS_ADDR"); v != "" {
		cfg.Queue.RedisAddr = v
	}
}

// NormalizeURL prefixes a scheme-less URL with https:// and strips trailing slashes.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return strings.TrimRight(u, "/")
}

// normalizePrefix ensures a non-empty key prefix ends with a slash.
func normalizePrefix(p string) string {
	if p != "" && !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}
