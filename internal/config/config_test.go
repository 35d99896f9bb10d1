package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every variable ApplyEnv reads so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOCUMENTS_TABLE", "DATABASE_URL", "DOCS_BUCKET", "TEXT_PREFIX", "DOCS_BUCKET_REGION",
		"AWS_REGION", "AWS_DEFAULT_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"NLP_URL", "GEMINI_API_KEY", "EMBED_MODEL_NAME", "REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
  documents_table: "documents"
objects:
  bucket: "contracts"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := cfg.ValidateIngestion(); err != nil {
		t.Errorf("ValidateIngestion: %v", err)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/documents.db"
watch:
  directories: ["./inbox"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories: got %v", cfg.Watch.Directories)
	}
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCUMENTS_TABLE", "DocumentsTable")
	t.Setenv("DOCS_BUCKET", "docs-bucket")
	t.Setenv("TEXT_PREFIX", "text")
	t.Setenv("AWS_DEFAULT_REGION", "us-east-1")
	t.Setenv("NLP_URL", "abc.awsapprunner.com/")
	t.Setenv("EMBED_MODEL_NAME", "custom/model")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DocumentsTable != "DocumentsTable" || cfg.Objects.Bucket != "docs-bucket" {
		t.Errorf("table/bucket not applied: %+v %+v", cfg.Storage, cfg.Objects)
	}
	if cfg.Objects.TextPrefix != "text/" {
		t.Errorf("text prefix = %q, want trailing slash", cfg.Objects.TextPrefix)
	}
	if cfg.Objects.Region != "us-east-1" {
		t.Errorf("region = %q", cfg.Objects.Region)
	}
	if cfg.NLP.URL != "https://abc.awsapprunner.com" {
		t.Errorf("nlp url = %q", cfg.NLP.URL)
	}
	if cfg.Embedding.ModelName != "custom/model" {
		t.Errorf("embed model = %q", cfg.Embedding.ModelName)
	}
}

func TestApplyEnv_regionPrecedence(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bucket region wins", map[string]string{"DOCS_BUCKET_REGION": "af-south-1", "AWS_REGION": "us-west-2"}, "af-south-1"},
		{"aws region next", map[string]string{"AWS_REGION": "us-west-2", "AWS_DEFAULT_REGION": "us-east-1"}, "us-west-2"},
		{"default region last", map[string]string{"AWS_DEFAULT_REGION": "us-east-1"}, "us-east-1"},
		{"fallback", map[string]string{}, DefaultRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyEnv(cfg, func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			ApplyDefaults(cfg)
			if cfg.Objects.Region != tt.want {
				t.Errorf("region = %q, want %q", cfg.Objects.Region, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.NLP.Port != 8081 || cfg.NLP.TimeoutSeconds != 20 || cfg.NLP.MaxTextChars != 200000 {
		t.Errorf("default nlp: got %+v", cfg.NLP)
	}
	if cfg.Heuristics.TitleMaxIngest != 100 || cfg.Heuristics.TitleMaxAnalyze != 120 {
		t.Errorf("title bounds: got %+v", cfg.Heuristics)
	}
	if cfg.Query.MinConfidence != 0.70 || cfg.Query.ListLimit != 25 {
		t.Errorf("query defaults: got %+v", cfg.Query)
	}
	if cfg.Objects.TextPrefix != "extracted/" {
		t.Errorf("text prefix: got %q", cfg.Objects.TextPrefix)
	}
	if cfg.Embedding.ModelName != DefaultEmbedModel {
		t.Errorf("embed model: got %q", cfg.Embedding.ModelName)
	}
	if cfg.NLP.URL != "" {
		t.Errorf("nlp url should stay empty, got %q", cfg.NLP.URL)
	}
}

func TestValidateIngestion(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateIngestion()
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("expected ErrMissingRequired, got %v", err)
	}
	cfg.Storage.DocumentsTable = "docs"
	if err := cfg.ValidateIngestion(); err == nil {
		t.Error("bucket still missing, expected error")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"nlp.local":             "https://nlp.local",
		"http://nlp.local/":     "http://nlp.local",
		" https://x.example// ": "https://x.example",
	}
	for in, want := range tests {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("nil should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false should be honored")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REDIS_ADDR=localhost:6380\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// t.Setenv above registered REDIS_ADDR as "", which godotenv will not overwrite.
	os.Unsetenv("REDIS_ADDR")
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("REDIS_ADDR"); got != "localhost:6380" {
		t.Errorf("REDIS_ADDR = %q", got)
	}
}
