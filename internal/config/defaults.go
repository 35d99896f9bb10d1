package config

// Default values shared with the components that read them.
const (
	DefaultRegion        = "eu-central-1"
	DefaultTextPrefix    = "extracted/"
	DefaultEmbedModel    = "sentence-transformers/paraphrase-MiniLM-L6-v2"
	DefaultMinConfidence = 0.70
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.NLP.Host == "" {
		cfg.NLP.Host = "localhost"
	}
	if cfg.NLP.Port == 0 {
		cfg.NLP.Port = 8081
	}
	cfg.NLP.URL = NormalizeURL(cfg.NLP.URL)
	if cfg.NLP.TimeoutSeconds == 0 {
		cfg.NLP.TimeoutSeconds = 20
	}
	if cfg.NLP.MaxTextChars == 0 {
		cfg.NLP.MaxTextChars = 200000
	}
	if cfg.NLP.RequestsPerMinute == 0 {
		cfg.NLP.RequestsPerMinute = 600
	}
	if cfg.NLP.Recognizer == "" {
		cfg.NLP.Recognizer = "gazetteer"
	}
	if cfg.NLP.GeminiModel == "" {
		cfg.NLP.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/legalassist/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/legalassist/data/indices/text"
	}
	if cfg.Objects.Type == "" {
		cfg.Objects.Type = "local"
	}
	if cfg.Objects.Root == "" {
		cfg.Objects.Root = "/usr/local/var/legalassist/data/objects"
	}
	if cfg.Objects.Region == "" {
		cfg.Objects.Region = DefaultRegion
	}
	if cfg.Objects.TextPrefix == "" {
		cfg.Objects.TextPrefix = DefaultTextPrefix
	}
	cfg.Objects.TextPrefix = normalizePrefix(cfg.Objects.TextPrefix)
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = DefaultEmbedModel
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/legalassist/data/models/paraphrase-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.GeminiModel == "" {
		cfg.Embedding.GeminiModel = "text-embedding-004"
	}
	if cfg.Heuristics.TitleMaxIngest == 0 {
		cfg.Heuristics.TitleMaxIngest = 100
	}
	if cfg.Heuristics.TitleMaxAnalyze == 0 {
		cfg.Heuristics.TitleMaxAnalyze = 120
	}
	if cfg.Query.MinConfidence == 0 {
		cfg.Query.MinConfidence = DefaultMinConfidence
	}
	if cfg.Query.ListLimit == 0 {
		cfg.Query.ListLimit = 25
	}
	if cfg.Queue.Concurrency == 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".md", ".rtf"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
