// Package main is the legalassist CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fouadroumieh/legal-assistant/internal/cli"
	"github.com/fouadroumieh/legal-assistant/internal/config"
	"github.com/fouadroumieh/legal-assistant/internal/ingest"
	"github.com/fouadroumieh/legal-assistant/internal/models"
	"github.com/fouadroumieh/legal-assistant/internal/query"
	"github.com/fouadroumieh/legal-assistant/internal/queue"
	"github.com/fouadroumieh/legal-assistant/internal/server"
	"github.com/fouadroumieh/legal-assistant/internal/storage"
	"github.com/fouadroumieh/legal-assistant/internal/watcher"
	"github.com/fouadroumieh/legal-assistant/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/legalassist/config.yaml"

// loadConfig loads .env from the working directory, then the config at path.
// When path is the default, a config.yaml in the working directory wins, and a
// missing default file means defaults plus environment.
// Returns the config and the path that was actually loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "nlp":
		runNLP(args)
	case "ingest":
		runIngest(args)
	case "query":
		runQuery(args)
	case "search":
		runSearch(args)
	case "docs":
		runDocs(args)
	case "dashboard":
		runDashboard(args)
	case "worker":
		runWorker(args)
	case "watch":
		runWatch(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("legalassist version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags are accepted by every subcommand that touches storage.
type commonFlags struct {
	configPath *string
	debug      *bool
	output     *string
}

func newFlagSet(name string, withOutput bool) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
	if withOutput {
		cf.output = fs.String("output", "text", "output format: text or json")
	}
	return fs, cf
}

// setup loads config and builds the logger, exiting on failure.
func setup(cf commonFlags, name string) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(*cf.configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *cf.debug
	logger, err := utils.NewLogger(debugMode, name)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger
}

func outputFormat(cf commonFlags) cli.OutputFormat {
	format, err := cli.ParseFormat(*cf.output)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func mustComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, want componentSet) *Components {
	c, err := initializeComponents(ctx, cfg, logger, want)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return c
}

func runServer(args []string) {
	fs, cf := newFlagSet("server", false)
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "api")
	defer logger.Sync()

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{analyzer: true, index: true})
	defer comps.Close()

	opts := []server.APIOption{
		server.WithHealthInfo(cfg.Objects.Region, cfg.NLP.URL),
		server.WithEventHandler(comps.Processor()),
		server.WithLogger(logger),
	}
	if cfg.Queue.RedisAddr != "" {
		qc, err := queue.NewClient(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to create queue client", zap.Error(err))
		}
		defer qc.Close()
		opts = append(opts, server.WithEnqueuer(qc))
	}
	api := server.NewAPI(comps.QueryService(), opts...)
	serve(logger, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), api.Routes())
}

func runNLP(args []string) {
	fs, cf := newFlagSet("nlp", false)
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "nlp")
	defer logger.Sync()

	orch, closers, err := newLocalAnalyzer(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize analysis", zap.Error(err))
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	svc := server.NewNLPService(orch, cfg.Embedding.ModelName, logger)
	serve(logger, fmt.Sprintf("%s:%d", cfg.NLP.Host, cfg.NLP.Port), svc.Routes())
}

// serve runs handler until SIGINT or SIGTERM.
func serve(logger *zap.Logger, addr string, handler http.Handler) {
	srv := server.New(addr, handler, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// isEventFile reports whether an ingest argument is a notification event rather than a document.
func isEventFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func runIngest(args []string) {
	fs, cf := newFlagSet("ingest", true)
	bucket := fs.String("bucket", "", "bucket to upload files into (default: configured bucket)")
	noAnalysis := fs.Bool("no-analysis", false, "store records without classification")
	_ = fs.Parse(argsReorder(args))
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: legalassist ingest [flags] <file|event.json>...")
		os.Exit(1)
	}
	cfg, logger := setup(cf, "ingest")
	defer logger.Sync()
	format := outputFormat(cf)

	if *bucket != "" {
		cfg.Objects.Bucket = *bucket
	}
	for _, a := range fs.Args() {
		if !isEventFile(a) {
			if err := cfg.ValidateIngestion(); err != nil {
				fatalf("%v", err)
			}
			break
		}
	}

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{analyzer: !*noAnalysis, index: true})
	defer comps.Close()
	proc := comps.Processor()

	result := &ingest.EventResult{OK: true, Processed: []ingest.Outcome{}}
	for _, a := range fs.Args() {
		if isEventFile(a) {
			raw, err := os.ReadFile(a)
			if err != nil {
				fatalf("Failed to read event: %v", err)
			}
			res, err := proc.HandleEvent(ctx, raw)
			if err != nil {
				fatalf("Invalid event %s: %v", a, err)
			}
			result.Processed = append(result.Processed, res.Processed...)
			continue
		}
		out, err := proc.IngestFile(ctx, cfg.Objects.Bucket, a)
		if err != nil {
			fatalf("Ingest failed: %v", err)
		}
		if out.Status != models.StatusSkipped {
			result.Processed = append(result.Processed, out)
		}
	}
	if len(result.Processed) == 0 {
		result = &ingest.EventResult{OK: false, Reason: "no-records"}
	}
	if err := cli.WriteOutcomes(os.Stdout, result, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	for _, o := range result.Processed {
		if strings.HasPrefix(o.Status, "ERROR: ") {
			os.Exit(1)
		}
	}
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args so multi-word questions work with or without quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery(args []string) {
	fs, cf := newFlagSet("query", true)
	_ = fs.Parse(argsReorder(args))
	question := joinArgs(fs.Args())
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: legalassist query [flags] <question>")
		os.Exit(1)
	}
	cfg, logger := setup(cf, "query")
	defer logger.Sync()
	format := outputFormat(cf)

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{analyzer: true})
	defer comps.Close()

	resp, err := comps.QueryService().Query(ctx, question)
	if err != nil {
		fatalf("Query failed: %v", err)
	}
	if err := cli.WriteQueryResults(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSearch(args []string) {
	fs, cf := newFlagSet("search", true)
	limit := fs.Int("limit", query.DefaultSearchLimit, "number of results")
	_ = fs.Parse(argsReorder(args))
	q := joinArgs(fs.Args())
	if q == "" {
		fmt.Fprintln(os.Stderr, "Usage: legalassist search [flags] <text>")
		os.Exit(1)
	}
	cfg, logger := setup(cf, "search")
	defer logger.Sync()
	format := outputFormat(cf)

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{index: true})
	defer comps.Close()

	hits, err := comps.QueryService().Search(ctx, q, *limit)
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchHits(os.Stdout, hits, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDocs(args []string) {
	fs, cf := newFlagSet("docs", true)
	limit := fs.Int("limit", 0, "number of documents (default from config)")
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "docs")
	defer logger.Sync()
	format := outputFormat(cf)

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{})
	defer comps.Close()

	docs, err := comps.QueryService().List(ctx, *limit)
	if err != nil {
		fatalf("List failed: %v", err)
	}
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDashboard(args []string) {
	fs, cf := newFlagSet("dashboard", true)
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "dashboard")
	defer logger.Sync()
	format := outputFormat(cf)

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{})
	defer comps.Close()

	dash, err := comps.QueryService().Dashboard(ctx)
	if err != nil {
		fatalf("Dashboard failed: %v", err)
	}
	if err := cli.WriteDashboard(os.Stdout, dash, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runWorker(args []string) {
	fs, cf := newFlagSet("worker", false)
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "worker")
	defer logger.Sync()

	srv, err := queue.NewServer(cfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to create worker", zap.Error(err))
	}
	comps := mustComponents(context.Background(), cfg, logger, componentSet{analyzer: true, index: true})
	defer comps.Close()

	mux := queue.NewServeMux(queue.NewHandler(comps.Processor(), logger))
	logger.Info("Starting worker",
		zap.String("redis", cfg.Queue.RedisAddr),
		zap.Int("concurrency", cfg.Queue.Concurrency),
	)
	// Run blocks until SIGINT or SIGTERM.
	if err := srv.Run(mux); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}

// watchRoots returns the directories to watch: the configured ones, else the
// configured bucket's directory in the local object store.
func watchRoots(cfg *config.Config, objects storage.ObjectStore) ([]string, error) {
	if len(cfg.Watch.Directories) > 0 {
		return cfg.Watch.Directories, nil
	}
	local, ok := objects.(*storage.LocalStore)
	if !ok {
		return nil, errors.New("watch.directories must be set when objects are not stored locally")
	}
	if cfg.Objects.Bucket == "" {
		return nil, errors.New("watch.directories or DOCS_BUCKET must be set")
	}
	return []string{local.BucketDir(cfg.Objects.Bucket)}, nil
}

func runWatch(args []string) {
	fs, cf := newFlagSet("watch", false)
	syncExisting := fs.Bool("sync", true, "ingest files already present at startup")
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "watch")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps := mustComponents(ctx, cfg, logger, componentSet{analyzer: cfg.Queue.RedisAddr == "", index: cfg.Queue.RedisAddr == ""})
	defer comps.Close()

	roots, err := watchRoots(cfg, comps.Objects)
	if err != nil {
		fatalf("%v", err)
	}
	opts := []watcher.DispatcherOption{
		watcher.WithTextPrefix(cfg.Objects.TextPrefix),
		watcher.WithDispatchLogger(logger),
	}
	if local, ok := comps.Objects.(*storage.LocalStore); ok {
		opts = append(opts, watcher.WithObjectRoot(local.Root()))
	}
	if cfg.Queue.RedisAddr != "" {
		qc, err := queue.NewClient(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to create queue client", zap.Error(err))
		}
		defer qc.Close()
		opts = append(opts, watcher.WithEnqueuer(qc))
	}
	bucket := cfg.Objects.Bucket
	if bucket == "" && len(cfg.Watch.Directories) > 0 {
		fatalf("DOCS_BUCKET must be set to upload watched files")
	}
	dispatcher := watcher.NewDispatcher(comps.Processor(), bucket, opts...)

	w := watcher.New(roots, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), dispatcher, watcher.WithLogger(logger))
	if err := w.Run(ctx, *syncExisting); err != nil {
		logger.Fatal("Watcher failed", zap.Error(err))
	}
	logger.Info("Watcher stopped")
}

type statusResponse struct {
	Documents      int64        `json:"documents"`
	Indexed        *uint64      `json:"indexed,omitempty"`
	DiskUsageBytes *int64       `json:"disk_usage_bytes,omitempty"`
	ObjectBytes    *int64       `json:"object_bytes,omitempty"`
	Config         statusConfig `json:"config"`
}

type statusConfig struct {
	StorageDriver  string `json:"storage_driver"`
	DatabasePath   string `json:"database_path,omitempty"`
	DocumentsTable string `json:"documents_table"`
	BleveIndexPath string `json:"bleve_index_path,omitempty"`
	ObjectStore    string `json:"object_store"`
	ObjectRoot     string `json:"object_root,omitempty"`
	Bucket         string `json:"bucket,omitempty"`
	NLPURL         string `json:"nlp_url,omitempty"`
	Queue          string `json:"queue,omitempty"`
}

func runStatus(args []string) {
	fs, cf := newFlagSet("status", true)
	_ = fs.Parse(args)
	cfg, logger := setup(cf, "status")
	defer logger.Sync()
	format := outputFormat(cf)

	ctx := context.Background()
	comps := mustComponents(ctx, cfg, logger, componentSet{index: true})
	defer comps.Close()

	count, err := comps.Store.Count(ctx)
	if err != nil {
		fatalf("Count documents failed: %v", err)
	}
	st := statusResponse{
		Documents: count,
		Config: statusConfig{
			StorageDriver:  cfg.Storage.Driver,
			DocumentsTable: cfg.Storage.DocumentsTable,
			BleveIndexPath: cfg.Storage.BleveIndexPath,
			ObjectStore:    cfg.Objects.Type,
			Bucket:         cfg.Objects.Bucket,
			NLPURL:         cfg.NLP.URL,
			Queue:          cfg.Queue.RedisAddr,
		},
	}
	if comps.Index != nil {
		if n, err := comps.Index.DocCount(); err == nil {
			st.Indexed = &n
		}
	}
	paths := []string{cfg.Storage.BleveIndexPath}
	if _, ok := comps.Store.(*storage.SQLiteStore); ok {
		st.Config.DatabasePath = cfg.Storage.DatabasePath
		paths = append(paths, cfg.Storage.DatabasePath)
	}
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		st.DiskUsageBytes = &diskBytes
	}
	if local, ok := comps.Objects.(*storage.LocalStore); ok {
		st.Config.ObjectRoot = local.Root()
		if n, err := local.UsageBytes(); err == nil {
			st.ObjectBytes = &n
		}
	}
	if err := writeStatus(os.Stdout, &st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func writeStatus(w io.Writer, st *statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(w, "documents:          %d   # count of stored document records\n", st.Documents)
	if st.Indexed != nil {
		fmt.Fprintf(w, "indexed:            %d   # documents in the full-text index\n", *st.Indexed)
	}
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + text index\n", *st.DiskUsageBytes)
	}
	if st.ObjectBytes != nil {
		fmt.Fprintf(w, "object_bytes:       %d   # local object store\n", *st.ObjectBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "storage_driver:     %s\n", st.Config.StorageDriver)
	if st.Config.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", st.Config.DatabasePath)
	}
	fmt.Fprintf(w, "documents_table:    %s\n", st.Config.DocumentsTable)
	if st.Config.BleveIndexPath != "" {
		fmt.Fprintf(w, "bleve_index_path:   %s\n", st.Config.BleveIndexPath)
	}
	fmt.Fprintf(w, "object_store:       %s\n", st.Config.ObjectStore)
	if st.Config.ObjectRoot != "" {
		fmt.Fprintf(w, "object_root:        %s\n", st.Config.ObjectRoot)
	}
	if st.Config.Bucket != "" {
		fmt.Fprintf(w, "bucket:             %s\n", st.Config.Bucket)
	}
	if st.Config.NLPURL != "" {
		fmt.Fprintf(w, "nlp_url:            %s\n", st.Config.NLPURL)
	}
	if st.Config.Queue != "" {
		fmt.Fprintf(w, "queue:              %s\n", st.Config.Queue)
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`legalassist - contract ingestion, classification and retrieval

Usage:
  legalassist server [flags]                    Start the document API
  legalassist nlp [flags]                       Start the analysis service
  legalassist ingest [flags] <file|event.json>  Ingest local files or a bucket notification event
  legalassist query [flags] <question>          Answer a question with matching documents
  legalassist search [flags] <text>             Full-text search over extracted text
  legalassist docs [flags]                      List stored documents
  legalassist dashboard [flags]                 Count agreement types, jurisdictions and industries
  legalassist worker [flags]                    Run queued ingestion tasks (needs REDIS_ADDR)
  legalassist watch [flags]                     Ingest files dropped into inbox directories
  legalassist status [flags]                    Show storage status
  legalassist version                           Show version
  legalassist help                              Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/legalassist/config.yaml)
  --debug            Enable debug logging
  --output string    Output format for query, search, docs, dashboard, ingest, status: text or json

Ingest Flags:
  --bucket string    Bucket to upload files into (default: DOCS_BUCKET)
  --no-analysis      Store records without classification

Search / Docs Flags:
  --limit int        Number of results

Watch Flags:
  --sync             Ingest files already present at startup (default: true)

Environment:
  DOCUMENTS_TABLE, DOCS_BUCKET, TEXT_PREFIX, DOCS_BUCKET_REGION, NLP_URL, EMBED_MODEL_NAME,
  GEMINI_API_KEY, DATABASE_URL, REDIS_ADDR, S3_ENDPOINT (a .env file in the working directory is loaded)

Examples:
  legalassist ingest contracts/nda.pdf
  legalassist ingest --output json event.json
  legalassist query "NDAs governed by UK law"
  legalassist search indemnification
  legalassist dashboard --output json
  legalassist server`)
}
