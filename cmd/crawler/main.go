package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-crawl-nhl/checkpoint"
	"github.com/aluiziolira/go-crawl-nhl/config"
	"github.com/aluiziolira/go-crawl-nhl/crawler"
	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/pipeline"
	"github.com/aluiziolira/go-crawl-nhl/schema"
	"github.com/aluiziolira/go-crawl-nhl/statsapi"
	"github.com/aluiziolira/go-crawl-nhl/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultCfg := config.DefaultConfig()
	workersDefault := intEnv("CRAWLER_WORKERS", defaultCfg.Workers)
	metricsDefault := stringEnv("CRAWLER_METRICS_ADDR", defaultCfg.MetricsAddr)
	storageDefault := stringEnv("CRAWLER_STORAGE", defaultCfg.StorageBackend)
	outputDirDefault := stringEnv("CRAWLER_OUTPUT_DIR", defaultCfg.OutputDir)
	timeoutDefault := durationEnv("CRAWLER_TIMEOUT", defaultCfg.Timeout)

	startDate := flag.String("start-date", defaultCfg.StartDate.Format(config.DateLayout), "First date of the crawl window (YYYY-MM-DD)")
	endDate := flag.String("end-date", defaultCfg.EndDate.Format(config.DateLayout), "Last date of the crawl window (YYYY-MM-DD)")
	schemaVersion := flag.String("schema-version", defaultCfg.SchemaVersion, "Output schema version ("+strings.Join(schema.Versions(), ", ")+")")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	storageBackend := flag.String("storage", storageDefault, "Storage backend: s3 or fs")
	outputDir := flag.String("output-dir", outputDirDefault, "Root directory for the fs backend")
	workers := flag.Int("workers", workersDefault, "Number of games crawled concurrently")
	timeout := flag.Duration("timeout", timeoutDefault, "Per-request timeout")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per request or write")
	retryBackoff := flag.Duration("retry-backoff", defaultCfg.RetryBackoff, "Initial retry backoff")
	retryBackoffMax := flag.Duration("retry-backoff-max", defaultCfg.RetryBackoffMax, "Maximum retry backoff")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Stats API base URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	force := flag.Bool("force", false, "Crawl games even if already checkpointed")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	var err error
	if cfg.StartDate, err = config.ParseDate(*startDate); err != nil {
		fatal("invalid start date", err)
	}
	if cfg.EndDate, err = config.ParseDate(*endDate); err != nil {
		fatal("invalid end date", err)
	}
	cfg.SchemaVersion = *schemaVersion
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.StorageBackend = strings.ToLower(*storageBackend)
	cfg.OutputDir = *outputDir
	cfg.Workers = *workers
	cfg.Timeout = *timeout
	cfg.MaxRetries = *maxRetries
	cfg.RetryBackoff = *retryBackoff
	cfg.RetryBackoffMax = *retryBackoffMax
	cfg.BaseURL = *baseURL
	cfg.MetricsAddr = *metricsAddr
	cfg.Force = *force
	cfg.Verbose = *verbose
	cfg.DestBucket = stringEnv("DEST_BUCKET", cfg.DestBucket)
	cfg.S3EndpointURL = stringEnv("S3_ENDPOINT_URL", cfg.S3EndpointURL)
	cfg.AWSRegion = stringEnv("AWS_REGION", cfg.AWSRegion)
	cfg.RedisURL = stringEnv("REDIS_URL", cfg.RedisURL)

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	columns, err := schema.Lookup(cfg.SchemaVersion)
	if err != nil {
		fatal("unknown schema version", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing in-flight games")
	}()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		fatal("creating storage", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.Timeout)
	err = store.Ping(pingCtx)
	cancelPing()
	if err != nil {
		fatal("storage unreachable", err)
	}

	encoders, err := pipeline.Encoders(cfg.OutputFormat)
	if err != nil {
		fatal("creating encoders", err)
	}
	sink, err := pipeline.NewSink(store, encoders, cfg.RetryPolicy(), cfg.DedupeMaxSize, logger)
	if err != nil {
		fatal("creating sink", err)
	}

	cp, closeCheckpoint, err := newCheckpoint(ctx, cfg)
	if err != nil {
		fatal("creating checkpoint", err)
	}
	defer closeCheckpoint()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := statsapi.NewClient(cfg, statsapi.NewMetrics(registry), logger)
	if err != nil {
		fatal("initialising stats api client", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	c := crawler.New(client, sink, crawler.Options{
		Columns:    columns,
		Workers:    cfg.Workers,
		Checkpoint: cp,
		Metrics:    crawler.NewMetrics(registry),
		Logger:     logger,
	})

	result, runErr := c.Run(ctx, cfg.StartDate, cfg.EndDate)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, sink.GetMetrics(), cfg)

	if runErr != nil {
		slog.Error("crawl failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "fs":
		return storage.NewFSStore(cfg.OutputDir, logger)
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:   cfg.DestBucket,
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3EndpointURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

func newCheckpoint(ctx context.Context, cfg *config.Config) (checkpoint.Checkpoint, func(), error) {
	if cfg.Force {
		slog.Info("checkpoints disabled by -force")
		return checkpoint.Nop{}, func() {}, nil
	}
	if cfg.RedisURL == "" {
		cp, err := checkpoint.NewMemory(0)
		return cp, func() {}, err
	}

	cp, err := checkpoint.NewRedis(ctx, cfg.RedisURL, cfg.CheckpointTTL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("redis checkpoints enabled", slog.Duration("ttl", cfg.CheckpointTTL))
	return cp, func() {
		if err := cp.Close(); err != nil {
			slog.Error("close redis", slog.Any("error", err))
		}
	}, nil
}

func printSummary(result *models.CrawlResult, sinkMetrics map[string]interface{}, cfg *config.Config) {
	if result == nil {
		return
	}
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")

	fmt.Printf("  Window:          %s .. %s\n", result.StartDate.Format(config.DateLayout), result.EndDate.Format(config.DateLayout))
	fmt.Printf("  Schema:          %s\n", result.SchemaVersion)
	if result.EmptyWindow {
		fmt.Println("  No games scheduled in window")
	}
	fmt.Printf("  Games attempted: %d\n", result.GamesAttempted)
	fmt.Printf("  Games stored:    %d\n", result.GamesSucceeded)
	fmt.Printf("  Games skipped:   %d\n", result.GamesSkipped)
	fmt.Printf("  Games failed:    %d\n", result.GamesFailed)
	fmt.Printf("  Players stored:  %d\n", result.PlayersStored)
	fmt.Printf("  Players failed:  %d\n", result.PlayersFailed)
	if result.PlayersDuplicate > 0 {
		fmt.Printf("  Players dup:     %d\n", result.PlayersDuplicate)
	}
	if len(result.FailuresByCategory) > 0 {
		categories := make([]string, 0, len(result.FailuresByCategory))
		for category := range result.FailuresByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("  Failures %-24s %d\n", category+":", result.FailuresByCategory[category])
		}
	}
	if dup, ok := sinkMetrics["duplicate_keys"].(int64); ok && dup > 0 {
		fmt.Printf("  Duplicate keys:  %d\n", dup)
	}
	fmt.Printf("  Duration:        %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	if cfg.StorageBackend == "fs" {
		fmt.Printf("  Output:          %s\n", cfg.OutputDir)
	} else {
		fmt.Printf("  Output:          s3://%s\n", cfg.DestBucket)
	}
	fmt.Println(separator)
}

func stringEnv(key, fallback string) string {
	if value, ok := config.EnvString(key); ok {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	value, ok, err := config.EnvInt(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s: %v\n", key, err)
		os.Exit(1)
	}
	if ok {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value, ok, err := config.EnvDuration(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s: %v\n", key, err)
		os.Exit(1)
	}
	if ok {
		return value
	}
	return fallback
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.Any("error", err))
	os.Exit(1)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
