// Package main implements the entry point for the SchemaFlow pipeline.
// SchemaFlow infers schemas from raw record batches, versions them, and
// loads the records into categorized storage with deduplication and
// field-level change tracking.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/schemaflow/config"
	"github.com/c360/schemaflow/extract"
	"github.com/c360/schemaflow/inference"
	"github.com/c360/schemaflow/ingest"
	"github.com/c360/schemaflow/ingest/changes"
	"github.com/c360/schemaflow/metric"
	"github.com/c360/schemaflow/pkg/embedding"
	"github.com/c360/schemaflow/router"
	"github.com/c360/schemaflow/semantic"
	"github.com/c360/schemaflow/storage"
	"github.com/c360/schemaflow/types"
	"github.com/c360/schemaflow/versionstore"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "schemaflow"
)

// registryDatabase holds the schema_versions collection. Record data lives
// in per-source domain databases; version metadata is centralized.
const registryDatabase = "schema_registry"

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}
	if err := validateFlags(cliCfg); err != nil {
		return err
	}

	cfg, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewMongoStore(ctx, cfg.Storage.URI, storage.WithOpTimeout(cfg.Storage.OpTimeout))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	coordinator, cleanup, err := buildPipeline(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cliCfg.Stats {
		return printStats(ctx, coordinator)
	}

	return ingestFile(ctx, coordinator, cliCfg, cfg, logger)
}

// loadConfiguration assembles the layered config and applies CLI overrides.
func loadConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}
	loader.EnableValidation(true)

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}
	if cliCfg.BatchSize > 0 {
		cfg.Ingest.BatchSize = cliCfg.BatchSize
	}
	return cfg, nil
}

// buildPipeline wires the coordinator with the optional NATS change sink and
// metrics server. The returned cleanup releases both.
func buildPipeline(ctx context.Context, cfg *config.Config, store *storage.MongoStore, logger *slog.Logger) (*ingest.Coordinator, func(), error) {
	repo := versionstore.NewMongoRepository(store.Client().Database(registryDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("version index creation failed", "error", err)
	}
	versions := versionstore.NewStore(repo, versionstore.WithLogger(logger))

	classifierOpts := []semantic.Option{semantic.WithLogger(logger)}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Semantic.EmbeddingEnabled {
		embedder, err := buildEmbedder(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := embedder.Close(); err != nil {
				logger.Warn("embedder close failed", "error", err)
			}
		})
		classifierOpts = append(classifierOpts, semantic.WithEmbedder(embedder))
		logger.Info("semantic embeddings enabled", "model", embedder.Model())
	}

	classifier := semantic.NewClassifier(classifierOpts...)
	engine := inference.NewEngine(classifier, inference.WithLogger(logger))
	rt := router.New(logger)

	opts := []ingest.Option{ingest.WithLogger(logger)}
	if !cfg.Ingest.Deduplicate {
		opts = append(opts, ingest.WithoutDedup())
	}
	if !cfg.Ingest.DetectChanges {
		opts = append(opts, ingest.WithoutChangeDetection())
	}

	if cfg.NATS.Enabled {
		conn, err := connectNATS(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, conn.Close)
		opts = append(opts, ingest.WithSink(changes.MultiSink{
			changes.NewStoreSink(store),
			changes.NewNATSSink(conn, cfg.NATS.SubjectPrefix),
		}))
		logger.Info("change events publishing to NATS", "subject_prefix", cfg.NATS.SubjectPrefix)
	}

	if cfg.Metrics.Enabled {
		registry := metric.NewMetricsRegistry()
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		if err := server.Start(); err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := server.Stop(); err != nil {
				logger.Warn("metrics server stop failed", "error", err)
			}
		})
		opts = append(opts, ingest.WithMetrics(registry.CoreMetrics()))
		logger.Info("metrics server started", "address", server.Address())
	}

	return ingest.NewCoordinator(engine, rt, versions, store, opts...), cleanup, nil
}

// buildEmbedder selects the embedding provider: an OpenAI-compatible HTTP
// service when an endpoint is configured, the built-in BM25 lexical embedder
// otherwise.
func buildEmbedder(cfg *config.Config, logger *slog.Logger) (embedding.Embedder, error) {
	if cfg.Semantic.EmbeddingEndpoint == "" {
		return embedding.NewBM25Embedder(embedding.BM25Config{}), nil
	}
	return embedding.NewHTTPEmbedder(embedding.HTTPConfig{
		BaseURL: cfg.Semantic.EmbeddingEndpoint,
		Model:   cfg.Semantic.EmbeddingModel,
		APIKey:  cfg.Semantic.EmbeddingAPIKey,
		Cache:   embedding.NewLRUCache(cfg.Semantic.CacheSize),
		Logger:  logger,
	})
}

func connectNATS(cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(appName),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	}
	switch {
	case cfg.NATS.Token != "":
		opts = append(opts, nats.Token(cfg.NATS.Token))
	case cfg.NATS.Username != "":
		opts = append(opts, nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password))
	}
	return nats.Connect(strings.Join(cfg.NATS.URLs, ","), opts...)
}

// ingestFile extracts the input file and runs each chunk through the
// pipeline, printing a per-chunk summary.
func ingestFile(ctx context.Context, coordinator *ingest.Coordinator, cliCfg *CLIConfig, cfg *config.Config, logger *slog.Logger) error {
	batch, err := extract.FromFile(ctx, cliCfg.InputPath)
	if err != nil {
		return err
	}
	logger.Info("file extracted", "path", cliCfg.InputPath, "records", len(batch))

	var totals types.IngestResult
	for _, chunk := range extract.Chunk(batch, cfg.Ingest.BatchSize) {
		var result *types.IngestResult
		if cliCfg.Source != "" {
			entity := cliCfg.Entity
			if entity == "" {
				entity = router.DefaultEntity
			}
			result, err = coordinator.ProcessAs(ctx, chunk, cliCfg.Source, entity)
		} else {
			result, err = coordinator.Process(ctx, chunk)
		}
		if err != nil {
			return err
		}

		totals.InsertedCount += result.InsertedCount
		totals.DuplicateCount += result.DuplicateCount
		totals.FailedCount += result.FailedCount
		totals.ChangeCount += result.ChangeCount
		totals.Source = result.Source
		totals.Entity = result.Entity
		totals.Domain = result.Domain
		totals.Collection = result.Collection
		totals.Version = result.Version
		totals.IsNewVersion = totals.IsNewVersion || result.IsNewVersion
	}

	fmt.Printf("source:      %s\n", totals.Source)
	fmt.Printf("entity:      %s\n", totals.Entity)
	fmt.Printf("database:    %s\n", totals.Domain)
	fmt.Printf("collection:  %s (v%d", totals.Collection, totals.Version)
	if totals.IsNewVersion {
		fmt.Printf(", new version")
	}
	fmt.Printf(")\n")
	fmt.Printf("inserted:    %d\n", totals.InsertedCount)
	fmt.Printf("duplicates:  %d\n", totals.DuplicateCount)
	fmt.Printf("failed:      %d\n", totals.FailedCount)
	fmt.Printf("changes:     %d\n", totals.ChangeCount)
	return nil
}

func printStats(ctx context.Context, coordinator *ingest.Coordinator) error {
	stats, err := coordinator.Stats(ctx)
	if err != nil {
		return err
	}

	sources := make([]string, 0, len(stats.Databases))
	for source := range stats.Databases {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		ds := stats.Databases[source]
		fmt.Printf("%-16s %-20s collections=%-3d records=%d\n",
			source, ds.Domain, ds.Collections, ds.Records)
	}
	fmt.Printf("total: %d records in %d collections\n", stats.TotalRecords, stats.TotalCollections)
	return nil
}
