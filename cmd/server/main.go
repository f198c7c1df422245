package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/internal/server"
	"github.com/restaurantlens/restaurantlens/internal/services"
	"github.com/restaurantlens/restaurantlens/pkg/config"
	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/health"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/ollama"
	"github.com/restaurantlens/restaurantlens/pkg/rag"
	"github.com/restaurantlens/restaurantlens/pkg/reviews"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// appConfig is the top level configuration for the server binary
type appConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" default:"json"`

	Server      *server.Config                   `yaml:"server"`
	Ollama      *ollama.Config                   `yaml:"ollama"`
	Embedding   *embeddings.OllamaProviderConfig `yaml:"embedding"`
	VectorStore string                           `yaml:"vector_store" env:"VECTOR_STORE" default:"memory"`
	SnapshotDir string                           `yaml:"snapshot_dir" env:"SNAPSHOT_DIR" default:"data/vectors"`
	Chroma      *embeddings.ChromaConfig         `yaml:"chroma"`
	Cache       *embeddings.RedisCacheConfig     `yaml:"cache"`
	Indexer     *embeddings.IndexerConfig        `yaml:"indexer"`
	RAG         *rag.Config                      `yaml:"rag"`
	Transformer *sentiment.TransformerConfig     `yaml:"transformer"`
	Analysis    *services.AnalysisServiceConfig  `yaml:"analysis"`

	// BootstrapCSV is scored and indexed at startup when set
	BootstrapCSV string `yaml:"bootstrap_csv" env:"BOOTSTRAP_CSV" default:""`
}

func defaultAppConfig() *appConfig {
	return &appConfig{
		LogLevel:    "info",
		LogFormat:   "json",
		Server:      server.GetDefaultConfig(),
		Ollama:      ollama.DefaultConfig(),
		Embedding:   &embeddings.OllamaProviderConfig{},
		VectorStore: "memory",
		SnapshotDir: "data/vectors",
		Chroma: &embeddings.ChromaConfig{
			BaseURL:    "http://localhost:8001",
			Tenant:     "default_tenant",
			Database:   "default_database",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		Cache: &embeddings.RedisCacheConfig{
			Addr: "localhost:6379",
			TTL:  168 * time.Hour,
		},
		Indexer:     &embeddings.IndexerConfig{},
		RAG:         rag.DefaultConfig(),
		Transformer: sentiment.DefaultTransformerConfig(),
		Analysis:    services.DefaultAnalysisServiceConfig(),
	}
}

func main() {
	var (
		configFile     = flag.String("config", "", "Path to configuration file")
		generateConfig = flag.String("generate-config", "", "Generate example configuration file at specified path")
		validateConfig = flag.Bool("validate-config", false, "Validate configuration and exit")
		host           = flag.String("host", "", "Server host")
		port           = flag.Int("port", 0, "Server port")
		logLevel       = flag.String("log-level", "", "Log level")
		bootstrapCSV   = flag.String("bootstrap", "", "Review CSV to score and index at startup")
		showVersion    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("RestaurantLens Server v1.0.0")
		os.Exit(0)
	}

	cfg := defaultAppConfig()
	loader := config.NewLoader("")

	if *generateConfig != "" {
		if err := config.ValidateConfigPath(*generateConfig); err != nil {
			log.Fatalf("Invalid config path: %v", err)
		}
		if err := loader.WriteExample(*generateConfig, cfg); err != nil {
			log.Fatalf("Failed to generate config file: %v", err)
		}
		fmt.Printf("Example configuration file generated at: %s\n", *generateConfig)
		os.Exit(0)
	}

	if *configFile != "" {
		if err := config.ValidateConfigPath(*configFile); err != nil {
			log.Fatalf("Invalid config file: %v", err)
		}
		if err := loader.LoadFromFile(*configFile, cfg); err != nil {
			log.Fatalf("Failed to load configuration from file: %v", err)
		}
	}

	// Environment variables override file values
	for _, section := range []interface{}{
		cfg, cfg.Server, cfg.Server.Database, cfg.Ollama, cfg.Embedding,
		cfg.Chroma, cfg.Cache, cfg.Indexer, cfg.RAG, cfg.Transformer, cfg.Analysis,
	} {
		if err := loader.LoadFromEnv(section); err != nil {
			log.Fatalf("Failed to load configuration from environment: %v", err)
		}
	}

	// Command line flags have the highest priority
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *bootstrapCSV != "" {
		cfg.BootstrapCSV = *bootstrapCSV
	}

	if *validateConfig {
		if err := cfg.Server.Validate(); err != nil {
			fmt.Printf("Configuration validation failed:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration validation passed successfully.")
		os.Exit(0)
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLogLevel(cfg.LogLevel),
		Format:  logger.ParseLogFormat(cfg.LogFormat),
		Output:  os.Stdout,
		Service: "restaurantlens",
		Version: "1.0.0",
	})
	logger.SetDefault(appLogger)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("server exited with error: %v", err)
	}
}

func run(cfg *appConfig, appLogger *logger.Logger) error {
	// Ollama client, shared by embeddings and generation
	ollamaClient, err := ollama.NewClient(cfg.Ollama)
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %w", err)
	}

	provider, err := embeddings.NewOllamaProvider(ollamaClient, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	store, err := openVectorStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	var cache embeddings.EmbeddingCache
	if cfg.Cache.Enabled {
		redisCache, err := embeddings.NewRedisCache(cfg.Cache)
		if err != nil {
			appLogger.Warn("embedding cache disabled: %v", err)
		} else {
			cache = redisCache
			defer redisCache.Close()
		}
	}

	indexer, err := embeddings.NewIndexer(provider, store, cache, cfg.Indexer, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer indexer.Stop()

	// Sentiment pipeline
	hybrid, err := sentiment.NewDefaultHybridScorer(cfg.Transformer, sentiment.WithLogger(appLogger))
	if err != nil {
		return fmt.Errorf("failed to create sentiment scorer: %w", err)
	}
	aspects := sentiment.NewAspectAnalyzer(sentiment.NewLexiconScorer())

	analysis, err := services.NewAnalysisService(hybrid, aspects, cfg.Analysis, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	// Optional PostgreSQL persistence
	var conn *database.Connection
	var reviewStore *database.Store
	if cfg.Server.Database != nil && cfg.Server.Database.Enabled {
		conn, err = database.NewConnection(cfg.Server.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()
		reviewStore = database.NewStore(conn)
	}

	ingest, err := services.NewIngestService(analysis, reviewStore, indexer, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create ingest service: %w", err)
	}

	engine, err := rag.NewEngine(cfg.RAG, indexer, ollamaClient, aspects, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create question answering engine: %w", err)
	}

	// Ensure the collection exists so health checks pass before the
	// first upload
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.CreateCollection(setupCtx, indexer.Collection(), provider.GetDimensions()); err != nil {
		appLogger.Warn("failed to pre-create vector collection: %v", err)
	}
	cancelSetup()

	// Health checks
	checker := health.NewHealthChecker(10 * time.Second)
	checker.AddChecker(health.NewPingChecker("ollama", true, "start Ollama and run restaurantlens-setup", func(ctx context.Context) error {
		return ollamaClient.HealthCheck(ctx)
	}))
	checker.AddChecker(health.NewPingChecker("vector_store", true, "check the vector store configuration", func(ctx context.Context) error {
		_, err := store.Info(ctx, indexer.Collection())
		return err
	}))
	if conn != nil {
		checker.AddChecker(health.NewPingChecker("database", false, "check the PostgreSQL configuration", func(ctx context.Context) error {
			return conn.HealthCheck(ctx)
		}))
	}

	// Bootstrap dataset
	if cfg.BootstrapCSV != "" {
		if err := bootstrap(cfg.BootstrapCSV, ingest, appLogger); err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}
	}

	// Scheduled reindex rebuilds the collection from stored reviews
	if cfg.Indexer.ReindexCron != "" {
		if err := indexer.StartScheduledReindex(ingest.Documents); err != nil {
			return fmt.Errorf("failed to schedule reindex: %w", err)
		}
	}

	return server.RunServer(cfg.Server, &server.Dependencies{
		Ingest:   ingest,
		Analysis: analysis,
		Engine:   engine,
		Health:   checker,
		Store:    reviewStore,
		DB:       conn,
		Indexer:  indexer,
		Logger:   appLogger,
	})
}

func openVectorStore(cfg *appConfig) (embeddings.VectorStore, error) {
	switch cfg.VectorStore {
	case "", "memory":
		return embeddings.NewMemoryStore(cfg.SnapshotDir)
	case "chroma":
		return embeddings.NewChromaStore(cfg.Chroma)
	default:
		return nil, fmt.Errorf("unknown vector store: %s (supported: memory, chroma)", cfg.VectorStore)
	}
}

func bootstrap(path string, ingest *services.IngestService, appLogger *logger.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open bootstrap CSV: %w", err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	appLogger.Info("bootstrapping review index from %s", path)
	result, err := ingest.UploadCSV(ctx, file, reviews.DefaultReaderOptions())
	if err != nil {
		return err
	}

	appLogger.Info("bootstrap complete: scored=%d skipped=%d indexed=%d", result.Scored, result.Skipped, result.Indexed)
	return nil
}
