package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sknshr/kakao-hr-bot/internal/chunk"
	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/embed"
	"github.com/sknshr/kakao-hr-bot/internal/httpapi"
	"github.com/sknshr/kakao-hr-bot/internal/llm"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
	"github.com/sknshr/kakao-hr-bot/internal/memory"
	"github.com/sknshr/kakao-hr-bot/internal/pipeline"
	"github.com/sknshr/kakao-hr-bot/internal/rag"
)

// Config represents the application configuration.
type Config struct {
	BotName          string
	HTTPAddr         string
	OpenRouterAPIKey string
	OpenRouterModel  string
	EmbedServiceURL  string
	MilvusHost       string
	MilvusPort       string
	RedisAddr        string
	EmbeddingDim     int
	ChunkSize        int
	ChunkOverlap     int
	MockStore        bool
}

// loadConfig loads configuration from environment variables.
func loadConfig() *Config {
	return &Config{
		BotName:          getEnvWithDefault("BOT_NAME", "kakao-hr-bot"),
		HTTPAddr:         getEnvWithDefault("HTTP_ADDR", ":8080"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  getEnvWithDefault("OPENROUTER_MODEL", "meta-llama/llama-3-70b-instruct"),
		EmbedServiceURL:  getEnvWithDefault("EMBED_SERVICE_URL", "http://localhost:8090"),
		MilvusHost:       getEnvWithDefault("MILVUS_HOST", "milvus"),
		MilvusPort:       getEnvWithDefault("MILVUS_PORT", "19530"),
		RedisAddr:        getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		EmbeddingDim:     getEnvIntWithDefault("EMBEDDING_DIM", rag.DefaultEmbeddingDim),
		ChunkSize:        getEnvIntWithDefault("CHUNK_SIZE", chunk.DefaultSize),
		ChunkOverlap:     getEnvIntWithDefault("CHUNK_OVERLAP", chunk.DefaultOverlap),
		MockStore:        os.Getenv("MOCK_STORE") == "true",
	}
}

// getEnvWithDefault gets an environment variable or returns a default value.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Invalid value %q for %s, using default %d", value, key, defaultValue)
		return defaultValue
	}
	return n
}

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Initialize logger
	logger.Init(*debug)

	logger.Info("Starting bot...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	// Load configuration
	config := loadConfig()

	if logger.IsDebugEnabled() {
		logger.Debug("Configuration loaded: OpenRouterModel=%s, EmbedServiceURL=%s, MilvusHost=%s, RedisAddr=%s",
			config.OpenRouterModel, config.EmbedServiceURL, config.MilvusHost, config.RedisAddr)
	}

	// Validate required settings
	if config.OpenRouterAPIKey == "" {
		logger.Error("OPENROUTER_API_KEY environment variable is required")
		os.Exit(1)
	}
	if config.ChunkOverlap >= config.ChunkSize {
		logger.Error("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", config.ChunkOverlap, config.ChunkSize)
		os.Exit(1)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	logger.Info("Initializing services...")

	var store core.DocStore
	if config.MockStore {
		logger.Warn("MOCK_STORE enabled, document store is in-memory only")
		store = rag.NewMockStore()
	} else {
		milvusAddr := config.MilvusHost + ":" + config.MilvusPort
		milvusStore, err := rag.NewMilvusStore(ctx, milvusAddr, config.EmbeddingDim)
		if err != nil {
			logger.Error("Failed to initialize Milvus store: %v", err)
			os.Exit(1)
		}
		defer milvusStore.Close(context.Background())
		store = milvusStore
	}

	memStore, err := memory.NewRedisStore(ctx, config.RedisAddr)
	if err != nil {
		logger.Error("Failed to initialize Redis memory store: %v", err)
		os.Exit(1)
	}
	defer memStore.Close()

	embedService := embed.NewClient(config.EmbedServiceURL)
	llmService := llm.NewOpenRouterService(config.OpenRouterAPIKey, config.OpenRouterModel)

	orchestrator := pipeline.New(llmService, embedService, store, memStore)
	orchestrator.ChunkSize = config.ChunkSize
	orchestrator.ChunkOverlap = config.ChunkOverlap

	server := httpapi.NewServer(orchestrator, config.BotName)
	httpServer := &http.Server{
		Addr:    config.HTTPAddr,
		Handler: server.Handler(),
	}

	// Start the server
	go func() {
		logger.Info("HTTP server listening on %s", config.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-quit
	logger.Info("Shutting down bot...")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed: %v", err)
	}

	logger.Info("Bot has been shut down")
}
