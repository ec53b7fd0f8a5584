package recall

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/checkpoint"
	"github.com/soundprediction/recall/pkg/config"
	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/logger"
	"github.com/soundprediction/recall/pkg/nlp"
	"github.com/soundprediction/recall/pkg/telemetry"
)

// newLogger builds the slog logger from config: colored terminal output,
// with the Parquet error archive layered on when telemetry is configured.
func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler = logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.Log.Level),
	})

	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		} else {
			handler = parquetHandler
		}
	}

	return slog.New(handler)
}

// newGraphDriver builds the graph driver from config.
func newGraphDriver(cfg *config.Config) (driver.GraphDriver, error) {
	switch cfg.Database.Driver {
	case "neo4j":
		return driver.NewNeo4jDriver(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	case "falkordb":
		return driver.NewFalkorDBDriver(cfg.Database.URI, cfg.Database.Password, cfg.Database.Database), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// newEmbedder builds the embedding client from config.
func newEmbedder(cfg *config.Config) (embedder.Client, error) {
	switch cfg.Embedding.Provider {
	case "openai", "":
		return embedder.NewOpenAIClient(embedder.Config{
			Model:      cfg.Embedding.Model,
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "embedeverything":
		return embedder.NewEmbedEverythingClient(embedder.Config{
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// initializeRecall wires the full client from config. The returned driver is
// shared with the server for readiness checks.
func initializeRecall(cfg *config.Config) (*recall.Client, driver.GraphDriver, *slog.Logger, error) {
	log := newLogger(cfg)

	graphDriver, err := newGraphDriver(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	embedderClient, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var llmClient nlp.Client
	if cfg.NLP.APIKey != "" || cfg.NLP.BaseURL != "" {
		llmClient, err = nlp.NewOpenAIClient(nlp.Config{
			Model:       cfg.NLP.Model,
			APIKey:      cfg.NLP.APIKey,
			BaseURL:     cfg.NLP.BaseURL,
			Temperature: cfg.NLP.Temperature,
			MaxTokens:   cfg.NLP.MaxTokens,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create language model client: %w", err)
		}
		llmClient = nlp.NewCircuitBreakerClient(llmClient, nlp.BreakerConfig{
			Enabled:          cfg.CircuitBreaker.Enabled,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			IntervalSeconds:  cfg.CircuitBreaker.Interval,
			TimeoutSeconds:   cfg.CircuitBreaker.Timeout,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		}, "answer-synthesis", log)
	}

	reranker, err := crossencoder.NewClient(crossencoder.ClientConfig{
		Provider: crossencoder.Provider(cfg.Reranker.Provider),
		Config: crossencoder.Config{
			Model:          cfg.Reranker.Model,
			MaxConcurrency: cfg.Reranker.MaxConcurrency,
		},
		LLMClient:      llmClient,
		EmbedderClient: embedderClient,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	var ledger *checkpoint.Ledger
	if cfg.Checkpoint.Enabled {
		ledger, err = checkpoint.OpenLedger(cfg.Checkpoint.Dir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open ingest ledger: %w", err)
		}
	}

	client, err := recall.NewClient(graphDriver, embedderClient, reranker, &recall.Config{
		TopK:     cfg.Retrieval.TopK,
		MinScore: cfg.Retrieval.MinScore,
		LLM:      llmClient,
		Ledger:   ledger,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return client, graphDriver, log, nil
}
