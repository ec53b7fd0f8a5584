package recall

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soundprediction/recall/pkg/checkpoint"
	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/nlp"
)

var (
	// ErrNotFound is returned when no cached fact matches a question.
	ErrNotFound = errors.New("not found")

	// ErrDependencyUnavailable is returned when the graph store, embedder,
	// or reranker cannot be reached. It is never conflated with ErrNotFound.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrMalformedInput is returned when input fails validation before any
	// backend is contacted.
	ErrMalformedInput = errors.New("malformed input")

	// ErrWriteConflict is returned when a concurrent write prevents a cache
	// fill from completing.
	ErrWriteConflict = errors.New("write conflict")
)

// Config holds tuning for the client. The zero value is usable; nil fields
// disable the corresponding feature.
type Config struct {
	// TopK is the number of candidate episodes retrieved per semantic
	// search. Defaults to 10.
	TopK int

	// MinScore filters reranked results below this relevance score.
	MinScore float64

	// LLM, when set, synthesizes answers from retrieved passages. Without
	// it the top passage is returned verbatim.
	LLM nlp.Client

	// Ledger, when set, deduplicates episode ingestion across restarts.
	Ledger *checkpoint.Ledger
}

// Client is the main implementation of the Recall interface.
type Client struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	reranker crossencoder.Client
	llm      nlp.Client
	ledger   *checkpoint.Ledger
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a new client. The graph driver, embedder, and reranker
// are required; config and logger may be nil.
func NewClient(graphDriver driver.GraphDriver, embedderClient embedder.Client, reranker crossencoder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if graphDriver == nil {
		return nil, errors.New("graph driver is required")
	}
	if embedderClient == nil {
		return nil, errors.New("embedder client is required")
	}
	if reranker == nil {
		return nil, errors.New("reranker client is required")
	}
	if config == nil {
		config = &Config{}
	}
	if config.TopK <= 0 {
		config.TopK = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		driver:   graphDriver,
		embedder: embedderClient,
		reranker: reranker,
		llm:      config.LLM,
		ledger:   config.Ledger,
		config:   config,
		logger:   logger,
	}, nil
}

// GetDriver returns the underlying graph driver.
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// GetEmbedder returns the embedder client.
func (c *Client) GetEmbedder() embedder.Client {
	return c.embedder
}

// Close closes all connections and cleans up resources.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if err := c.driver.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.reranker.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ledger != nil {
		if err := c.ledger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// mapDriverError translates driver errors into the package sentinels so
// callers can distinguish a genuine miss from a backend outage.
func mapDriverError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, driver.ErrConflict) {
		return errors.Join(ErrWriteConflict, err)
	}
	return errors.Join(ErrDependencyUnavailable, err)
}
