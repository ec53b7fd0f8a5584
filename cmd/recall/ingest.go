package recall

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/soundprediction/recall/pkg/config"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest episodes from a YAML file",
	Long: `Ingest episodes from a YAML file into the graph for semantic retrieval.

The file holds a list of episodes:

    - name: weekly report
      content: Profit in the last week was $10,200.
      description: finance summary
      reference: 2026-08-28T00:00:00Z
    - name: finance row
      source: structured
      structured:
        week: 36
        profit: 10200

Identical content is deduplicated, so re-running an ingest is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// episodeFile is the YAML shape of one episode in an ingest file. Reference
// is the RFC3339 time the content refers to, defaulting to ingestion time.
type episodeFile struct {
	Name        string                 `yaml:"name"`
	Content     string                 `yaml:"content"`
	Structured  map[string]interface{} `yaml:"structured"`
	Source      string                 `yaml:"source"`
	Description string                 `yaml:"description"`
	Reference   time.Time              `yaml:"reference"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var entries []episodeFile
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s contains no episodes", args[0])
	}

	episodes := make([]types.Episode, 0, len(entries))
	for _, entry := range entries {
		source := types.SourceText
		if entry.Source != "" {
			source = types.SourceKind(entry.Source)
		} else if len(entry.Structured) > 0 {
			source = types.SourceStructured
		}
		episodes = append(episodes, types.Episode{
			Name:        entry.Name,
			Content:     entry.Content,
			Structured:  entry.Structured,
			Source:      source,
			Description: entry.Description,
			Reference:   entry.Reference,
		})
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, _, log, err := initializeRecall(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	if err := client.BuildIndicesAndConstraints(ctx); err != nil {
		log.Warn("index creation failed", "error", err)
	}

	results, err := client.Add(ctx, episodes)
	if err != nil {
		return fmt.Errorf("ingested %d of %d episodes: %w", len(results), len(episodes), err)
	}

	fmt.Printf("Ingested %d episodes from %s\n", len(results), args[0])
	return nil
}
