package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/recall/pkg/config"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the answer cache",
	Long: `Ask a question. The cache is consulted first for an exact match; on a miss
the question is answered through semantic search over ingested episodes and
the result is written back to the cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, _, _, err := initializeRecall(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	question := strings.Join(args, " ")
	answer, err := client.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Printf("Answer (%s): %s\n", answer.Source, answer.Answer)
	if answer.SQL != "" {
		fmt.Printf("SQL: %s\n", answer.SQL)
	}
	return nil
}
