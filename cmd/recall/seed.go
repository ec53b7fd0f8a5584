package recall

import (
	"context"
	"fmt"

	"github.com/soundprediction/recall/pkg/config"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the cache with finance QA triples",
	Long: `Seed the graph with a set of finance question/answer/SQL triples for
demonstration. With --clear the graph is wiped first.`,
	RunE: runSeed,
}

var seedClear bool

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "clear the graph before seeding")
}

// seedTriples is the demonstration data set: weekly and monthly finance
// aggregates with the SQL that produced each answer.
var seedTriples = []struct {
	Question string
	Answer   string
	SQL      string
}{
	{"What was the profit in the last week?", "Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;"},
	{"What was the revenue in the last week?", "Revenue in the last week was $45,700.", "SELECT SUM(revenue) FROM finance WHERE week = 36;"},
	{"What were the expenses in the last week?", "Expenses in the last week were $35,500.", "SELECT SUM(expenses) FROM finance WHERE week = 36;"},
	{"What was the profit in the last month?", "Profit in the last month was $41,800.", "SELECT SUM(profit) FROM finance WHERE month = 8;"},
	{"What was the revenue in the last month?", "Revenue in the last month was $182,300.", "SELECT SUM(revenue) FROM finance WHERE month = 8;"},
	{"What were the expenses in the last month?", "Expenses in the last month were $140,500.", "SELECT SUM(expenses) FROM finance WHERE month = 8;"},
	{"What was the best selling product last week?", "The best selling product last week was the alpha widget.", "SELECT product FROM sales WHERE week = 36 ORDER BY units DESC LIMIT 1;"},
	{"How many units were sold last week?", "12,450 units were sold last week.", "SELECT SUM(units) FROM sales WHERE week = 36;"},
	{"What was the gross margin last quarter?", "Gross margin last quarter was 23 percent.", "SELECT AVG(margin) FROM finance WHERE quarter = 2;"},
	{"Which region had the highest revenue last month?", "The northeast region had the highest revenue last month.", "SELECT region FROM finance WHERE month = 8 ORDER BY revenue DESC LIMIT 1;"},
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	if seedClear {
		if err := client.ClearGraph(ctx); err != nil {
			return fmt.Errorf("failed to clear graph: %w", err)
		}
		log.Info("graph cleared")
	}

	if err := client.BuildIndicesAndConstraints(ctx); err != nil {
		log.Warn("index creation failed", "error", err)
	}

	for _, triple := range seedTriples {
		if _, err := client.PutFact(ctx, triple.Question, triple.Answer, triple.SQL); err != nil {
			return fmt.Errorf("failed to seed %q: %w", triple.Question, err)
		}
	}

	fmt.Printf("Seeded %d facts\n", len(seedTriples))
	return nil
}
