package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// financeTriples mirrors a typical finance QA seed set.
var financeTriples = []struct {
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

func newTestClient(t *testing.T, drv *mockDriver, config *Config) *Client {
	t.Helper()
	if config == nil {
		config = &Config{}
	}
	client, err := NewClient(drv, &mockEmbedder{}, crossencoder.NewLocalRerankerClient(crossencoder.Config{}), config, nil)
	require.NoError(t, err)
	return client
}

func TestPutFactGetFactRoundTrip(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	for _, triple := range financeTriples {
		_, err := client.PutFact(ctx, triple.Question, triple.Answer, triple.SQL)
		require.NoError(t, err)
	}

	for _, triple := range financeTriples {
		record, err := client.GetFact(ctx, triple.Question)
		require.NoError(t, err)
		assert.Equal(t, triple.Answer, record.Answer)
		assert.Equal(t, triple.SQL, record.SQL)
	}
}

func TestGetFactNormalizesQuestion(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "What was the profit in the last week?",
		"Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
	require.NoError(t, err)

	variants := []string{
		"what was the profit in the last week?",
		"  What was the profit in the last week?  ",
		"WHAT  WAS THE   PROFIT IN THE LAST WEEK?",
	}
	for _, q := range variants {
		record, err := client.GetFact(ctx, q)
		require.NoError(t, err, "variant %q should hit", q)
		assert.Equal(t, "Profit in the last week was $10,200.", record.Answer)
	}

	_, err = client.GetFact(ctx, "What was the profit in the last year?")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutFactIdempotent(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.PutFact(ctx, "What was the profit in the last week?",
			"Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
		require.NoError(t, err)
	}

	assert.Len(t, drv.facts, 1, "repeated writes of the same triple must not multiply records")
}

func TestPutFactOverwritesAnswer(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "What was the profit in the last week?", "Profit was $9,000.", "")
	require.NoError(t, err)
	_, err = client.PutFact(ctx, "What was the profit in the last week?", "Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
	require.NoError(t, err)

	record, err := client.GetFact(ctx, "What was the profit in the last week?")
	require.NoError(t, err)
	assert.Equal(t, "Profit in the last week was $10,200.", record.Answer)
	assert.Equal(t, "SELECT SUM(profit) FROM finance WHERE week = 36;", record.SQL)
}

func TestPutFactClearsSQL(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "What was the profit in the last week?",
		"Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
	require.NoError(t, err)

	// A re-put without SQL must drop the stored query, not leave the old
	// one paired with the new answer.
	_, err = client.PutFact(ctx, "What was the profit in the last week?", "Profit figures are being restated.", "")
	require.NoError(t, err)

	record, err := client.GetFact(ctx, "What was the profit in the last week?")
	require.NoError(t, err)
	assert.Equal(t, "Profit figures are being restated.", record.Answer)
	assert.Empty(t, record.SQL)
}

func TestPutFactConflict(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	ctx := context.Background()

	drv.failConflict = true
	_, err := client.PutFact(ctx, "What was the profit in the last week?",
		"Profit in the last week was $10,200.", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteConflict)
	assert.False(t, errors.Is(err, ErrDependencyUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPutFactRejectsMalformedInput(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "   ", "some answer", "")
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = client.PutFact(ctx, "a question?", "   ", "")
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = client.GetFact(ctx, "")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestPutFactWithoutSQL(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "Who leads the finance team?", "Jordan leads the finance team.", "")
	require.NoError(t, err)

	record, err := client.GetFact(ctx, "Who leads the finance team?")
	require.NoError(t, err)
	assert.Empty(t, record.SQL)
}

func TestGetFactOutageIsNotAMiss(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	ctx := context.Background()

	drv.failAll = true
	_, err := client.GetFact(ctx, "What was the profit in the last week?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.False(t, errors.Is(err, ErrNotFound), "an outage must not be reported as a miss")
}

func TestClearGraphThenMiss(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "What was the profit in the last week?",
		"Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
	require.NoError(t, err)

	require.NoError(t, client.ClearGraph(ctx))

	_, err = client.GetFact(ctx, "What was the profit in the last week?")
	assert.ErrorIs(t, err, ErrNotFound)
}
