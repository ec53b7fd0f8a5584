package recall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/soundprediction/recall/pkg/nlp"
	"github.com/soundprediction/recall/pkg/types"
)

const synthesisSystemPrompt = `You answer questions using only the provided passages.
Respond with a JSON object: {"answer": "...", "sql": "..."}.
The "answer" field is a concise answer to the question.
The "sql" field is a SQL query supporting the answer if one appears in the passages, otherwise an empty string.
If the passages do not contain the answer, set "answer" to an empty string.`

// synthesizedAnswer is the JSON shape the synthesis prompt requests.
type synthesizedAnswer struct {
	Answer string `json:"answer"`
	SQL    string `json:"sql"`
}

// Ask answers a question. The exact-match cache is consulted first; on a miss
// the question goes through semantic retrieval and, when a language model is
// configured, answer synthesis. Synthesized answers are written back to the
// cache on a best-effort basis so the next identical question is a cache hit.
//
// A backend outage surfaces as ErrDependencyUnavailable, never as a miss. A
// question the graph holds no knowledge for returns ErrNotFound.
func (c *Client) Ask(ctx context.Context, question string) (*types.Answer, error) {
	record, err := c.GetFact(ctx, question)
	if err == nil {
		c.logger.Debug("cache hit", "question", question)
		return &types.Answer{
			Question: question,
			Answer:   record.Answer,
			SQL:      record.SQL,
			Source:   types.AnswerSourceCache,
		}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c.logger.Debug("cache miss, falling back to semantic retrieval", "question", question)

	facts, err := c.Search(ctx, question, c.config.TopK)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("%w: no knowledge for question", ErrNotFound)
	}

	answer, sql, err := c.synthesizeAnswer(ctx, question, facts)
	if err != nil {
		return nil, err
	}
	if answer == "" {
		return nil, fmt.Errorf("%w: retrieved passages did not answer the question", ErrNotFound)
	}

	// Cache fill is best effort: a write failure degrades the next lookup
	// to another search, it does not fail this one.
	if _, err := c.PutFact(ctx, question, answer, sql); err != nil {
		c.logger.Warn("cache fill failed", "question", question, "error", err)
	}

	return &types.Answer{
		Question: question,
		Answer:   answer,
		SQL:      sql,
		Source:   types.AnswerSourceSemantic,
	}, nil
}

// synthesizeAnswer turns retrieved facts into an answer. With a language
// model configured the facts are summarized through a JSON prompt; without
// one the top-ranked passage is returned verbatim.
func (c *Client) synthesizeAnswer(ctx context.Context, question string, facts []types.ScoredFact) (answer, sql string, err error) {
	if c.llm == nil {
		return strings.TrimSpace(facts[0].Fact.Text), "", nil
	}

	var sb strings.Builder
	for i, fact := range facts {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, fact.Fact.Text)
	}

	messages := []types.Message{
		nlp.NewSystemMessage(synthesisSystemPrompt),
		nlp.NewUserMessage(fmt.Sprintf("PASSAGES:\n%s\nQUESTION: %s", sb.String(), question)),
	}

	response, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return "", "", fmt.Errorf("%w: answer synthesis failed: %v", ErrDependencyUnavailable, err)
	}

	content := response.Content
	if repaired, repairErr := jsonrepair.JSONRepair(content); repairErr == nil {
		content = repaired
	}

	var parsed synthesizedAnswer
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// The model ignored the JSON instruction; treat the raw content
		// as the answer rather than discarding retrieval work.
		c.logger.Warn("synthesis response was not JSON, using raw content", "error", err)
		return strings.TrimSpace(response.Content), "", nil
	}

	return strings.TrimSpace(parsed.Answer), strings.TrimSpace(parsed.SQL), nil
}
