package recall

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/soundprediction/recall/pkg/utils"
)

// mockDriver is an in-memory GraphDriver for tests. Setting failAll makes
// every call fail, simulating a backend outage.
type mockDriver struct {
	mu           sync.Mutex
	facts        map[string]*types.FactRecord
	episodes     map[string]*types.Episode // keyed by content hash
	failAll      bool
	failPuts     bool
	failConflict bool

	putFactCalls int
	getFactCalls int
	searchCalls  int
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		facts:    make(map[string]*types.FactRecord),
		episodes: make(map[string]*types.Episode),
	}
}

func (m *mockDriver) outage() error {
	if m.failAll {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (m *mockDriver) UpsertNode(ctx context.Context, ref driver.NodeRef, properties map[string]interface{}) error {
	return m.outage()
}

func (m *mockDriver) UpsertEdge(ctx context.Context, from driver.NodeRef, relType string, to driver.NodeRef) error {
	return m.outage()
}

func (m *mockDriver) ExecuteRead(ctx context.Context, query string, params map[string]interface{}) (*driver.QueryResult, error) {
	if err := m.outage(); err != nil {
		return nil, err
	}
	return &driver.QueryResult{}, nil
}

func (m *mockDriver) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) (*driver.QueryResult, error) {
	if err := m.outage(); err != nil {
		return nil, err
	}
	return &driver.QueryResult{}, nil
}

func (m *mockDriver) UpsertFact(ctx context.Context, record *types.FactRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putFactCalls++
	if err := m.outage(); err != nil {
		return err
	}
	if m.failPuts {
		return fmt.Errorf("write rejected")
	}
	if m.failConflict {
		return fmt.Errorf("fact upsert failed: %w", driver.ErrConflict)
	}
	stored := *record
	if existing, ok := m.facts[record.Key]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	m.facts[record.Key] = &stored
	return nil
}

func (m *mockDriver) GetFact(ctx context.Context, key string) (*types.FactRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getFactCalls++
	if err := m.outage(); err != nil {
		return nil, err
	}
	record, ok := m.facts[key]
	if !ok {
		return nil, driver.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockDriver) UpsertEpisode(ctx context.Context, episode *types.Episode) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.outage(); err != nil {
		return "", false, err
	}
	if existing, ok := m.episodes[episode.ContentHash]; ok {
		return existing.UUID, false, nil
	}
	copied := *episode
	m.episodes[episode.ContentHash] = &copied
	return episode.UUID, true, nil
}

func (m *mockDriver) GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.outage(); err != nil {
		return nil, err
	}
	episodes := make([]*types.Episode, 0, len(m.episodes))
	for _, e := range m.episodes {
		if e.Reference.After(reference) {
			continue
		}
		copied := *e
		episodes = append(episodes, &copied)
	}
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Reference.After(episodes[j].Reference)
	})
	if len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

func (m *mockDriver) SearchEpisodesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*types.Episode, []float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if err := m.outage(); err != nil {
		return nil, nil, err
	}

	type scored struct {
		episode    *types.Episode
		similarity float64
	}
	candidates := make([]scored, 0, len(m.episodes))
	for _, e := range m.episodes {
		copied := *e
		candidates = append(candidates, scored{
			episode:    &copied,
			similarity: utils.CosineSimilarity(embedding, e.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].episode.UUID < candidates[j].episode.UUID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	episodes := make([]*types.Episode, len(candidates))
	similarities := make([]float64, len(candidates))
	for i, c := range candidates {
		episodes[i] = c.episode
		similarities[i] = c.similarity
	}
	return episodes, similarities, nil
}

func (m *mockDriver) CreateIndices(ctx context.Context) error { return m.outage() }
func (m *mockDriver) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.outage(); err != nil {
		return err
	}
	m.facts = make(map[string]*types.FactRecord)
	m.episodes = make(map[string]*types.Episode)
	return nil
}
func (m *mockDriver) VerifyConnectivity(ctx context.Context) error { return m.outage() }
func (m *mockDriver) Provider() driver.GraphProvider               { return driver.GraphProviderNeo4j }
func (m *mockDriver) Close(ctx context.Context) error              { return nil }

var _ driver.GraphDriver = (*mockDriver)(nil)

// mockEmbedder produces deterministic bag-of-words embeddings so texts
// sharing terms land near each other in the vector space.
type mockEmbedder struct {
	fail bool
}

const mockDims = 32

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.fail {
		return nil, fmt.Errorf("embedding service unreachable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedText(text)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if m.fail {
		return nil, fmt.Errorf("embedding service unreachable")
	}
	return embedText(text), nil
}

func (m *mockEmbedder) Dimensions() int { return mockDims }
func (m *mockEmbedder) Close() error    { return nil }

func embedText(text string) []float32 {
	vec := make([]float32, mockDims)
	for _, term := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(term, ".,;:?!'\"")))
		vec[h.Sum32()%mockDims]++
	}
	return utils.Normalize(vec)
}

// mockLLM returns a canned response for answer synthesis tests.
type mockLLM struct {
	response string
	err      error
	calls    int
}

func (m *mockLLM) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &types.Response{Content: m.response}, nil
}

func (m *mockLLM) Close() error { return nil }
