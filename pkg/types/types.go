package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrEmptyAnswer       = errors.New("answer cannot be empty")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrUnknownSourceKind = errors.New("unknown episode source kind")
)

// SourceKind identifies how an episode body should be interpreted.
type SourceKind string

const (
	// SourceText for free-form text content.
	SourceText SourceKind = "text"
	// SourceStructured for structured records serialized to canonical JSON.
	SourceStructured SourceKind = "structured"
)

// Episode is a unit of ingested knowledge. Once ingested an episode is
// append-only: its content and embedding are never mutated, only superseded
// by newer episodes.
type Episode struct {
	UUID        string                 `json:"uuid"`
	Name        string                 `json:"name"`
	Content     string                 `json:"content"`
	Structured  map[string]interface{} `json:"structured,omitempty"`
	Source      SourceKind             `json:"source"`
	Description string                 `json:"description,omitempty"`
	Reference   time.Time              `json:"reference"`
	CreatedAt   time.Time              `json:"created_at"`
	ContentHash string                 `json:"content_hash,omitempty"`
	Embedding   []float32              `json:"embedding,omitempty"`
}

// Validate checks the fields required before ingestion.
func (e *Episode) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Content == "" && e.Structured == nil {
		return ErrEmptyContent
	}
	switch e.Source {
	case SourceText, SourceStructured:
		return nil
	default:
		return ErrUnknownSourceKind
	}
}

// Fact is a derived assertion produced by the semantic retriever from one or
// more episodes. Text always carries the full supporting statement; the
// subject/predicate/object triple is filled in only when an answer
// synthesizer is configured.
type Fact struct {
	Subject     string `json:"subject,omitempty"`
	Predicate   string `json:"predicate,omitempty"`
	Object      string `json:"object,omitempty"`
	Text        string `json:"text"`
	EpisodeUUID string `json:"episode_uuid"`
}

// ScoredFact pairs a fact with its reranked score and the rank it held in
// the coarse similarity pass (0 is the nearest neighbor).
type ScoredFact struct {
	Fact           Fact    `json:"fact"`
	Score          float64 `json:"score"`
	SimilarityRank int     `json:"similarity_rank"`
}

// AnswerSource records which path produced an answer.
type AnswerSource string

const (
	// AnswerSourceCache for exact-match hits on stored question/answer edges.
	AnswerSourceCache AnswerSource = "cache"
	// AnswerSourceSemantic for answers derived through embedding search.
	AnswerSourceSemantic AnswerSource = "semantic"
)

// Answer is the result of asking a question.
type Answer struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	SQL      string       `json:"sql,omitempty"`
	Source   AnswerSource `json:"source"`
}

// FactRecord is the persisted question/answer(/SQL) triple as stored in the
// graph. Key is the normalized question text; Question keeps the original.
type FactRecord struct {
	Key       string    `json:"key"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	SQL       string    `json:"sql,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
