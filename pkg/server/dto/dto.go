// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"
	"time"
)

// MaxContentLength caps episode content accepted over HTTP.
const MaxContentLength = 1 << 20

// ErrContentTooLong is returned when episode content exceeds MaxContentLength.
var ErrContentTooLong = errors.New("content exceeds maximum length")

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse is the reply to an ask.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	SQL      string `json:"sql,omitempty"`
	Source   string `json:"source"`
}

// FactRequest is the body of POST /api/v1/facts.
type FactRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	SQL      string `json:"sql,omitempty"`
}

// EpisodeInput is a single episode in an ingest request. Reference is the
// RFC3339 point in time the content refers to; it defaults to the ingestion
// time when omitted.
type EpisodeInput struct {
	Name        string                 `json:"name" binding:"required"`
	Content     string                 `json:"content,omitempty"`
	Structured  map[string]interface{} `json:"structured,omitempty"`
	Source      string                 `json:"source,omitempty"`
	Description string                 `json:"description,omitempty"`
	Reference   string                 `json:"reference,omitempty"`
}

// Validate performs validation on EpisodeInput.
func (e *EpisodeInput) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if e.Content == "" && len(e.Structured) == 0 {
		return errors.New("one of content or structured is required")
	}
	if len(e.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if e.Reference != "" {
		if _, err := time.Parse(time.RFC3339, e.Reference); err != nil {
			return errors.New("reference must be an RFC3339 timestamp")
		}
	}
	return nil
}

// ReferenceTime parses the reference timestamp; the zero time when unset.
func (e *EpisodeInput) ReferenceTime() time.Time {
	t, err := time.Parse(time.RFC3339, e.Reference)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Episodes []EpisodeInput `json:"episodes" binding:"required"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// Result represents a generic API result.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
