package nlp

import "fmt"

// RateLimitError indicates the provider rejected a request due to rate
// limiting. Callers may retry after a backoff.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// NewRateLimitError creates a RateLimitError with a default message.
func NewRateLimitError() *RateLimitError {
	return &RateLimitError{Message: "rate limit exceeded. please try again later"}
}

// RefusalError indicates the model refused to produce a completion.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("model refused to respond: %s", e.Message)
}

// EmptyResponseError indicates the provider returned no usable content.
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	if e.Message == "" {
		return "empty response from language model"
	}
	return e.Message
}
