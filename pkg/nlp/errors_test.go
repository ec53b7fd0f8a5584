package nlp

import (
	"errors"
	"strings"
	"testing"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError()
	if !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	var rle *RateLimitError
	if !errors.As(error(err), &rle) {
		t.Error("errors.As should match *RateLimitError")
	}
}

func TestRefusalError(t *testing.T) {
	err := &RefusalError{Message: "content filtered"}
	if !strings.Contains(err.Error(), "content filtered") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestEmptyResponseError(t *testing.T) {
	err := &EmptyResponseError{}
	if err.Error() == "" {
		t.Error("expected default message")
	}
}

func TestHasAPIPath(t *testing.T) {
	cases := map[string]bool{
		"http://localhost:11434/v1":  true,
		"http://localhost:11434/api": true,
		"http://localhost:11434":     false,
	}
	for url, want := range cases {
		if got := hasAPIPath(url); got != want {
			t.Errorf("hasAPIPath(%q) = %v, want %v", url, got, want)
		}
	}
}
