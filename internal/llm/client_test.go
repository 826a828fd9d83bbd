package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"auth failure", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"context length", &openai.APIError{HTTPStatusCode: http.StatusUnprocessableEntity}, false},
		{"network error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, isTransient(tt.err))
		})
	}
}

func TestIsTransientUnwrapsAPIErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to generate embedding: %w",
		&openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable})

	assert.True(t, isTransient(wrapped))

	wrapped = fmt.Errorf("failed to generate embedding: %w",
		&openai.APIError{HTTPStatusCode: http.StatusForbidden})

	assert.False(t, isTransient(wrapped))
}
