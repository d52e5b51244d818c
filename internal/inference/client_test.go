package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(ClientConfig{
		URL:     url,
		Model:   "deepseek-r1:1.5b",
		Timeout: timeout,
		Options: Options{Temperature: 0.3, TopK: 40, TopP: 0.9, RepeatPenalty: 1.1, NumPredict: 256},
	})
}

func TestClientAsk(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "<think>the user wants majors</think>\n## Majors\nCS leads.\n# Advice\n* Hire tutors"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	answer, err := client.Ask(context.Background(), "  Which major is biggest? ", "Total students: 6")
	require.NoError(t, err)

	assert.Equal(t, "### Majors\nCS leads.\n\n### Advice\n* Hire tutors", answer)
	assert.Equal(t, "deepseek-r1:1.5b", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 40, got.Options.TopK)
	assert.Equal(t, 256, got.Options.NumPredict)
	assert.Contains(t, got.Prompt, "Total students: 6")
	assert.Contains(t, got.Prompt, "Question: Which major is biggest?")
	assert.Contains(t, got.Prompt, "using only the statistics below")
}

func TestClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"Non-2xx status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}},
		{"Malformed JSON", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"response":`))
		}},
		{"Missing response field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"done": true}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server.URL, time.Second).Ask(context.Background(), "q", "stats")
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrRequestFailed))
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, time.Second).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(server.URL, 50*time.Millisecond).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClientEmptyResponseIsAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": ""}`))
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL, time.Second).Ask(context.Background(), "q", "stats")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}
