// Package inference talks to an Ollama-compatible text-generation endpoint
// and cleans up what it returns.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"gradebook/pkg/logger"
	"gradebook/pkg/metrics"
)

// ErrRequestFailed wraps every failure to obtain generated text.
var ErrRequestFailed = errors.New("inference request failed")

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Options are the generation parameters sent with every call.
type Options struct {
	Temperature   float64 `json:"temperature"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NumPredict    int     `json:"num_predict"`
}

// ClientConfig configures the client.
type ClientConfig struct {
	// URL is the full generate endpoint, e.g. http://localhost:11434/api/generate.
	URL     string
	Model   string
	Timeout time.Duration
	Options Options
	Logger  logger.Logger
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Client sends prompts to the generation endpoint. It never retries.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a client bounded by config.Timeout.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger.Named("inference"),
	}
}

// Ask answers question from the statistics in stats and returns the
// sanitized answer.
func (c *Client) Ask(ctx context.Context, question, stats string) (string, error) {
	raw, err := c.Generate(ctx, BuildPrompt(question, stats))
	if err != nil {
		return "", err
	}
	return Sanitize(raw), nil
}

// Generate sends prompt as a single non-streamed request and returns the raw
// generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.doRequest(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordInference("error", elapsed)
		c.logger.Error(ctx, "text generation failed",
			logger.String("model", c.config.Model),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	metrics.RecordInference("ok", elapsed)
	c.logger.Debug(ctx, "text generated",
		logger.String("model", c.config.Model),
		logger.Duration("elapsed", elapsed),
		logger.Int("chars", len(text)))
	return text, nil
}

func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: c.config.Options,
	})
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorBody))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if out.Response == nil {
		return "", errors.New("response field missing")
	}
	return *out.Response, nil
}

// BuildPrompt embeds the statistics block and the question in a prompt that
// limits the model to the supplied context.
func BuildPrompt(question, stats string) string {
	var b strings.Builder
	b.WriteString("You are an academic records analyst. Answer the question using only the statistics below. ")
	b.WriteString("If the statistics do not contain the answer, say so. ")
	b.WriteString("Format the answer in Markdown using ### section headers and * bullet points.\n\n")
	b.WriteString("Statistics:\n")
	b.WriteString(stats)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer:")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
