// Package llm answers natural-language questions about a combined table by
// delegating to an OpenAI-compatible chat-completions endpoint.
package llm

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

	"github.com/rs/zerolog/log"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/table"
	"github.com/ginjaninja78/sku-mapper/internal/writer"
)

var (
	// ErrMissingQuestion is returned for an empty question.
	ErrMissingQuestion = errors.New("a question is required")

	// ErrMissingCredential is returned for an empty API key.
	ErrMissingCredential = errors.New("an API key is required")
)

// Answerer answers a question about a table.
type Answerer interface {
	Answer(ctx context.Context, t *table.Table, question, credential string) (string, error)
}

// APIError is a non-2xx response from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query endpoint returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("query endpoint returned HTTP %d: %s", e.StatusCode, e.Message)
}

const systemPrompt = "You are a data analyst. Answer the user's question using only the sales table " +
	"provided in CSV form. Every row has an MSKU column; the value UNKNOWN marks a SKU with no mapping."

// Client is the production Answerer.
type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	timeout    time.Duration
	maxRows    int
}

// NewClient returns a Client for the configured endpoint.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRows:    cfg.MaxRows,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Answer sends the question and the first rows of t to the endpoint and
// returns the reply text unchanged. Empty question or credential fail
// before any request is made.
func (c *Client) Answer(ctx context.Context, t *table.Table, question, credential string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrMissingQuestion
	}
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}

	prompt, err := c.userPrompt(t, question)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", c.model).
		Int("rows", t.Len()).
		Msg("Sending query")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Message = er.Error.Message
		}
		return "", apiErr
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("query response contained no choices")
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("Query answered")

	return cr.Choices[0].Message.Content, nil
}

// userPrompt renders the question followed by the table as CSV, capped at
// maxRows rows.
func (c *Client) userPrompt(t *table.Table, question string) (string, error) {
	head := t.Head(c.maxRows)

	var sb strings.Builder
	sb.WriteString(question)
	if head.Len() < t.Len() {
		fmt.Fprintf(&sb, "\n\nTable (first %d of %d rows):\n", head.Len(), t.Len())
	} else {
		fmt.Fprintf(&sb, "\n\nTable (%d rows):\n", t.Len())
	}

	if err := writer.WriteCSV(&sb, head, ','); err != nil {
		return "", fmt.Errorf("failed to serialize table: %w", err)
	}
	return sb.String(), nil
}
