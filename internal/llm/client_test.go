package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/table"
)

func salesTable(rows int) *table.Table {
	tbl := table.New("mapped_sales", []string{"SKU", "MSKU"})
	for i := 0; i < rows; i++ {
		tbl.Rows = append(tbl.Rows, map[string]string{"SKU": fmt.Sprintf("S%d", i), "MSKU": "X"})
	}
	return tbl
}

func newTestClient(url string, maxRows int) *Client {
	return NewClient(config.LLMConfig{
		Endpoint: url,
		Model:    "test-model",
		Timeout:  5 * time.Second,
		MaxRows:  maxRows,
	})
}

func TestAnswer(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"X sold the most."}}]}`)
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL, 2).Answer(context.Background(), salesTable(3), "Which MSKU sold most?", "secret")
	require.NoError(t, err)
	assert.Equal(t, "X sold the most.", answer)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)

	prompt := got.Messages[1].Content
	assert.True(t, strings.HasPrefix(prompt, "Which MSKU sold most?"))
	assert.Contains(t, prompt, "first 2 of 3 rows")
	assert.Contains(t, prompt, "SKU,MSKU\nS0,X\nS1,X\n")
	assert.NotContains(t, prompt, "S2")
}

func TestAnswerRejectsMissingInputsWithoutRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 10)

	_, err := c.Answer(context.Background(), salesTable(1), "  ", "secret")
	assert.ErrorIs(t, err, ErrMissingQuestion)

	_, err = c.Answer(context.Background(), salesTable(1), "question", "")
	assert.ErrorIs(t, err, ErrMissingCredential)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAnswerAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).Answer(context.Background(), salesTable(1), "q", "bad")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)
}

func TestAnswerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).Answer(context.Background(), salesTable(1), "q", "key")
	assert.Error(t, err)
}

func TestAnswerTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(server.URL, 10)
	c.timeout = 50 * time.Millisecond

	_, err := c.Answer(context.Background(), salesTable(1), "q", "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
