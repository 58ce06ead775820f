package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// Client talks to a BGE-M3 embedding server that returns dense and sparse
// vectors for a text. Implements core.EmbedService.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an embedding client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Dense  []float32 `json:"dense"`
	Sparse struct {
		Indices []uint32  `json:"indices"`
		Values  []float32 `json:"values"`
	} `json:"sparse"`
	Error string `json:"error,omitempty"`
}

// EmbedQuery requests a hybrid embedding for the text.
func (c *Client) EmbedQuery(ctx context.Context, text string) (core.EmbeddingVector, error) {
	jsonData, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return core.EmbeddingVector{}, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewBuffer(jsonData))
	if err != nil {
		return core.EmbeddingVector{}, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.EmbeddingVector{}, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.EmbeddingVector{}, fmt.Errorf("failed to read embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.EmbeddingVector{}, fmt.Errorf("embedding service HTTP error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.EmbeddingVector{}, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if parsed.Error != "" {
		return core.EmbeddingVector{}, fmt.Errorf("embedding service error: %s", parsed.Error)
	}
	if len(parsed.Dense) == 0 {
		return core.EmbeddingVector{}, fmt.Errorf("embedding service returned no dense vector")
	}

	sparse := make(map[uint32]float32, len(parsed.Sparse.Indices))
	for i, idx := range parsed.Sparse.Indices {
		if i < len(parsed.Sparse.Values) {
			sparse[idx] = parsed.Sparse.Values[i]
		}
	}

	logger.Debug("embedded %d chars into dense[%d] + sparse[%d]", len(text), len(parsed.Dense), len(sparse))
	return core.EmbeddingVector{Dense: parsed.Dense, Sparse: sparse}, nil
}
