// Package vector stores chunk embeddings in Qdrant and retrieves them
// scoped to a single paper URL.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/paperqa/internal/paper"
)

// Config holds Qdrant connection details.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index is a minimal REST client to Qdrant using cosine distance.
type Index struct {
	url        string
	apiKey     string
	collection string
	embedder   Embedder
	httpClient *http.Client
}

func NewIndex(cfg Config, embedder Embedder) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist.
func (x *Index) Init(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     x.embedder.Dimension(),
			"distance": "Cosine",
		},
	}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, x.collection), body)
}

// AddDocuments embeds the chunks and upserts them. Point IDs are UUIDv5 of
// the chunk's url and position, so re-ingesting a paper overwrites its
// points instead of duplicating them.
func (x *Index) AddDocuments(ctx context.Context, chunks []paper.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     pointID(c.Metadata.URL, i),
			"vector": vectors[i],
			"payload": map[string]any{
				"url":         c.Metadata.URL,
				"page_number": c.Metadata.PageNumber,
				"category":    c.Metadata.Category,
				"text":        c.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.collection), body)
}

// SimilaritySearch returns up to k chunks for the paper at url, ranked by
// similarity to query. The must-match url filter keeps retrieval scoped to
// one paper regardless of what else the collection holds.
func (x *Index) SimilaritySearch(ctx context.Context, query string, k int, url string) ([]paper.Chunk, error) {
	if k <= 0 {
		k = 8
	}
	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vectors[0],
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "url", "match": map[string]any{"value": url}},
			},
		},
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, x.collection), req, &resp); err != nil {
		return nil, err
	}

	chunks := make([]paper.Chunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		var c paper.Chunk
		if v, ok := r.Payload["text"].(string); ok {
			c.Text = v
		}
		if v, ok := r.Payload["url"].(string); ok {
			c.Metadata.URL = v
		}
		if v, ok := r.Payload["page_number"].(float64); ok {
			c.Metadata.PageNumber = int(v)
		}
		if v, ok := r.Payload["category"].(string); ok {
			c.Metadata.Category = v
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// pointID derives a stable UUID for a chunk from its paper URL and position.
func pointID(url string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", url, position)).String()
}

func (x *Index) putJSON(ctx context.Context, url string, body any) error {
	return x.send(ctx, http.MethodPut, url, body, nil)
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	return x.send(ctx, http.MethodPost, url, body, out)
}

func (x *Index) send(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}
