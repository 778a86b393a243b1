// Package unstructured calls the Unstructured partition API to turn a PDF
// into page-tagged text chunks.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/paperqa/internal/paper"
)

const DefaultBaseURL = "https://api.unstructured.io/general/v0/general"

var ErrExtractionFailed = errors.New("extraction failed")

// Client communicates with the Unstructured API.
type Client struct {
	baseURL    string
	apiKey     string
	stagingDir string
	httpClient *http.Client
}

// NewClient creates a client. stagingDir is where PDF bytes are staged
// before upload; empty means the OS temp dir.
func NewClient(baseURL, apiKey, stagingDir string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		stagingDir: stagingDir,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// element mirrors one item of the partition response.
type element struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber int    `json:"page_number"`
		Filename   string `json:"filename"`
	} `json:"metadata"`
}

// Extract stages the PDF bytes to disk, partitions them with the hi_res
// strategy, and returns the resulting chunks with url stamped into every
// chunk's metadata. The staging file is removed on every exit path.
func (c *Client) Extract(ctx context.Context, pdf []byte, url string) ([]paper.Chunk, error) {
	dir := c.stagingDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, uuid.NewString()+".pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("stage pdf: %w", err)
	}
	defer os.Remove(path)

	elements, err := c.partition(ctx, path)
	if err != nil {
		return nil, err
	}

	chunks := make([]paper.Chunk, 0, len(elements))
	for _, el := range elements {
		if el.Text == "" {
			continue
		}
		chunks = append(chunks, paper.Chunk{
			Text: el.Text,
			Metadata: paper.Metadata{
				URL:        url,
				PageNumber: el.Metadata.PageNumber,
				Filename:   el.Metadata.Filename,
				Category:   el.Type,
			},
		})
	}
	return chunks, nil
}

func (c *Client) partition(ctx context.Context, path string) ([]element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged pdf: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("copy pdf into form: %w", err)
	}
	if err := mw.WriteField("strategy", "hi_res"); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("unstructured-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrExtractionFailed, resp.StatusCode, string(respBody))
	}

	var elements []element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExtractionFailed, err)
	}
	return elements, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
