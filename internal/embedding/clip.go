package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

var _ model.Embedder = (*CLIPClient)(nil)

// CLIPClient talks to the CLIP inference sidecar over HTTP. The sidecar
// loads the pretrained model once at its own startup; this client is
// cheap, stateless per call and safe for concurrent use, so a single
// instance is shared by all request pipelines.
type CLIPClient struct {
	baseURL string
	dim     int
	http    *http.Client
}

type embedTextRequest struct {
	Inputs []string `json:"inputs"`
}

type embedImageRequest struct {
	Image string `json:"image"`
}

type embedResponse struct {
	Data []embedItem `json:"data"`
}

type embedItem struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embedError struct {
	Error string `json:"error"`
}

// NewCLIPClient creates a client for the sidecar at baseURL producing
// vectors of the given dimensionality.
func NewCLIPClient(baseURL string, dim int, timeout time.Duration) *CLIPClient {
	return &CLIPClient{
		baseURL: baseURL,
		dim:     dim,
		http:    &http.Client{Timeout: timeout},
	}
}

// Dimension returns the dimensionality of vectors produced by the model.
func (c *CLIPClient) Dimension() int {
	return c.dim
}

// Ping verifies the sidecar is reachable and its model is loaded.
func (c *CLIPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return model.NewEmbeddingError("ping", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewEmbeddingError("ping", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewEmbeddingError("ping", fmt.Errorf("sidecar returned status %d", resp.StatusCode))
	}
	return nil
}

// EmbedImage embeds raw image bytes.
func (c *CLIPClient) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	body := embedImageRequest{Image: base64.StdEncoding.EncodeToString(image)}

	vectors, err := c.post(ctx, "/v1/embeddings/image", body)
	if err != nil {
		return nil, model.NewEmbeddingError("image", err)
	}
	if len(vectors) != 1 {
		return nil, model.NewEmbeddingError("image", fmt.Errorf("expected 1 vector, got %d", len(vectors)))
	}
	return vectors[0], nil
}

// EmbedText embeds a single text string.
func (c *CLIPClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds several texts in one sidecar round trip, preserving
// input order.
func (c *CLIPClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, model.NewEmbeddingError("text", fmt.Errorf("no inputs"))
	}

	vectors, err := c.post(ctx, "/v1/embeddings/text", embedTextRequest{Inputs: texts})
	if err != nil {
		return nil, model.NewEmbeddingError("text", err)
	}
	if len(vectors) != len(texts) {
		return nil, model.NewEmbeddingError("text", fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (c *CLIPClient) post(ctx context.Context, path string, payload any) ([][]float32, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr embedError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("sidecar returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(parsed.Data) {
			return nil, fmt.Errorf("vector index %d out of range", item.Index)
		}
		if len(item.Embedding) != c.dim {
			return nil, fmt.Errorf("vector has dimension %d, want %d", len(item.Embedding), c.dim)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
