// Package httpembed calls a model endpoint that speaks the plain
// {"input": ...} / {"embedding": [...]} JSON contract.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"textembedder/internal/adapter/outbound/embeddings"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/port/outbound"
)

const maxResponse = 8 << 20

// Config configures the endpoint client.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Request is the body posted for each text.
type Request struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

// Response is the single accepted response schema. Unknown fields are rejected.
type Response struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount *int      `json:"inputTextTokenCount,omitempty"`
}

// Client embeds text through a single HTTP endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New validates config and builds a client.
func New(config Config) (*Client, error) {
	u, err := url.Parse(config.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid embedding endpoint %q", config.Endpoint)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// ModelName implements outbound.EmbeddingService.
func (c *Client) ModelName() string {
	return c.config.Model
}

// Embed implements outbound.EmbeddingService.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(Request{Model: c.config.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, embeddings.TransportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slogger.Warn(ctx, "Failed to close embedding response body", slogger.Fields{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, embeddings.TransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slogger.Error(ctx, "Embedding endpoint returned an error", slogger.Fields{
			"status_code": resp.StatusCode,
			"endpoint":    c.config.Endpoint,
		})
		return nil, embeddings.HTTPError(resp.StatusCode, resp.Header, body, "")
	}

	return ParseResponse(body)
}

// ParseResponse validates body against Response and returns the vector.
func ParseResponse(body []byte) ([]float32, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var parsed Response
	if err := dec.Decode(&parsed); err != nil {
		return nil, outbound.NewUnexpectedResponseError("response does not match {\"embedding\": [...]}", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, outbound.NewUnexpectedResponseError("trailing data after response object", nil)
	}
	if len(parsed.Embedding) == 0 {
		return nil, outbound.NewUnexpectedResponseError("embedding is missing or empty", nil)
	}
	return embeddings.ToFloat32(parsed.Embedding), nil
}
