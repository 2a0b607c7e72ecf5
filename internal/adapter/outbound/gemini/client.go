// Package gemini embeds text with the Gemini embedContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"textembedder/internal/adapter/outbound/embeddings"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/port/outbound"

	"github.com/google/uuid"
)

const (
	// DefaultModel is the default Gemini embedding model.
	DefaultModel   = "gemini-embedding-001"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTask    = "RETRIEVAL_DOCUMENT"
	maxResponse    = 8 << 20
)

// ClientConfig holds the configuration for the Gemini API client.
type ClientConfig struct {
	APIKey     string        `json:"api_key"`
	BaseURL    string        `json:"base_url"`
	Model      string        `json:"model"`
	TaskType   string        `json:"task_type"`
	Timeout    time.Duration `json:"timeout"`
	Dimensions int           `json:"dimensions"`
	UserAgent  string        `json:"user_agent"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("API key cannot be empty")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("invalid base URL")
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be positive")
	}
	if c.Dimensions < 0 {
		return errors.New("dimensions cannot be negative")
	}
	switch c.TaskType {
	case "", "RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY", "SEMANTIC_SIMILARITY", "CLASSIFICATION", "CLUSTERING":
		return nil
	default:
		return fmt.Errorf("unsupported task type %q", c.TaskType)
	}
}

// Client represents the Gemini API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new Gemini API client with the provided configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)
	return &Client{config: config, httpClient: createHTTPClient(config.Timeout)}, nil
}

func applyConfigDefaults(config ClientConfig) ClientConfig {
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.TaskType == "" {
		config.TaskType = defaultTask
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "textembedder-gemini/1.0"
	}
	return config
}

func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ModelName implements outbound.EmbeddingService.
func (c *Client) ModelName() string {
	return c.config.Model
}

// CreateRequest creates an authenticated JSON request against endpoint.
func (c *Client) CreateRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	fullURL := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// Embed implements outbound.EmbeddingService.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(EmbedContentRequest{
		Model:                "models/" + c.config.Model,
		Content:              Content{Parts: []Part{{Text: text}}},
		TaskType:             c.config.TaskType,
		OutputDimensionality: c.config.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := c.CreateRequest(ctx, http.MethodPost, "models/"+c.config.Model+":embedContent", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, embeddings.TransportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slogger.Warn(ctx, "Failed to close Gemini response body", slogger.Fields{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, embeddings.TransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.HandleHTTPError(ctx, resp, body)
	}

	return parseEmbedResponse(body)
}

func parseEmbedResponse(body []byte) ([]float32, error) {
	var parsed EmbedContentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, outbound.NewUnexpectedResponseError("response is not an embedContent object", err)
	}
	if parsed.Embedding == nil {
		return nil, outbound.NewUnexpectedResponseError("response has no embedding field", nil)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, outbound.NewUnexpectedResponseError("embedding.values is empty", nil)
	}
	return embeddings.ToFloat32(parsed.Embedding.Values), nil
}

// HandleHTTPError converts a non-2xx Gemini response into an EmbeddingError.
func (c *Client) HandleHTTPError(ctx context.Context, resp *http.Response, body []byte) *outbound.EmbeddingError {
	var apiErr ErrorResponse
	apiMessage := ""
	if json.Unmarshal(body, &apiErr) == nil {
		apiMessage = apiErr.Error.Message
	}

	slogger.Error(ctx, "HTTP error received from Gemini API", slogger.Fields{
		"status_code": resp.StatusCode,
		"api_message": apiMessage,
		"model":       c.config.Model,
	})

	return embeddings.HTTPError(resp.StatusCode, resp.Header, body, apiMessage)
}
