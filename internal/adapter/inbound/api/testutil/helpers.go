package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"textembedder/internal/application/dto"
)

// CreateJSONRequest creates an HTTP request with JSON body.
func CreateJSONRequest(method, url string, body interface{}) *http.Request {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, url, reqBody)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateRequest creates a simple HTTP request.
func CreateRequest(method, url string) *http.Request {
	return httptest.NewRequest(method, url, nil)
}

// ParseJSONResponse decodes the recorded body into target.
func ParseJSONResponse(recorder *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(recorder.Body.Bytes(), target)
}

// HealthResponseBuilder builds dto.HealthResponse values.
type HealthResponseBuilder struct {
	response dto.HealthResponse
}

// NewHealthResponseBuilder starts from a healthy response with no checks.
func NewHealthResponseBuilder() *HealthResponseBuilder {
	return &HealthResponseBuilder{response: dto.HealthResponse{
		Status:    dto.HealthStatusOK,
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Checks:    map[string]string{},
	}}
}

func (b *HealthResponseBuilder) WithStatus(status string) *HealthResponseBuilder {
	b.response.Status = status
	return b
}

func (b *HealthResponseBuilder) WithVersion(version string) *HealthResponseBuilder {
	b.response.Version = version
	return b
}

func (b *HealthResponseBuilder) WithCheck(name, result string) *HealthResponseBuilder {
	b.response.Checks[name] = result
	return b
}

func (b *HealthResponseBuilder) Build() dto.HealthResponse {
	return b.response
}
