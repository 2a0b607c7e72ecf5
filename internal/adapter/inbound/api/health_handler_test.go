package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"textembedder/internal/adapter/inbound/api"
	"textembedder/internal/adapter/inbound/api/testutil"
	"textembedder/internal/application/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_GetHealth(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(*testutil.MockHealthService)
		expectedStatus int
		validateFunc   func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "healthy_service_returns_200",
			mockSetup: func(mock *testutil.MockHealthService) {
				response := testutil.NewHealthResponseBuilder().
					WithCheck("index", "ok").
					WithCheck("embedding", "ok (dim=1024)").
					Build()
				mock.ExpectGetHealth(&response, nil)
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
				assert.NotEmpty(t, recorder.Header().Get("X-Health-Check-Duration"))
				assert.Equal(t, "ok", recorder.Header().Get("X-Health-Status"))

				var response dto.HealthResponse
				require.NoError(t, testutil.ParseJSONResponse(recorder, &response))
				assert.Equal(t, "ok", response.Status)
				assert.Equal(t, "ok (dim=1024)", response.Checks["embedding"])
			},
		},
		{
			name: "degraded_service_still_returns_200",
			mockSetup: func(mock *testutil.MockHealthService) {
				response := testutil.NewHealthResponseBuilder().
					WithStatus(dto.HealthStatusDegraded).
					WithCheck("index", "missing-index").
					WithCheck("queue", "error: nats: connection closed").
					Build()
				mock.ExpectGetHealth(&response, nil)
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				var response dto.HealthResponse
				require.NoError(t, testutil.ParseJSONResponse(recorder, &response))
				assert.Equal(t, "degraded", response.Status)
				assert.Equal(t, "missing-index", response.Checks["index"])
				assert.Equal(t, "degraded", recorder.Header().Get("X-Health-Status"))
			},
		},
		{
			name: "service_error_returns_500",
			mockSetup: func(mock *testutil.MockHealthService) {
				mock.ExpectGetHealth(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateFunc: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				var response dto.ErrorResponse
				require.NoError(t, testutil.ParseJSONResponse(recorder, &response))
				assert.Equal(t, "INTERNAL_ERROR", response.Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := testutil.NewMockHealthService()
			tt.mockSetup(mockService)
			handler := api.NewHealthHandler(mockService, api.NewDefaultErrorHandler())

			recorder := httptest.NewRecorder()
			handler.GetHealth(recorder, testutil.CreateRequest(http.MethodGet, "/health"))

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			tt.validateFunc(t, recorder)
			assert.Equal(t, 1, mockService.Calls)
		})
	}
}
