package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

const maxRequestBody = 16 << 20

// Pool both encoders and their underlying buffers.
type pooledEncoder struct {
	buf     *bytes.Buffer
	encoder *json.Encoder
}

var encoderPool = sync.Pool{
	New: func() interface{} {
		buf := bytes.NewBuffer(make([]byte, 0, 512))
		return &pooledEncoder{buf: buf, encoder: json.NewEncoder(buf)}
	},
}

// WriteJSON encodes data before touching the response, so an encoding failure
// leaves headers unwritten for the caller to report.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	pe := encoderPool.Get().(*pooledEncoder)
	defer func() {
		pe.buf.Reset()
		encoderPool.Put(pe)
	}()

	if err := pe.encoder.Encode(data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err := w.Write(pe.buf.Bytes())
	return err
}

// decodeJSON strictly decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return NewValidationError("body", "Request body is required")
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return NewValidationError("body", "Invalid JSON format: "+err.Error())
	}
	return nil
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationErrorWithValue(name, "must be an integer", raw)
	}
	return n, nil
}
