package dto

import "time"

// HealthResponse is the soft health report: the endpoint always answers 200
// and reports trouble through Status and the per-dependency Checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
}

// Overall health values.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// Dependency check values. Failed checks read "error: <message>".
const (
	CheckOK           = "ok"
	CheckMissingIndex = "missing-index"
	CheckUnexpected   = "unexpected-response"
	CheckErrorPrefix  = "error: "
)
