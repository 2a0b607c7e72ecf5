package valueobject

import "fmt"

// BatchStatus is the lifecycle state recorded for a batch.
//
// A batch is written as processing at the start of every attempt and ends
// as done or failed. No pending state is ever persisted.
type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusDone       BatchStatus = "done"
	BatchStatusFailed     BatchStatus = "failed"
)

// ParseBatchStatus validates a stored status string.
func ParseBatchStatus(status string) (BatchStatus, error) {
	switch s := BatchStatus(status); s {
	case BatchStatusProcessing, BatchStatusDone, BatchStatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("invalid batch status: %q", status)
	}
}

// String returns the string representation of the status.
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the attempt that wrote s has finished.
// A terminal status is still overwritten by a later redelivery.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusDone || s == BatchStatusFailed
}
