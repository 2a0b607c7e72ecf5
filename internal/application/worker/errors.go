package worker

import "errors"

var (
	// ErrBatchFailed is returned when a batch could not be fully embedded and indexed.
	ErrBatchFailed = errors.New("batch failed")

	// ErrInvalidBatchRecord is returned for a batch file line that is not a valid record.
	ErrInvalidBatchRecord = errors.New("invalid batch record")
)
