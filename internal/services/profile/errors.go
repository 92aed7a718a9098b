package profile

import "fmt"

// FailureReason is the machine-readable cause of a generation failure.
type FailureReason string

const (
	ReasonNoFilings     FailureReason = "no_filings"
	ReasonSourceFailed  FailureReason = "source_failed"
	ReasonPersistFailed FailureReason = "persist_failed"
	ReasonCancelled     FailureReason = "cancelled"
)

// GenerateError is a company-level generation failure. Batch callers
// report it per ticker and continue with the rest of the batch.
type GenerateError struct {
	CIK    string
	Ticker string
	Reason FailureReason
	Err    error
}

func (e *GenerateError) Error() string {
	label := e.Ticker
	if label == "" {
		label = e.CIK
	}
	if e.Err != nil {
		return fmt.Sprintf("profile generation failed for %s (%s): %v", label, e.Reason, e.Err)
	}
	return fmt.Sprintf("profile generation failed for %s (%s)", label, e.Reason)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}
