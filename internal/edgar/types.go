// Package edgar provides a client for the SEC EDGAR submissions and
// archives endpoints. This package centralizes all EDGAR interactions
// for the application.
package edgar

import (
	"fmt"
	"time"
)

// APIError represents an error response from EDGAR.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDGAR API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EDGAR rate limit exceeded, retry after %v", e.RetryAfter)
}

// NotFoundError is returned when EDGAR has no record for a CIK.
type NotFoundError struct {
	CIK string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("EDGAR has no record for CIK %s", e.CIK)
}
