package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewProfileID generates a unique profile document ID with the "prf_" prefix
// Format: prf_<uuid>
func NewProfileID() string {
	return "prf_" + uuid.New().String()
}

// NewTaskID generates a unique dispatched-task ID with the "tsk_" prefix
// Format: tsk_<uuid>
func NewTaskID() string {
	return "tsk_" + uuid.New().String()
}

// NormalizeCIK left-pads a CIK to the 10 digits EDGAR expects.
func NormalizeCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%010s", trimmed)
}
