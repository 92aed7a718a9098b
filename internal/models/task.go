package models

import "time"

// TaskKind identifies one extraction task within a profile generation.
// The set is closed; the aggregator merge switches exhaustively on it.
type TaskKind string

const (
	TaskFilingActivity TaskKind = "filing_activity"
	TaskEvents         TaskKind = "events"
	TaskGovernance     TaskKind = "governance"
	TaskInsider        TaskKind = "insider"
	TaskOwnership      TaskKind = "ownership"
	TaskPeople         TaskKind = "people"
	TaskFinancials     TaskKind = "financials"
	TaskRelationships  TaskKind = "relationships"
)

// AllTaskKinds lists every extraction task in submission order.
func AllTaskKinds() []TaskKind {
	return []TaskKind{
		TaskFilingActivity,
		TaskEvents,
		TaskGovernance,
		TaskInsider,
		TaskOwnership,
		TaskPeople,
		TaskFinancials,
		TaskRelationships,
	}
}

// TaskStatus is the terminal state of a dispatched task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSuccess   TaskStatus = "success"
	TaskStatusEmpty     TaskStatus = "empty"
	TaskStatusError     TaskStatus = "error"
	TaskStatusTimeout   TaskStatus = "timeout"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status will not change again.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSuccess, TaskStatusEmpty, TaskStatusError, TaskStatusTimeout, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskResult is the outcome of one extraction task. Failures are carried
// as a status plus message, never as a panic across the pool boundary.
type TaskResult struct {
	TaskID   string        `json:"task_id,omitempty"`
	CIK      string        `json:"cik"`
	Kind     TaskKind      `json:"kind"`
	Status   TaskStatus    `json:"status"`
	Fragment *Fragment     `json:"fragment,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CompanyProgress is a point-in-time snapshot of one company's tasks.
type CompanyProgress struct {
	CIK       string `json:"cik"`
	Total     int    `json:"total"`
	Queued    int    `json:"queued"`
	Running   int    `json:"running"`
	Completed int    `json:"completed"`
	TimedOut  int    `json:"timed_out"`
	Failed    int    `json:"failed"`
}

// Done reports whether every submitted task reached a terminal state.
func (p CompanyProgress) Done() bool {
	return p.Total > 0 && p.Queued == 0 && p.Running == 0
}
