package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// TaskPriority orders tasks within the shared pool queue.
type TaskPriority int

const (
	PriorityNormal TaskPriority = iota
	PriorityHigh
)

// TaskFunc is the work body of one extraction task. It must honor ctx
// cancellation and return its data as a fragment, never panic outward.
type TaskFunc func(ctx context.Context) (*models.Fragment, error)

// PoolStats is a point-in-time snapshot of the shared worker pool.
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	Active     int   `json:"active"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	TimedOut   int64 `json:"timed_out"`
	Cancelled  int64 `json:"cancelled"`
}

// TaskDispatcher runs extraction tasks for all companies on one shared
// worker pool. Tasks for one company never starve another company's
// tasks; an idle worker always takes the next queued task.
type TaskDispatcher interface {
	// Submit enqueues a task for a company. FIFO within a priority class;
	// blocks while the queue is at capacity.
	Submit(cik string, kind models.TaskKind, priority TaskPriority, fn TaskFunc) error

	// WaitFor blocks until every submitted task for the company reached a
	// terminal state, then returns all results. No internal lock is held
	// while blocking.
	WaitFor(ctx context.Context, cik string) ([]*models.TaskResult, error)

	// Progress returns a snapshot of the company's task states.
	Progress(cik string) (models.CompanyProgress, bool)

	// Cancel cooperatively cancels a company's queued and in-flight tasks.
	Cancel(cik string)

	// Forget drops completed bookkeeping for a company.
	Forget(cik string)

	// PoolStats returns pool-wide counters.
	PoolStats() PoolStats

	// Shutdown stops the workers after in-flight tasks finish.
	Shutdown()
}
