// Package dispatch runs extraction tasks for all companies on one shared
// worker pool. Queued tasks are FIFO within a priority class, each task
// class carries its own timeout, and per-company bookkeeping supports
// wait, progress, and cooperative cancellation.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// queuedTask is one submitted task waiting for a worker.
type queuedTask struct {
	id       string
	cik      string
	kind     models.TaskKind
	priority interfaces.TaskPriority
	fn       interfaces.TaskFunc
}

// companyState tracks every task submitted for one company.
type companyState struct {
	cik       string
	ctx       context.Context
	cancel    context.CancelFunc
	total     int
	queued    int
	running   int
	timedOut  int
	failed    int
	cancelled bool
	results   []*models.TaskResult
	waiters   []chan struct{}
}

func (c *companyState) done() bool {
	return c.queued == 0 && c.running == 0
}

// notifyWaiters wakes every WaitFor call when the last task finishes.
// Callers hold the service lock.
func (c *companyState) notifyWaiters() {
	if !c.done() {
		return
	}
	for _, w := range c.waiters {
		close(w)
	}
	c.waiters = nil
}

// Service implements the TaskDispatcher interface.
type Service struct {
	mu        sync.Mutex
	cond      *sync.Cond
	high      []*queuedTask
	normal    []*queuedTask
	companies map[string]*companyState

	workers   int
	queueSize int
	timeouts  map[models.TaskKind]time.Duration
	fallback  time.Duration

	submitted int64
	completed int64
	timedOut  int64
	cancelled int64
	active    int

	shutdown bool
	wg       sync.WaitGroup

	events interfaces.EventService
	logger arbor.ILogger
}

// NewService creates the dispatcher and starts its workers.
func NewService(config *common.DispatchConfig, events interfaces.EventService, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 8
	}
	fallback := config.DefaultTimeout
	if fallback <= 0 {
		fallback = 30 * time.Second
	}

	s := &Service{
		companies: make(map[string]*companyState),
		workers:   workers,
		queueSize: config.QueueSize,
		fallback:  fallback,
		timeouts:  taskTimeouts(config, fallback),
		events:    events,
		logger:    logger,
	}
	s.cond = sync.NewCond(&s.mu)

	logger.Info().
		Int("workers", workers).
		Dur("default_timeout", fallback).
		Msg("Starting task dispatcher")

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	return s
}

// taskTimeouts maps each task kind to its timeout class.
func taskTimeouts(config *common.DispatchConfig, fallback time.Duration) map[models.TaskKind]time.Duration {
	timeouts := make(map[models.TaskKind]time.Duration)
	for _, kind := range models.AllTaskKinds() {
		timeouts[kind] = fallback
	}
	if config.MetadataTimeout > 0 {
		timeouts[models.TaskFilingActivity] = config.MetadataTimeout
	}
	if config.FinancialsTimeout > 0 {
		timeouts[models.TaskFinancials] = config.FinancialsTimeout
	}
	if config.RelationshipTimeout > 0 {
		timeouts[models.TaskRelationships] = config.RelationshipTimeout
	}
	return timeouts
}

// Submit enqueues a task for a company. FIFO within a priority class.
func (s *Service) Submit(cik string, kind models.TaskKind, priority interfaces.TaskPriority, fn interfaces.TaskFunc) error {
	if fn == nil {
		return fmt.Errorf("task function cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return fmt.Errorf("dispatcher is shutting down")
	}

	// Bounded queue: block until a worker frees a slot.
	if s.queueSize > 0 {
		for len(s.high)+len(s.normal) >= s.queueSize && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown {
			return fmt.Errorf("dispatcher is shutting down")
		}
	}

	state, ok := s.companies[cik]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		state = &companyState{cik: cik, ctx: ctx, cancel: cancel}
		s.companies[cik] = state
	}
	if state.cancelled {
		return fmt.Errorf("company %s is cancelled", cik)
	}

	task := &queuedTask{id: common.NewTaskID(), cik: cik, kind: kind, priority: priority, fn: fn}
	if priority == interfaces.PriorityHigh {
		s.high = append(s.high, task)
	} else {
		s.normal = append(s.normal, task)
	}

	state.total++
	state.queued++
	s.submitted++
	// Workers and blocked submitters share the condition variable.
	s.cond.Broadcast()
	return nil
}

// worker pulls the next queued task regardless of company; one slow
// company never starves another.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug().Int("worker_id", id).Msg("Dispatcher worker started")

	for {
		s.mu.Lock()
		for len(s.high) == 0 && len(s.normal) == 0 && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown && len(s.high) == 0 && len(s.normal) == 0 {
			s.mu.Unlock()
			s.logger.Debug().Int("worker_id", id).Msg("Dispatcher worker stopping")
			return
		}

		task := s.popLocked()
		s.cond.Broadcast()
		state := s.companies[task.cik]
		state.queued--

		if state.cancelled {
			s.finishLocked(state, &models.TaskResult{
				TaskID: task.id,
				CIK:    task.cik,
				Kind:   task.kind,
				Status: models.TaskStatusCancelled,
			})
			s.mu.Unlock()
			continue
		}

		state.running++
		s.active++
		taskCtx := state.ctx
		s.mu.Unlock()

		result := s.run(taskCtx, task)
		result.TaskID = task.id

		s.mu.Lock()
		state.running--
		s.active--
		if state.cancelled {
			// In-flight results for a cancelled company are discarded.
			result = &models.TaskResult{
				TaskID: task.id,
				CIK:    task.cik,
				Kind:   task.kind,
				Status: models.TaskStatusCancelled,
			}
		}
		s.finishLocked(state, result)
		s.mu.Unlock()
	}
}

// popLocked removes the next task, high priority first, FIFO within a
// class. Callers hold the lock and guarantee a task exists.
func (s *Service) popLocked() *queuedTask {
	if len(s.high) > 0 {
		task := s.high[0]
		s.high = s.high[1:]
		return task
	}
	task := s.normal[0]
	s.normal = s.normal[1:]
	return task
}

// finishLocked records a terminal result and wakes waiters. Callers
// hold the lock.
func (s *Service) finishLocked(state *companyState, result *models.TaskResult) {
	state.results = append(state.results, result)
	s.completed++
	switch result.Status {
	case models.TaskStatusTimeout:
		state.timedOut++
		s.timedOut++
	case models.TaskStatusError:
		state.failed++
	case models.TaskStatusCancelled:
		s.cancelled++
	}
	state.notifyWaiters()
}

// taskOutcome carries a task function's return values across the
// abandonment boundary in run.
type taskOutcome struct {
	fragment *models.Fragment
	err      error
}

// run executes one task under its class timeout. The function body runs
// on its own goroutine so a task that never polls its context is
// abandoned at the deadline with a synthetic timeout result; the late
// return, if any, is discarded. A panic becomes an error result.
func (s *Service) run(companyCtx context.Context, task *queuedTask) *models.TaskResult {
	timeout := s.timeouts[task.kind]
	if timeout <= 0 {
		timeout = s.fallback
	}
	ctx, cancel := context.WithTimeout(companyCtx, timeout)
	defer cancel()

	start := time.Now()
	s.publish(interfaces.EventTaskStarted, map[string]string{"task_id": task.id, "cik": task.cik, "kind": string(task.kind)})

	outcome := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Str("cik", task.cik).
					Str("kind", string(task.kind)).
					Str("panic", fmt.Sprintf("%v", r)).
					Msg("Task panicked")
				outcome <- taskOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		fragment, err := task.fn(ctx)
		outcome <- taskOutcome{fragment: fragment, err: err}
	}()

	var out taskOutcome
	select {
	case <-ctx.Done():
		duration := time.Since(start)
		if ctx.Err() != context.DeadlineExceeded {
			// Company cancelled while in flight.
			return &models.TaskResult{
				CIK:      task.cik,
				Kind:     task.kind,
				Status:   models.TaskStatusCancelled,
				Duration: duration,
			}
		}
		s.logger.Warn().
			Str("cik", task.cik).
			Str("kind", string(task.kind)).
			Dur("timeout", timeout).
			Msg("Task timed out")
		s.publish(interfaces.EventTaskTimeout, map[string]string{"task_id": task.id, "cik": task.cik, "kind": string(task.kind)})
		return &models.TaskResult{
			CIK:      task.cik,
			Kind:     task.kind,
			Status:   models.TaskStatusTimeout,
			Fragment: &models.Fragment{Kind: task.kind},
			Duration: duration,
		}
	case out = <-outcome:
	}

	fragment, err := out.fragment, out.err
	duration := time.Since(start)

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		s.logger.Warn().
			Str("cik", task.cik).
			Str("kind", string(task.kind)).
			Dur("timeout", timeout).
			Msg("Task timed out")
		s.publish(interfaces.EventTaskTimeout, map[string]string{"task_id": task.id, "cik": task.cik, "kind": string(task.kind)})
		return &models.TaskResult{
			CIK:      task.cik,
			Kind:     task.kind,
			Status:   models.TaskStatusTimeout,
			Fragment: &models.Fragment{Kind: task.kind},
			Duration: duration,
		}

	case err != nil:
		s.logger.Warn().
			Str("cik", task.cik).
			Str("kind", string(task.kind)).
			Err(err).
			Msg("Task failed")
		return &models.TaskResult{
			CIK:      task.cik,
			Kind:     task.kind,
			Status:   models.TaskStatusError,
			Error:    err.Error(),
			Duration: duration,
		}

	case fragment.Empty():
		s.publish(interfaces.EventTaskCompleted, map[string]string{"task_id": task.id, "cik": task.cik, "kind": string(task.kind)})
		return &models.TaskResult{
			CIK:      task.cik,
			Kind:     task.kind,
			Status:   models.TaskStatusEmpty,
			Fragment: fragment,
			Duration: duration,
		}

	default:
		s.publish(interfaces.EventTaskCompleted, map[string]string{"task_id": task.id, "cik": task.cik, "kind": string(task.kind)})
		return &models.TaskResult{
			CIK:      task.cik,
			Kind:     task.kind,
			Status:   models.TaskStatusSuccess,
			Fragment: fragment,
			Duration: duration,
		}
	}
}

func (s *Service) publish(eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(context.Background(), interfaces.Event{Type: eventType, Payload: payload})
}

// WaitFor blocks until every submitted task for the company reached a
// terminal state. The lock is released while blocking.
func (s *Service) WaitFor(ctx context.Context, cik string) ([]*models.TaskResult, error) {
	s.mu.Lock()
	state, ok := s.companies[cik]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("no tasks submitted for company %s", cik)
	}
	if state.done() {
		results := append([]*models.TaskResult(nil), state.results...)
		s.mu.Unlock()
		return results, nil
	}
	waiter := make(chan struct{})
	state.waiters = append(state.waiters, waiter)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-waiter:
	}

	s.mu.Lock()
	results := append([]*models.TaskResult(nil), state.results...)
	s.mu.Unlock()
	return results, nil
}

// Progress returns a snapshot of the company's task states.
func (s *Service) Progress(cik string) (models.CompanyProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.companies[cik]
	if !ok {
		return models.CompanyProgress{}, false
	}
	return models.CompanyProgress{
		CIK:       cik,
		Total:     state.total,
		Queued:    state.queued,
		Running:   state.running,
		Completed: len(state.results),
		TimedOut:  state.timedOut,
		Failed:    state.failed,
	}, true
}

// Cancel cooperatively cancels a company's queued and in-flight tasks.
func (s *Service) Cancel(cik string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.companies[cik]
	if !ok {
		return
	}
	state.cancelled = true
	state.cancel()

	s.logger.Info().
		Str("cik", cik).
		Int("queued", state.queued).
		Int("running", state.running).
		Msg("Company tasks cancelled")
}

// Forget drops completed bookkeeping for a company.
func (s *Service) Forget(cik string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.companies[cik]
	if !ok || !state.done() {
		return
	}
	state.cancel()
	delete(s.companies, cik)
}

// PoolStats returns pool-wide counters.
func (s *Service) PoolStats() interfaces.PoolStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return interfaces.PoolStats{
		Workers:    s.workers,
		QueueDepth: len(s.high) + len(s.normal),
		Active:     s.active,
		Submitted:  s.submitted,
		Completed:  s.completed,
		TimedOut:   s.timedOut,
		Cancelled:  s.cancelled,
	}
}

// Shutdown stops the workers after queued tasks drain.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("Task dispatcher shutdown complete")
}

var _ interfaces.TaskDispatcher = (*Service)(nil)
