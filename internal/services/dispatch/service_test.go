package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func newTestDispatcher(t *testing.T, workers int, defaultTimeout time.Duration) *Service {
	t.Helper()
	svc := NewService(&common.DispatchConfig{
		Workers:        workers,
		DefaultTimeout: defaultTimeout,
	}, nil, common.GetLogger())
	t.Cleanup(svc.Shutdown)
	return svc
}

func okTask(kind models.TaskKind) interfaces.TaskFunc {
	return func(ctx context.Context) (*models.Fragment, error) {
		return &models.Fragment{
			Kind:   kind,
			People: []models.Person{{Name: "Jane Roe"}},
		}, nil
	}
}

func TestDispatcherRunsAllTasks(t *testing.T) {
	svc := newTestDispatcher(t, 4, time.Second)

	var ran int32
	for _, kind := range models.AllTaskKinds() {
		k := kind
		err := svc.Submit("100", k, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
			atomic.AddInt32(&ran, 1)
			return &models.Fragment{Kind: k, People: []models.Person{{Name: "x"}}}, nil
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results, err := svc.WaitFor(context.Background(), "100")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	if len(results) != len(models.AllTaskKinds()) {
		t.Errorf("expected %d results, got %d", len(models.AllTaskKinds()), len(results))
	}
	if got := atomic.LoadInt32(&ran); got != int32(len(models.AllTaskKinds())) {
		t.Errorf("expected all tasks to run, ran %d", got)
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Status != models.TaskStatusSuccess {
			t.Errorf("task %s: expected success, got %s", r.Kind, r.Status)
		}
		if !strings.HasPrefix(r.TaskID, "tsk_") || seen[r.TaskID] {
			t.Errorf("task %s: expected a unique tsk_ id, got %q", r.Kind, r.TaskID)
		}
		seen[r.TaskID] = true
	}
}

func TestDispatcherTimeoutYieldsSyntheticResult(t *testing.T) {
	svc := newTestDispatcher(t, 2, 50*time.Millisecond)

	err := svc.Submit("200", models.TaskPeople, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		select {
		case <-time.After(5 * time.Second):
			return &models.Fragment{Kind: models.TaskPeople}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	start := time.Now()
	results, err := svc.WaitFor(context.Background(), "200")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, waited %v", elapsed)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != models.TaskStatusTimeout {
		t.Errorf("expected timeout status, got %s", r.Status)
	}
	if r.Fragment == nil || !r.Fragment.Empty() {
		t.Error("timeout must carry a synthetic empty fragment")
	}
	if svc.PoolStats().TimedOut != 1 {
		t.Errorf("expected 1 pool timeout, got %d", svc.PoolStats().TimedOut)
	}
}

func TestDispatcherAbandonsContextIgnoringTask(t *testing.T) {
	// A task that never polls its context must not hold the worker or
	// WaitFor past its class timeout.
	svc := newTestDispatcher(t, 1, 50*time.Millisecond)

	if err := svc.Submit("210", models.TaskGovernance, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		time.Sleep(2 * time.Second)
		return &models.Fragment{Kind: models.TaskGovernance, People: []models.Person{{Name: "late"}}}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	start := time.Now()
	results, err := svc.WaitFor(context.Background(), "210")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("task not abandoned at its timeout, waited %v", elapsed)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != models.TaskStatusTimeout {
		t.Errorf("expected timeout status, got %s", r.Status)
	}
	if r.Fragment == nil || !r.Fragment.Empty() {
		t.Error("abandoned task must yield a synthetic empty fragment")
	}

	// The worker is free again; a follow-up task runs immediately.
	if err := svc.Submit("220", models.TaskPeople, interfaces.PriorityNormal, okTask(models.TaskPeople)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	followUp, err := svc.WaitFor(context.Background(), "220")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	if followUp[0].Status != models.TaskStatusSuccess {
		t.Errorf("worker not released after abandonment, got %s", followUp[0].Status)
	}
}

func TestDispatcherTaskErrorDoesNotAffectOthers(t *testing.T) {
	svc := newTestDispatcher(t, 2, time.Second)

	if err := svc.Submit("300", models.TaskEvents, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		return nil, fmt.Errorf("parse failure")
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Submit("300", models.TaskPeople, interfaces.PriorityNormal, okTask(models.TaskPeople)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results, err := svc.WaitFor(context.Background(), "300")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}

	byKind := make(map[models.TaskKind]*models.TaskResult)
	for _, r := range results {
		byKind[r.Kind] = r
	}
	if byKind[models.TaskEvents].Status != models.TaskStatusError {
		t.Errorf("expected error status, got %s", byKind[models.TaskEvents].Status)
	}
	if byKind[models.TaskEvents].Error == "" {
		t.Error("error result must carry the failure message")
	}
	if byKind[models.TaskPeople].Status != models.TaskStatusSuccess {
		t.Errorf("sibling task must still succeed, got %s", byKind[models.TaskPeople].Status)
	}
}

func TestDispatcherPanicBecomesErrorResult(t *testing.T) {
	svc := newTestDispatcher(t, 1, time.Second)

	if err := svc.Submit("310", models.TaskGovernance, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		panic("malformed table")
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results, err := svc.WaitFor(context.Background(), "310")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	if results[0].Status != models.TaskStatusError {
		t.Errorf("panic must become an error result, got %s", results[0].Status)
	}
}

func TestDispatcherWorkConservation(t *testing.T) {
	// One slow company must not starve a fast company on a shared pool.
	svc := newTestDispatcher(t, 2, 5*time.Second)

	slowRelease := make(chan struct{})
	for i := 0; i < 2; i++ {
		if err := svc.Submit("slow", models.TaskFinancials, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
			select {
			case <-slowRelease:
			case <-ctx.Done():
			}
			return &models.Fragment{Kind: models.TaskFinancials}, nil
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Let the slow tasks occupy both workers before the fast submit.
	time.Sleep(50 * time.Millisecond)

	fastDone := make(chan struct{})
	if err := svc.Submit("fast", models.TaskPeople, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		close(fastDone)
		return &models.Fragment{Kind: models.TaskPeople, People: []models.Person{{Name: "y"}}}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	close(slowRelease)

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("fast company starved by slow company")
	}

	if _, err := svc.WaitFor(context.Background(), "slow"); err != nil {
		t.Fatalf("WaitFor slow failed: %v", err)
	}
	if _, err := svc.WaitFor(context.Background(), "fast"); err != nil {
		t.Fatalf("WaitFor fast failed: %v", err)
	}
}

func TestDispatcherHighPriorityRunsFirst(t *testing.T) {
	svc := newTestDispatcher(t, 1, time.Second)

	var order []models.TaskKind
	var orderMu sync.Mutex
	record := func(kind models.TaskKind) interfaces.TaskFunc {
		return func(ctx context.Context) (*models.Fragment, error) {
			orderMu.Lock()
			order = append(order, kind)
			orderMu.Unlock()
			return &models.Fragment{Kind: kind, People: []models.Person{{Name: "z"}}}, nil
		}
	}

	// Occupy the single worker so ordering is decided by the queue.
	gate := make(chan struct{})
	if err := svc.Submit("400", models.TaskFilingActivity, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		<-gate
		return &models.Fragment{Kind: models.TaskFilingActivity, People: []models.Person{{Name: "g"}}}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := svc.Submit("400", models.TaskEvents, interfaces.PriorityNormal, record(models.TaskEvents)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Submit("400", models.TaskPeople, interfaces.PriorityHigh, record(models.TaskPeople)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	close(gate)

	if _, err := svc.WaitFor(context.Background(), "400"); err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}

	orderMu.Lock()
	defer orderMu.Unlock()
	if len(order) != 2 || order[0] != models.TaskPeople {
		t.Errorf("high priority task must run before queued normal tasks, order: %v", order)
	}
}

func TestDispatcherCancelDropsQueuedAndInflight(t *testing.T) {
	svc := newTestDispatcher(t, 1, 5*time.Second)

	started := make(chan struct{})
	if err := svc.Submit("500", models.TaskFinancials, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Submit("500", models.TaskPeople, interfaces.PriorityNormal, okTask(models.TaskPeople)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	<-started
	svc.Cancel("500")

	results, err := svc.WaitFor(context.Background(), "500")
	if err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	for _, r := range results {
		if r.Status != models.TaskStatusCancelled {
			t.Errorf("task %s: expected cancelled, got %s", r.Kind, r.Status)
		}
	}

	// New submissions for a cancelled company are rejected.
	if err := svc.Submit("500", models.TaskEvents, interfaces.PriorityNormal, okTask(models.TaskEvents)); err == nil {
		t.Error("Submit must fail for a cancelled company")
	}
}

func TestDispatcherSubmitBlocksWhenQueueFull(t *testing.T) {
	svc := NewService(&common.DispatchConfig{
		Workers:        1,
		QueueSize:      1,
		DefaultTimeout: 5 * time.Second,
	}, nil, common.GetLogger())
	t.Cleanup(svc.Shutdown)

	// Occupy the single worker so queued depth is under test control.
	gate := make(chan struct{})
	if err := svc.Submit("800", models.TaskFilingActivity, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		<-gate
		return &models.Fragment{Kind: models.TaskFilingActivity, People: []models.Person{{Name: "g"}}}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	// Fill the single queue slot.
	if err := svc.Submit("800", models.TaskEvents, interfaces.PriorityNormal, okTask(models.TaskEvents)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	unblocked := make(chan struct{})
	go func() {
		if err := svc.Submit("800", models.TaskPeople, interfaces.PriorityNormal, okTask(models.TaskPeople)); err != nil {
			t.Errorf("blocked Submit failed: %v", err)
		}
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("Submit must block while the queue is full")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate)
	select {
	case <-unblocked:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit not released after the queue drained")
	}

	if _, err := svc.WaitFor(context.Background(), "800"); err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
}

func TestDispatcherProgressSnapshot(t *testing.T) {
	svc := newTestDispatcher(t, 1, time.Second)

	gate := make(chan struct{})
	if err := svc.Submit("600", models.TaskFilingActivity, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		<-gate
		return &models.Fragment{Kind: models.TaskFilingActivity, People: []models.Person{{Name: "p"}}}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Submit("600", models.TaskPeople, interfaces.PriorityNormal, okTask(models.TaskPeople)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	progress, ok := svc.Progress("600")
	if !ok {
		t.Fatal("expected progress for submitted company")
	}
	if progress.Total != 2 || progress.Running != 1 || progress.Queued != 1 {
		t.Errorf("unexpected snapshot: %+v", progress)
	}

	close(gate)
	if _, err := svc.WaitFor(context.Background(), "600"); err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}

	progress, _ = svc.Progress("600")
	if !progress.Done() || progress.Completed != 2 {
		t.Errorf("expected completed snapshot, got %+v", progress)
	}

	svc.Forget("600")
	if _, ok := svc.Progress("600"); ok {
		t.Error("Forget must drop company bookkeeping")
	}
}

func TestDispatcherWaitForHonorsContext(t *testing.T) {
	svc := newTestDispatcher(t, 1, 5*time.Second)

	gate := make(chan struct{})
	defer close(gate)
	if err := svc.Submit("700", models.TaskFinancials, interfaces.PriorityNormal, func(ctx context.Context) (*models.Fragment, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return &models.Fragment{Kind: models.TaskFinancials}, nil
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := svc.WaitFor(ctx, "700"); err == nil {
		t.Error("WaitFor must return when its context expires")
	}
}
