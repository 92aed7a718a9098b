package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/profile"
)

type stubGenerator struct {
	mu      sync.Mutex
	calls   [][]models.CompanyInfo
	results []profile.BatchResult
	done    chan struct{}
}

func (g *stubGenerator) GenerateBatch(ctx context.Context, companies []models.CompanyInfo, opts *profile.GenerateOptions) []profile.BatchResult {
	g.mu.Lock()
	g.calls = append(g.calls, companies)
	g.mu.Unlock()
	if g.done != nil {
		g.done <- struct{}{}
	}
	return g.results
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type stubDirectory struct {
	companies map[string]models.CompanyInfo
}

func (d *stubDirectory) Lookup(cik string) (models.CompanyInfo, bool) {
	for _, info := range d.companies {
		if info.CIK == cik {
			return info, true
		}
	}
	return models.CompanyInfo{}, false
}

func (d *stubDirectory) LookupTicker(ticker string) (models.CompanyInfo, bool) {
	info, ok := d.companies[ticker]
	return info, ok
}

func (d *stubDirectory) Search(query string, limit int) []models.CompanyInfo {
	return nil
}

func (d *stubDirectory) All() []models.CompanyInfo {
	out := make([]models.CompanyInfo, 0, len(d.companies))
	for _, info := range d.companies {
		out = append(out, info)
	}
	return out
}

func testDirectory() *stubDirectory {
	return &stubDirectory{companies: map[string]models.CompanyInfo{
		"AAPL": {CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		"MSFT": {CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corporation"},
	}}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 0 */12 * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
}

func TestStartDisabledIsNoop(t *testing.T) {
	cfg := &common.SchedulerConfig{Enabled: false, Schedule: "0 0 */12 * * *"}
	svc := NewService(cfg, &stubGenerator{}, testDirectory(), nil)

	require.NoError(t, svc.Start())
	assert.False(t, svc.Status().Running)
	svc.Stop()
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	cfg := &common.SchedulerConfig{Enabled: true, Schedule: "bogus"}
	svc := NewService(cfg, &stubGenerator{}, testDirectory(), nil)

	assert.Error(t, svc.Start())
}

func TestTriggerNowRefreshesConfiguredTickers(t *testing.T) {
	gen := &stubGenerator{
		done: make(chan struct{}, 1),
		results: []profile.BatchResult{
			{CIK: "0000320193", Ticker: "AAPL"},
			{CIK: "0000789019", Ticker: "MSFT", Err: errors.New("fetch failed")},
		},
	}
	cfg := &common.SchedulerConfig{
		Enabled:  true,
		Schedule: "0 0 */12 * * *",
		Tickers:  []string{"AAPL", "MSFT", "ZZZZ"},
	}
	svc := NewService(cfg, gen, testDirectory(), nil)

	require.NoError(t, svc.TriggerNow())
	select {
	case <-gen.done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}

	// Unknown tickers are dropped before the batch.
	gen.mu.Lock()
	companies := gen.calls[0]
	gen.mu.Unlock()
	require.Len(t, companies, 2)
	assert.Equal(t, "AAPL", companies[0].Ticker)
	assert.Equal(t, "MSFT", companies[1].Ticker)

	// Wait for the deferred bookkeeping to land.
	deadline := time.Now().Add(2 * time.Second)
	for svc.Status().LastRun == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	status := svc.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "fetch failed", status.LastError)
}

func TestStartStopAndStatus(t *testing.T) {
	cfg := &common.SchedulerConfig{
		Enabled:  true,
		Schedule: "0 0 */12 * * *",
		Tickers:  []string{"AAPL"},
	}
	svc := NewService(cfg, &stubGenerator{}, testDirectory(), nil)

	require.NoError(t, svc.Start())
	status := svc.Status()
	assert.True(t, status.Running)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))

	assert.Error(t, svc.Start(), "second start should fail")

	svc.Stop()
	assert.False(t, svc.Status().Running)
	svc.Stop()
}

func TestOverlappingRefreshSkipped(t *testing.T) {
	gen := &stubGenerator{done: make(chan struct{}, 2)}
	cfg := &common.SchedulerConfig{
		Enabled:  true,
		Schedule: "0 0 */12 * * *",
		Tickers:  []string{"AAPL"},
	}
	svc := NewService(cfg, gen, testDirectory(), nil)

	svc.mu.Lock()
	svc.isProcessing = true
	svc.mu.Unlock()

	assert.Error(t, svc.TriggerNow())
	assert.Equal(t, 0, gen.callCount())
}
