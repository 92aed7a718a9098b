// -----------------------------------------------------------------------
// Scheduler - periodic batch refresh of configured company profiles
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/profile"
)

// scheduleParser accepts six-field expressions (with seconds), matching
// the configuration default.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateSchedule checks a cron expression against the parser in use.
func ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// ProfileGenerator is the slice of the profile service the scheduler
// drives.
type ProfileGenerator interface {
	GenerateBatch(ctx context.Context, companies []models.CompanyInfo, opts *profile.GenerateOptions) []profile.BatchResult
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool       `json:"running"`
	Schedule  string     `json:"schedule"`
	Tickers   []string   `json:"tickers"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Service refreshes the configured ticker list on a cron schedule. One
// refresh runs at a time; an overlapping trigger is skipped, not queued.
type Service struct {
	cfg       *common.SchedulerConfig
	profiles  ProfileGenerator
	directory interfaces.CompanyDirectory
	logger    arbor.ILogger

	cron    *cron.Cron
	entryID cron.EntryID

	mu           sync.Mutex
	running      bool
	isProcessing bool
	lastRun      *time.Time
	lastError    string
}

// NewService creates the scheduler.
func NewService(cfg *common.SchedulerConfig, profiles ProfileGenerator, directory interfaces.CompanyDirectory, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		cfg:       cfg,
		profiles:  profiles,
		directory: directory,
		logger:    logger,
		cron:      cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start schedules the refresh job. Disabled configuration is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Debug().Msg("Scheduler disabled by configuration")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, s.refresh)
	if err != nil {
		return fmt.Errorf("failed to schedule profile refresh: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Int("tickers", len(s.cfg.Tickers)).
		Msg("Profile refresh scheduler started")
	return nil
}

// Stop halts the scheduler. An in-flight refresh finishes on its own.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Profile refresh scheduler stopped")
}

// TriggerNow runs a refresh immediately in the background.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	busy := s.isProcessing
	s.mu.Unlock()
	if busy {
		return fmt.Errorf("refresh already in progress")
	}

	s.logger.Info().Msg("Manual profile refresh triggered")
	go s.refresh()
	return nil
}

// Status returns a point-in-time snapshot.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:   s.running,
		Schedule:  s.cfg.Schedule,
		Tickers:   append([]string(nil), s.cfg.Tickers...),
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// refresh regenerates every configured ticker. Individual failures are
// logged per company and never stop the batch.
func (s *Service) refresh() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Recovered panic in scheduled profile refresh")
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Refresh already in progress, skipping cycle")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		now := time.Now()
		s.mu.Lock()
		s.isProcessing = false
		s.lastRun = &now
		s.mu.Unlock()
	}()

	companies := s.resolveTickers()
	if len(companies) == 0 {
		s.logger.Warn().Msg("No resolvable tickers configured for scheduled refresh")
		return
	}

	started := time.Now()
	results := s.profiles.GenerateBatch(context.Background(), companies, nil)

	failed := 0
	var lastError string
	for _, result := range results {
		if result.Err != nil {
			failed++
			lastError = result.Err.Error()
			s.logger.Warn().
				Str("ticker", result.Ticker).
				Err(result.Err).
				Msg("Scheduled refresh failed for company")
		}
	}

	s.mu.Lock()
	s.lastError = lastError
	s.mu.Unlock()

	s.logger.Info().
		Int("companies", len(results)).
		Int("failed", failed).
		Dur("elapsed", time.Since(started)).
		Msg("Scheduled profile refresh completed")
}

// resolveTickers maps configured ticker symbols to companies, dropping
// symbols the directory does not know.
func (s *Service) resolveTickers() []models.CompanyInfo {
	var companies []models.CompanyInfo
	for _, ticker := range s.cfg.Tickers {
		info, ok := s.directory.LookupTicker(ticker)
		if !ok {
			s.logger.Warn().Str("ticker", ticker).Msg("Configured ticker not in company index")
			continue
		}
		companies = append(companies, info)
	}
	return companies
}
