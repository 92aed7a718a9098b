// -----------------------------------------------------------------------
// Profile Aggregator - fans extraction tasks out over the shared pool
// and folds the fragments into one persisted company profile
// -----------------------------------------------------------------------

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/analysis"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/extract"
	"github.com/ternarybob/colligo/internal/extract/relations"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// maxRelationshipDocs bounds how many narrative filings feed the
// relationship text compile.
const maxRelationshipDocs = 5

// FactsSource fetches the XBRL company facts document. The EDGAR client
// satisfies it.
type FactsSource interface {
	FetchCompanyFacts(ctx context.Context, cik string) (*edgar.CompanyFacts, error)
}

// Service orchestrates profile generation: cache-through filing
// resolution, task fan-out on the shared dispatcher, fragment merge,
// sequential analytics and the final upsert.
type Service struct {
	cfg        *common.Config
	source     interfaces.FilingSource
	facts      FactsSource
	cache      interfaces.FilingCache
	dispatcher interfaces.TaskDispatcher
	storage    interfaces.StorageManager
	events     interfaces.EventService
	relations  *relations.Extractor
	logger     arbor.ILogger

	// inflight serializes generation per company. Two concurrent calls
	// for the same CIK run one after the other; different CIKs proceed
	// in parallel.
	inflight sync.Map // cik -> *sync.Mutex
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithFactsSource enables XBRL-backed financial extraction.
func WithFactsSource(facts FactsSource) ServiceOption {
	return func(s *Service) {
		s.facts = facts
	}
}

// WithRelationshipExtractor enables the relationship task.
func WithRelationshipExtractor(extractor *relations.Extractor) ServiceOption {
	return func(s *Service) {
		s.relations = extractor
	}
}

// WithEventService publishes generation lifecycle events.
func WithEventService(events interfaces.EventService) ServiceOption {
	return func(s *Service) {
		s.events = events
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the profile aggregator.
func NewService(
	cfg *common.Config,
	source interfaces.FilingSource,
	cache interfaces.FilingCache,
	dispatcher interfaces.TaskDispatcher,
	storage interfaces.StorageManager,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		cfg:        cfg,
		source:     source,
		cache:      cache,
		dispatcher: dispatcher,
		storage:    storage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces and persists the unified profile for one company.
// Single-task failures degrade their section; the only fatal errors are
// an empty or unreachable filing set and a failed final write.
func (s *Service) Generate(ctx context.Context, info models.CompanyInfo, opts *GenerateOptions) (*models.CompanyProfile, error) {
	if opts == nil {
		opts = DefaultGenerateOptions(s.cfg)
	}
	if err := opts.normalize(s.cfg); err != nil {
		return nil, err
	}

	cik := common.NormalizeCIK(info.CIK)
	if cik == "" {
		return nil, fmt.Errorf("invalid CIK: %q", info.CIK)
	}
	info.CIK = cik

	lock := s.companyLock(cik)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	if s.logger != nil {
		s.logger.Info().
			Str("cik", cik).
			Str("ticker", info.Ticker).
			Int("lookback_years", opts.LookbackYears).
			Bool("relationships", opts.relationshipsEnabled()).
			Msg("Profile generation started")
	}

	filings, err := s.resolveFilings(ctx, cik, opts.LookbackYears)
	if err != nil {
		return nil, s.fail(ctx, &GenerateError{CIK: cik, Ticker: info.Ticker, Reason: ReasonSourceFailed, Err: err})
	}
	if len(filings) == 0 {
		return nil, s.fail(ctx, &GenerateError{CIK: cik, Ticker: info.Ticker, Reason: ReasonNoFilings})
	}

	input := &extract.Input{
		Info:          info,
		Filings:       filings,
		LookbackYears: opts.LookbackYears,
		Content:       s.contentLoader(cik),
		Logger:        s.logger,
	}
	if s.facts != nil {
		input.Facts = func(ctx context.Context) (*edgar.CompanyFacts, error) {
			return s.facts.FetchCompanyFacts(ctx, cik)
		}
	}

	var relFn extract.RelationshipsFunc
	if opts.relationshipsEnabled() && s.relations != nil {
		relFn = s.relationshipsTask(opts)
	}

	for _, task := range extract.Tasks(input, relFn) {
		if err := s.dispatcher.Submit(cik, task.Kind, interfaces.PriorityNormal, task.Run); err != nil {
			return nil, s.fail(ctx, &GenerateError{CIK: cik, Ticker: info.Ticker, Reason: ReasonCancelled, Err: err})
		}
	}

	results, err := s.dispatcher.WaitFor(ctx, cik)
	if err != nil {
		s.dispatcher.Cancel(cik)
		return nil, s.fail(ctx, &GenerateError{CIK: cik, Ticker: info.Ticker, Reason: ReasonCancelled, Err: err})
	}
	defer s.dispatcher.Forget(cik)

	profile := &models.CompanyProfile{
		CIK:           cik,
		GenerationID:  common.NewProfileID(),
		Info:          info,
		LookbackYears: opts.LookbackYears,
	}
	for _, result := range results {
		mergeResult(profile, result)
	}

	// Interlock detection runs after the merge so it can see this run's
	// people alongside the stored profiles of other companies.
	if opts.relationshipsEnabled() && s.relations != nil && len(profile.People) > 0 {
		interlocks := s.relations.Interlocks(ctx, cik, profile.People)
		if len(interlocks) > 0 {
			profile.Relationships = append(profile.Relationships, interlocks...)
		}
	}

	analysis.Run(profile)

	profile.GeneratedAt = time.Now()
	profile.GenerationTime = time.Since(started)

	if err := s.storage.ProfileStorage().SaveProfile(profile); err != nil {
		return nil, s.fail(ctx, &GenerateError{CIK: cik, Ticker: info.Ticker, Reason: ReasonPersistFailed, Err: err})
	}
	if len(profile.Relationships) > 0 {
		if err := s.storage.RelationshipStorage().SaveRelationships(cik, profile.Relationships); err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Str("cik", cik).Msg("Relationship document write failed")
		}
	}

	s.publish(ctx, interfaces.EventProfileCompleted, map[string]interface{}{
		"cik":           cik,
		"ticker":        info.Ticker,
		"generation_id": profile.GenerationID,
		"duration":      profile.GenerationTime.String(),
	})
	if s.logger != nil {
		s.logger.Info().
			Str("cik", cik).
			Str("ticker", info.Ticker).
			Int("filings", len(filings)).
			Int("relationships", len(profile.Relationships)).
			Dur("elapsed", profile.GenerationTime).
			Msg("Profile generation completed")
	}
	return profile, nil
}

// BatchResult is the outcome of one company within a batch run.
type BatchResult struct {
	CIK     string
	Ticker  string
	Profile *models.CompanyProfile
	Err     error
}

// GenerateBatch runs Generate for each company in order. A failed
// company is reported in its slot and never stops the rest.
func (s *Service) GenerateBatch(ctx context.Context, companies []models.CompanyInfo, opts *GenerateOptions) []BatchResult {
	results := make([]BatchResult, 0, len(companies))
	for _, info := range companies {
		if ctx.Err() != nil {
			results = append(results, BatchResult{CIK: info.CIK, Ticker: info.Ticker, Err: ctx.Err()})
			continue
		}
		p, err := s.Generate(ctx, info, opts)
		results = append(results, BatchResult{CIK: info.CIK, Ticker: info.Ticker, Profile: p, Err: err})
	}
	return results
}

// Progress exposes per-company task progress for in-flight generations.
func (s *Service) Progress(cik string) (models.CompanyProgress, bool) {
	return s.dispatcher.Progress(common.NormalizeCIK(cik))
}

// Cancel cooperatively stops an in-flight generation.
func (s *Service) Cancel(cik string) {
	s.dispatcher.Cancel(common.NormalizeCIK(cik))
}

// resolveFilings reads the filing list through the cache.
func (s *Service) resolveFilings(ctx context.Context, cik string, lookbackYears int) ([]models.Filing, error) {
	if filings, ok := s.cache.GetFilings(cik, lookbackYears); ok {
		s.publish(ctx, interfaces.EventCacheHit, map[string]interface{}{"cik": cik, "kind": "filings"})
		return filings, nil
	}
	s.publish(ctx, interfaces.EventCacheMiss, map[string]interface{}{"cik": cik, "kind": "filings"})

	filings, err := s.source.FetchFilings(ctx, cik, lookbackYears)
	if err != nil {
		return nil, err
	}
	if err := s.cache.PutFilings(cik, lookbackYears, filings); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("cik", cik).Msg("Filing list cache write failed")
	}
	return filings, nil
}

// contentLoader returns the cache-through content fetch used by tasks.
// A corrupted cache entry reads as a miss and is overwritten.
func (s *Service) contentLoader(cik string) extract.ContentFunc {
	return func(ctx context.Context, filing *models.Filing) (string, error) {
		if content, ok := s.cache.GetContent(cik, filing.AccessionNumber); ok {
			s.publish(ctx, interfaces.EventCacheHit, map[string]interface{}{"cik": cik, "kind": "content"})
			return content, nil
		}
		s.publish(ctx, interfaces.EventCacheMiss, map[string]interface{}{"cik": cik, "kind": "content"})

		content, err := s.source.FetchContent(ctx, filing)
		if err != nil {
			return "", err
		}
		if err := s.cache.PutContent(cik, filing.AccessionNumber, content); err != nil && s.logger != nil {
			s.logger.Warn().
				Err(err).
				Str("cik", cik).
				Str("accession", filing.AccessionNumber).
				Msg("Filing content cache write failed")
		}
		return content, nil
	}
}

// relationshipsTask wraps the relationship pipeline as an extraction
// task. Text is compiled from the most recent narrative filings; the
// per-run timeout override shrinks the task context when set.
func (s *Service) relationshipsTask(opts *GenerateOptions) extract.RelationshipsFunc {
	return func(ctx context.Context, in *extract.Input) (*models.Fragment, error) {
		if opts.RelationshipTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.RelationshipTimeout)
			defer cancel()
		}

		docs := in.OfForm("10-K", "10-Q", "8-K")
		if len(docs) > maxRelationshipDocs {
			docs = docs[:maxRelationshipDocs]
		}
		if len(docs) == 0 {
			return &models.Fragment{Kind: models.TaskRelationships}, nil
		}

		var parts []string
		firstSeen := docs[len(docs)-1].AccessionNumber
		for i := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			content, err := in.Content(ctx, &docs[i])
			if err != nil {
				continue
			}
			parts = append(parts, extract.PlainText(content))
		}
		if len(parts) == 0 {
			return &models.Fragment{Kind: models.TaskRelationships}, nil
		}

		rels, err := s.relations.Extract(ctx, in.Info.CIK, strings.Join(parts, " "), nil)
		if err != nil {
			return nil, err
		}
		for i := range rels {
			if rels[i].FirstSeenFiling == "" {
				rels[i].FirstSeenFiling = firstSeen
			}
		}
		return &models.Fragment{Kind: models.TaskRelationships, Relationships: rels}, nil
	}
}

// fail publishes the failure event and logs before returning the error.
func (s *Service) fail(ctx context.Context, genErr *GenerateError) error {
	s.publish(ctx, interfaces.EventProfileFailed, map[string]interface{}{
		"cik":    genErr.CIK,
		"ticker": genErr.Ticker,
		"reason": string(genErr.Reason),
	})
	if s.logger != nil {
		event := s.logger.Warn().
			Str("cik", genErr.CIK).
			Str("reason", string(genErr.Reason))
		if genErr.Err != nil {
			event = event.Err(genErr.Err)
		}
		event.Msg("Profile generation failed")
	}
	return genErr
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil && s.logger != nil {
		s.logger.Debug().Err(err).Str("event", string(eventType)).Msg("Event publish failed")
	}
}

func (s *Service) companyLock(cik string) *sync.Mutex {
	actual, _ := s.inflight.LoadOrStore(cik, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// IsNotFound reports whether an error chain contains an EDGAR
// not-found failure.
func IsNotFound(err error) bool {
	var nf *edgar.NotFoundError
	return errors.As(err, &nf)
}
