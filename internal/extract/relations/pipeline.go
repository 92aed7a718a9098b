// -----------------------------------------------------------------------
// Relationship Pipeline - mention detection through deduplicated output
// -----------------------------------------------------------------------

package relations

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Extractor runs the relationship sub-pipeline: mention detection,
// type classification, financial concentration extraction and key-person
// interlock detection.
type Extractor struct {
	index           *NameIndex
	profiles        interfaces.ProfileStorage
	logger          arbor.ILogger
	maxFuzzyPhrases int
	minNameLength   int
	fuzzyThreshold  float64
	budget          time.Duration
}

// ExtractorOption configures the Extractor.
type ExtractorOption func(*Extractor)

// WithProfileStorage enables interlock detection against stored profiles.
func WithProfileStorage(profiles interfaces.ProfileStorage) ExtractorOption {
	return func(e *Extractor) {
		e.profiles = profiles
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor builds an Extractor over the given company directory
// snapshot, bounded by the relations configuration.
func NewExtractor(companies []models.CompanyInfo, cfg common.RelationsConfig, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		index:           NewNameIndex(companies, cfg.MinNameLength),
		maxFuzzyPhrases: cfg.MaxFuzzyPhrases,
		minNameLength:   cfg.MinNameLength,
		fuzzyThreshold:  cfg.FuzzyThreshold,
		budget:          cfg.Budget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract turns compiled filing text into deduplicated relationships.
// Mentions whose context matches no classification keyword are dropped;
// guessing a type would poison the stored graph.
func (e *Extractor) Extract(ctx context.Context, sourceCIK string, text string, people []models.Person) ([]models.Relationship, error) {
	if e.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.budget)
		defer cancel()
	}

	started := time.Now()
	mentions := e.DetectMentions(ctx, sourceCIK, text)

	var rels []models.Relationship
	for i := range mentions {
		m := &mentions[i]
		relType, ok := ClassifyMention(m)
		if !ok {
			continue
		}
		rels = append(rels, models.Relationship{
			SourceCIK:    sourceCIK,
			TargetCIK:    m.TargetCIK,
			TargetName:   m.TargetName,
			TargetTicker: m.Ticker,
			Type:         relType,
			Confidence:   m.Confidence,
			Method:       m.Method,
			MentionCount: m.Count,
			Evidence:     m.Context,
		})
	}

	rels = append(rels, e.FinancialRelationships(sourceCIK, text)...)
	rels = append(rels, e.Interlocks(ctx, sourceCIK, people)...)
	rels = dedupe(rels)

	if e.logger != nil {
		e.logger.Info().
			Str("cik", sourceCIK).
			Int("mentions", len(mentions)).
			Int("relationships", len(rels)).
			Dur("elapsed", time.Since(started)).
			Msg("Relationship extraction completed")
	}
	return rels, nil
}

// dedupe collapses relationships sharing a target and type, keeping the
// highest confidence and summing mention counts. Output is sorted by
// confidence, then target, so repeated runs produce identical documents.
func dedupe(rels []models.Relationship) []models.Relationship {
	type relKey struct {
		target string
		typ    models.RelationshipType
	}

	merged := make(map[relKey]*models.Relationship)
	var order []relKey
	for i := range rels {
		r := &rels[i]
		target := r.TargetCIK
		if target == "" {
			target = strings.ToLower(r.TargetName)
		}
		key := relKey{target: target, typ: r.Type}

		existing := merged[key]
		if existing == nil {
			cp := *r
			merged[key] = &cp
			order = append(order, key)
			continue
		}
		existing.MentionCount += r.MentionCount
		if r.Confidence > existing.Confidence {
			existing.Confidence = r.Confidence
			existing.Method = r.Method
			existing.Evidence = r.Evidence
		}
		if existing.RevenueShare == 0 {
			existing.RevenueShare = r.RevenueShare
		}
		if len(existing.SharedOfficers) == 0 {
			existing.SharedOfficers = r.SharedOfficers
		}
	}

	out := make([]models.Relationship, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].TargetName < out[j].TargetName
	})
	return out
}
