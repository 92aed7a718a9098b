// -----------------------------------------------------------------------
// Mention Detection - company references in filing text
// -----------------------------------------------------------------------

package relations

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/ternarybob/colligo/internal/extract"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	exactNameConfidence   = 0.99
	exactTickerConfidence = 0.98
	fuzzyMinConfidence    = 0.80
	fuzzyMaxConfidence    = 0.95
)

// phraseRe matches runs of capitalized words, the shape of a company
// name in running prose.
var phraseRe = regexp.MustCompile(`\b[A-Z][A-Za-z&'.-]+(?:\s+[A-Z][A-Za-z&'.-]+){0,4}\b`)

// tickerRe matches bare all-caps symbols.
var tickerRe = regexp.MustCompile(`^[A-Z]{2,5}$`)

// phraseStopwords are leading words that mark a phrase as ordinary
// sentence-initial prose rather than a name.
var phraseStopwords = map[string]bool{
	"The": true, "We": true, "Our": true, "In": true, "On": true,
	"As": true, "At": true, "For": true, "This": true, "These": true,
	"There": true, "During": true, "Item": true, "Part": true,
	"Note": true, "Table": true, "See": true, "If": true, "Any": true,
}

// tickerStopwords are all-caps tokens common in filings that are never
// ticker mentions.
var tickerStopwords = map[string]bool{
	"SEC": true, "GAAP": true, "USD": true, "FORM": true, "ITEM": true,
	"NYSE": true, "CEO": true, "CFO": true, "COO": true, "ASU": true,
	"FASB": true, "EPS": true, "LLC": true, "LLP": true, "ESG": true,
	"COVID": true, "IRS": true, "FDIC": true, "EBITDA": true,
}

type candidate struct {
	phrase  string
	count   int
	context string
}

// DetectMentions scans compiled filing text for references to indexed
// companies. Exact name matches win over ticker matches, which win over
// fuzzy matches; the fuzzy phase is bounded by top-K phrase selection
// and the context deadline. Matches against sourceCIK are dropped.
func (e *Extractor) DetectMentions(ctx context.Context, sourceCIK string, text string) []models.Mention {
	candidates := collectCandidates(text)

	var mentions []models.Mention
	var unmatched []candidate

	for _, c := range candidates {
		if info, ok := e.index.LookupName(c.phrase); ok {
			if info.CIK == sourceCIK {
				continue
			}
			mentions = append(mentions, models.Mention{
				TargetCIK:  info.CIK,
				TargetName: info.Name,
				Ticker:     info.Ticker,
				Method:     models.MentionExactName,
				Confidence: exactNameConfidence,
				Context:    c.context,
				Count:      c.count,
			})
			continue
		}

		if tickerRe.MatchString(c.phrase) && !tickerStopwords[c.phrase] {
			if info, ok := e.index.LookupTicker(c.phrase); ok {
				if info.CIK == sourceCIK {
					continue
				}
				mentions = append(mentions, models.Mention{
					TargetCIK:  info.CIK,
					TargetName: info.Name,
					Ticker:     info.Ticker,
					Method:     models.MentionExactTicker,
					Confidence: exactTickerConfidence,
					Context:    c.context,
					Count:      c.count,
				})
				continue
			}
		}

		unmatched = append(unmatched, c)
	}

	mentions = append(mentions, e.fuzzyMentions(ctx, sourceCIK, unmatched)...)
	return mentions
}

// fuzzyMentions runs bounded token-set matching over the most frequent
// unmatched phrases. It stops early when the context deadline passes and
// returns whatever it has found so far.
func (e *Extractor) fuzzyMentions(ctx context.Context, sourceCIK string, unmatched []candidate) []models.Mention {
	if len(unmatched) == 0 || len(e.index.fuzzy) == 0 {
		return nil
	}

	sort.Slice(unmatched, func(i, j int) bool {
		if unmatched[i].count != unmatched[j].count {
			return unmatched[i].count > unmatched[j].count
		}
		return unmatched[i].phrase < unmatched[j].phrase
	})
	if len(unmatched) > e.maxFuzzyPhrases {
		unmatched = unmatched[:e.maxFuzzyPhrases]
	}

	metric := metrics.NewSorensenDice()
	var mentions []models.Mention

	for _, c := range unmatched {
		if ctx.Err() != nil {
			if e.logger != nil {
				e.logger.Warn().
					Str("cik", sourceCIK).
					Int("mentions", len(mentions)).
					Msg("Fuzzy matching budget exhausted")
			}
			break
		}

		norm := NormalizeName(c.phrase)
		if len(norm) < e.minNameLength {
			continue
		}

		bestSim := 0.0
		var bestInfo models.CompanyInfo
		for _, entry := range e.index.fuzzy {
			sim := strutil.Similarity(norm, entry.norm, metric)
			if sim > bestSim {
				bestSim = sim
				bestInfo = entry.info
			}
		}

		if bestSim < e.fuzzyThreshold || bestInfo.CIK == sourceCIK {
			continue
		}

		mentions = append(mentions, models.Mention{
			TargetCIK:  bestInfo.CIK,
			TargetName: bestInfo.Name,
			Ticker:     bestInfo.Ticker,
			Method:     models.MentionFuzzy,
			Confidence: fuzzyConfidence(bestSim, e.fuzzyThreshold),
			Context:    c.context,
			Count:      c.count,
		})
	}

	return mentions
}

// fuzzyConfidence maps a similarity score at or above the threshold into
// the fuzzy confidence band.
func fuzzyConfidence(sim, threshold float64) float64 {
	if threshold >= 1 {
		return fuzzyMaxConfidence
	}
	scaled := (sim - threshold) / (1 - threshold)
	return fuzzyMinConfidence + scaled*(fuzzyMaxConfidence-fuzzyMinConfidence)
}

// collectCandidates extracts candidate phrases with frequencies and the
// first sentence each appears in. Output is ordered by first appearance
// so detection is deterministic for a given text.
func collectCandidates(text string) []candidate {
	seen := make(map[string]*candidate)
	var order []string

	for _, sentence := range extract.Sentences(text) {
		for _, phrase := range phraseRe.FindAllString(sentence, -1) {
			words := strings.Fields(phrase)
			for len(words) > 0 && phraseStopwords[words[0]] {
				words = words[1:]
			}
			if len(words) == 0 {
				continue
			}
			phrase = strings.Join(words, " ")
			if len(phrase) < 2 {
				continue
			}

			c := seen[phrase]
			if c == nil {
				c = &candidate{
					phrase:  phrase,
					context: extract.Snippet(sentence, 240),
				}
				seen[phrase] = c
				order = append(order, phrase)
			}
			c.count++
		}
	}

	out := make([]candidate, 0, len(order))
	for _, phrase := range order {
		out = append(out, *seen[phrase])
	}
	return out
}
