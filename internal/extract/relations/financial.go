// -----------------------------------------------------------------------
// Financial Relationships - revenue and supply concentration disclosures
// -----------------------------------------------------------------------

package relations

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/colligo/internal/extract"
	"github.com/ternarybob/colligo/internal/models"
)

const concentrationConfidence = 0.90

var (
	// "Acme Corp accounted for approximately 12% of our net revenues".
	// Case stays significant so the capitalized-name group does not
	// swallow surrounding prose.
	revenueShareRe = regexp.MustCompile(`([A-Z][A-Za-z&'.-]+(?:\s+[A-Z][A-Za-z&'.-]+){0,4})\s+(?:accounted for|represented)\s+(?:approximately\s+|about\s+)?(\d{1,2}(?:\.\d)?)%\s+of\s+(?:our\s+|the\s+[Cc]ompany'?s?\s+|total\s+|consolidated\s+)?(?:net\s+)?revenues?`)

	// "approximately 15% of our purchases were from Acme Corp"
	purchaseShareRe = regexp.MustCompile(`(\d{1,2}(?:\.\d)?)%\s+of\s+(?:our\s+|total\s+)?(?:purchases|raw materials|components)\s+(?:were\s+|was\s+)?(?:sourced\s+|purchased\s+)?from\s+([A-Z][A-Za-z&'.-]+(?:\s+[A-Z][A-Za-z&'.-]+){0,4})`)
)

// FinancialRelationships extracts disclosed customer and supplier
// concentration from filing text. A named counterparty with a revenue
// share is a customer of the subject; a purchase share names a supplier.
func (e *Extractor) FinancialRelationships(sourceCIK string, text string) []models.Relationship {
	var out []models.Relationship

	for _, sentence := range extract.Sentences(text) {
		if m := revenueShareRe.FindStringSubmatch(sentence); m != nil {
			if rel, ok := e.concentration(sourceCIK, m[1], m[2], models.RelationCustomer, sentence); ok {
				out = append(out, rel)
			}
		}
		if m := purchaseShareRe.FindStringSubmatch(sentence); m != nil {
			if rel, ok := e.concentration(sourceCIK, m[2], m[1], models.RelationSupplier, sentence); ok {
				out = append(out, rel)
			}
		}
	}
	return out
}

func (e *Extractor) concentration(sourceCIK, name, percent string, relType models.RelationshipType, sentence string) (models.Relationship, bool) {
	name = strings.TrimRight(strings.TrimSpace(name), ".")
	share, err := strconv.ParseFloat(percent, 64)
	if err != nil || share <= 0 || share > 100 {
		return models.Relationship{}, false
	}

	rel := models.Relationship{
		SourceCIK:    sourceCIK,
		TargetName:   name,
		Type:         relType,
		Confidence:   concentrationConfidence,
		Method:       models.MentionExactName,
		MentionCount: 1,
		Evidence:     extract.Snippet(sentence, 240),
		RevenueShare: share / 100,
	}

	// Resolve the counterparty against the index when possible; an
	// unresolved name still carries the disclosure.
	if info, ok := e.index.LookupName(name); ok {
		if info.CIK == sourceCIK {
			return models.Relationship{}, false
		}
		rel.TargetCIK = info.CIK
		rel.TargetName = info.Name
		rel.TargetTicker = info.Ticker
	}
	return rel, true
}
