// -----------------------------------------------------------------------
// Relationship Classification - type inference from sentence context
// -----------------------------------------------------------------------

package relations

import (
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// typeKeywords maps each relationship type to the context phrases that
// signal it. Evaluation order matters: structural relationships
// (subsidiary, parent) are unambiguous and checked before the softer
// commercial ones.
var typeKeywords = []struct {
	relType  models.RelationshipType
	keywords []string
}{
	{models.RelationSubsidiary, []string{
		"subsidiary", "wholly owned", "wholly-owned", "our subsidiary",
	}},
	{models.RelationParent, []string{
		"parent company", "parent corporation", "our parent",
	}},
	{models.RelationCompetitor, []string{
		"compete", "competitor", "competition", "competing", "rival",
	}},
	{models.RelationSupplier, []string{
		"supplier", "supplies", "supplied by", "vendor", "sourced from",
		"purchase from", "purchases from", "procurement",
	}},
	{models.RelationCustomer, []string{
		"customer", "sells to", "sales to", "revenue from", "accounted for",
	}},
	{models.RelationInvestor, []string{
		"investment in", "equity interest", "stake in", "equity method",
		"minority interest", "shareholder",
	}},
	{models.RelationPartner, []string{
		"partner", "partnership", "collaboration", "joint venture",
		"alliance", "license agreement", "agreement with", "jointly",
	}},
}

// ClassifyMention infers the relationship type from the sentence a
// mention appeared in. Mentions whose context carries no signal return
// false and are dropped rather than guessed at.
func ClassifyMention(m *models.Mention) (models.RelationshipType, bool) {
	lower := strings.ToLower(m.Context)
	if lower == "" {
		return "", false
	}
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.relType, true
			}
		}
	}
	return "", false
}
