// -----------------------------------------------------------------------
// Interlock Detection - shared officers and directors across companies
// -----------------------------------------------------------------------

package relations

import (
	"context"
	"sort"
	"strings"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	interlockConfidence  = 0.85
	interlockScanLimit   = 500
	interlockMinNamePart = 2
)

// Interlocks finds stored profiles whose officers or directors overlap
// with the subject company's people. A shared key person links the two
// companies as partners with the shared names attached as evidence.
func (e *Extractor) Interlocks(ctx context.Context, sourceCIK string, people []models.Person) []models.Relationship {
	if e.profiles == nil || len(people) == 0 {
		return nil
	}

	names := make(map[string]bool, len(people))
	for _, p := range people {
		if key := personKey(p.Name); key != "" {
			names[key] = true
		}
	}
	if len(names) == 0 {
		return nil
	}

	stored, err := e.profiles.ListProfiles(&interfaces.ListOptions{Limit: interlockScanLimit})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn().Err(err).Msg("Interlock scan skipped, profile listing failed")
		}
		return nil
	}

	var out []models.Relationship
	for _, other := range stored {
		if other.CIK == sourceCIK {
			continue
		}

		var shared []string
		for _, p := range other.People {
			if names[personKey(p.Name)] {
				shared = append(shared, p.Name)
			}
		}
		if len(shared) == 0 {
			continue
		}
		sort.Strings(shared)

		out = append(out, models.Relationship{
			SourceCIK:      sourceCIK,
			TargetCIK:      other.CIK,
			TargetName:     other.Info.Name,
			TargetTicker:   other.Info.Ticker,
			Type:           models.RelationPartner,
			Confidence:     interlockConfidence,
			Method:         models.MentionExactName,
			MentionCount:   len(shared),
			Evidence:       "shared officers or directors: " + strings.Join(shared, ", "),
			SharedOfficers: shared,
		})
	}
	return out
}

// personKey normalizes a person name for cross-company comparison.
// Middle initials and suffixes drop out; the remaining parts are sorted
// because ownership documents use "LAST FIRST" order while proxy prose
// uses "First Last".
func personKey(name string) string {
	words := strings.Fields(strings.ToLower(name))
	var parts []string
	for _, w := range words {
		w = strings.Trim(w, ".,")
		switch w {
		case "jr", "sr", "ii", "iii", "iv":
			continue
		}
		if len(w) <= 1 {
			continue
		}
		parts = append(parts, w)
	}
	if len(parts) < interlockMinNamePart {
		return ""
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
