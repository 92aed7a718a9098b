// -----------------------------------------------------------------------
// Name Index - normalized company name and ticker lookup tables
// -----------------------------------------------------------------------

package relations

import (
	"regexp"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

var (
	punctRe = regexp.MustCompile(`[^a-z0-9 ]+`)

	// corporateSuffixes are stripped from the tail of normalized names so
	// "Apple Inc." and "Apple" resolve to the same key.
	corporateSuffixes = []string{
		"incorporated", "corporation", "company", "holdings", "limited",
		"inc", "corp", "ltd", "llc", "plc", "lp", "co",
	}
)

// NormalizeName lowercases a company name, strips punctuation and drops
// trailing corporate suffixes.
func NormalizeName(name string) string {
	s := punctRe.ReplaceAllString(strings.ToLower(name), " ")
	words := strings.Fields(s)

	for len(words) > 1 {
		last := words[len(words)-1]
		stripped := false
		for _, suffix := range corporateSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(words, " ")
}

// NameIndex is the lookup structure mention detection matches against.
// Built once from the company directory and treated as immutable.
type NameIndex struct {
	byName   map[string]models.CompanyInfo
	byTicker map[string]models.CompanyInfo
	fuzzy    []indexEntry
}

type indexEntry struct {
	norm string
	info models.CompanyInfo
}

// NewNameIndex builds the index. Names shorter than minNameLength after
// normalization are excluded from the fuzzy candidate set but still
// matchable exactly.
func NewNameIndex(companies []models.CompanyInfo, minNameLength int) *NameIndex {
	idx := &NameIndex{
		byName:   make(map[string]models.CompanyInfo, len(companies)),
		byTicker: make(map[string]models.CompanyInfo, len(companies)),
	}

	for _, c := range companies {
		norm := NormalizeName(c.Name)
		if norm == "" {
			continue
		}
		if _, exists := idx.byName[norm]; !exists {
			idx.byName[norm] = c
		}
		if c.Ticker != "" {
			ticker := strings.ToUpper(c.Ticker)
			if _, exists := idx.byTicker[ticker]; !exists {
				idx.byTicker[ticker] = c
			}
		}
		if len(norm) >= minNameLength {
			idx.fuzzy = append(idx.fuzzy, indexEntry{norm: norm, info: c})
		}
	}
	return idx
}

// LookupName returns the company for an exact normalized name match.
func (idx *NameIndex) LookupName(phrase string) (models.CompanyInfo, bool) {
	info, ok := idx.byName[NormalizeName(phrase)]
	return info, ok
}

// LookupTicker returns the company for an exact ticker match.
func (idx *NameIndex) LookupTicker(symbol string) (models.CompanyInfo, bool) {
	info, ok := idx.byTicker[strings.ToUpper(symbol)]
	return info, ok
}

// Size returns the number of exactly matchable names.
func (idx *NameIndex) Size() int {
	return len(idx.byName)
}
