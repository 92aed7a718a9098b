package models

import "time"

// RelationshipType classifies how a mentioned company relates to the
// subject company. The set is closed.
type RelationshipType string

const (
	RelationSupplier   RelationshipType = "supplier"
	RelationCustomer   RelationshipType = "customer"
	RelationCompetitor RelationshipType = "competitor"
	RelationPartner    RelationshipType = "partner"
	RelationInvestor   RelationshipType = "investor"
	RelationSubsidiary RelationshipType = "subsidiary"
	RelationParent     RelationshipType = "parent"
)

// ValidRelationshipType reports whether t is a member of the closed set.
func ValidRelationshipType(t RelationshipType) bool {
	switch t {
	case RelationSupplier, RelationCustomer, RelationCompetitor,
		RelationPartner, RelationInvestor, RelationSubsidiary, RelationParent:
		return true
	}
	return false
}

// MentionMethod records how a company mention was matched against the
// company index.
type MentionMethod string

const (
	MentionExactName   MentionMethod = "exact_name"
	MentionExactTicker MentionMethod = "exact_ticker"
	MentionFuzzy       MentionMethod = "fuzzy"
)

// Mention is one detected reference to an indexed company in filing text.
type Mention struct {
	TargetCIK  string        `json:"target_cik"`
	TargetName string        `json:"target_name"`
	Ticker     string        `json:"ticker,omitempty"`
	Method     MentionMethod `json:"method"`
	Confidence float64       `json:"confidence"`
	Context    string        `json:"context,omitempty"`
	Count      int           `json:"count"`
}

// Relationship is one classified company-to-company relationship.
// Confidence is always within [0,1].
type Relationship struct {
	SourceCIK       string           `json:"source_cik"`
	TargetCIK       string           `json:"target_cik,omitempty"`
	TargetName      string           `json:"target_name"`
	TargetTicker    string           `json:"target_ticker,omitempty"`
	Type            RelationshipType `json:"type"`
	Confidence      float64          `json:"confidence"`
	Method          MentionMethod    `json:"method"`
	MentionCount    int              `json:"mention_count"`
	Evidence        string           `json:"evidence,omitempty"`
	RevenueShare    float64          `json:"revenue_share,omitempty"`
	SharedOfficers  []string         `json:"shared_officers,omitempty"`
	FirstSeenFiling string           `json:"first_seen_filing,omitempty"`
}

// CompanyRelationships is the stored relationship document for one
// company, grouped by type.
type CompanyRelationships struct {
	CIK       string                              `json:"cik" badgerhold:"key"`
	ByType    map[RelationshipType][]Relationship `json:"by_type"`
	Total     int                                 `json:"total"`
	UpdatedAt time.Time                           `json:"updated_at"`
}

// GroupRelationships builds the stored per-type grouping from a flat list.
func GroupRelationships(cik string, rels []Relationship) *CompanyRelationships {
	grouped := &CompanyRelationships{
		CIK:       cik,
		ByType:    make(map[RelationshipType][]Relationship),
		Total:     len(rels),
		UpdatedAt: time.Now(),
	}
	for _, r := range rels {
		grouped.ByType[r.Type] = append(grouped.ByType[r.Type], r)
	}
	return grouped
}
