package models

// Fragment is the partial profile produced by one extraction task. Each
// task populates only the section it owns; the aggregator merges fragments
// into the profile under a per-company lock.
type Fragment struct {
	Kind TaskKind `json:"kind"`

	FilingActivity *FilingActivity   `json:"filing_activity,omitempty"`
	Events         []CorporateEvent  `json:"events,omitempty"`
	Governance     *Governance       `json:"governance,omitempty"`
	Insider        *InsiderActivity  `json:"insider,omitempty"`
	Ownership      *Ownership        `json:"ownership,omitempty"`
	People         []Person          `json:"people,omitempty"`
	Financials     *FinancialHistory `json:"financials,omitempty"`
	Relationships  []Relationship    `json:"relationships,omitempty"`
}

// Empty reports whether the fragment carries no extracted data.
func (f *Fragment) Empty() bool {
	if f == nil {
		return true
	}
	return f.FilingActivity == nil &&
		len(f.Events) == 0 &&
		f.Governance == nil &&
		f.Insider == nil &&
		f.Ownership == nil &&
		len(f.People) == 0 &&
		f.Financials == nil &&
		len(f.Relationships) == 0
}
