package profile

import (
	"github.com/ternarybob/colligo/internal/models"
)

// mergeResult folds one task result into the profile. Each task owns a
// disjoint section, so merging is assignment plus outcome bookkeeping; a
// failed or timed-out task leaves its section at the zero value. The
// switch is exhaustive over the closed task set.
func mergeResult(p *models.CompanyProfile, result *models.TaskResult) {
	if p.TaskOutcomes == nil {
		p.TaskOutcomes = make(map[models.TaskKind]models.TaskStatus)
	}
	p.TaskOutcomes[result.Kind] = result.Status

	frag := result.Fragment
	if result.Status != models.TaskStatusSuccess || frag == nil {
		return
	}

	switch result.Kind {
	case models.TaskFilingActivity:
		p.FilingActivity = frag.FilingActivity
	case models.TaskEvents:
		p.Events = frag.Events
	case models.TaskGovernance:
		p.Governance = frag.Governance
	case models.TaskInsider:
		p.Insider = frag.Insider
	case models.TaskOwnership:
		p.Ownership = frag.Ownership
	case models.TaskPeople:
		p.People = frag.People
	case models.TaskFinancials:
		p.Financials = frag.Financials
	case models.TaskRelationships:
		p.Relationships = frag.Relationships
	}
}
