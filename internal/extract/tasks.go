// -----------------------------------------------------------------------
// Task Registry - the closed set of extraction tasks for one company
// -----------------------------------------------------------------------

package extract

import (
	"context"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Task pairs a task kind with its function. The set is closed; the
// merge step matches exhaustively on Kind.
type Task struct {
	Kind models.TaskKind
	Run  interfaces.TaskFunc
}

// RelationshipsFunc produces the relationship fragment. It is injected
// by the caller because relationship extraction needs collaborators
// (company index, stored profiles) the other tasks do not.
type RelationshipsFunc func(ctx context.Context, in *Input) (*models.Fragment, error)

// Tasks builds the extraction task set for one input. A nil
// relationships function omits that task, which is how the
// skip-relationships option is implemented.
func Tasks(in *Input, relationships RelationshipsFunc) []Task {
	bind := func(fn func(context.Context, *Input) (*models.Fragment, error)) interfaces.TaskFunc {
		return func(ctx context.Context) (*models.Fragment, error) {
			return fn(ctx, in)
		}
	}

	tasks := []Task{
		{Kind: models.TaskFilingActivity, Run: bind(FilingActivity)},
		{Kind: models.TaskEvents, Run: bind(Events)},
		{Kind: models.TaskGovernance, Run: bind(Governance)},
		{Kind: models.TaskInsider, Run: bind(Insider)},
		{Kind: models.TaskOwnership, Run: bind(Ownership)},
		{Kind: models.TaskPeople, Run: bind(People)},
		{Kind: models.TaskFinancials, Run: bind(Financials)},
	}
	if relationships != nil {
		tasks = append(tasks, Task{Kind: models.TaskRelationships, Run: bind(relationships)})
	}
	return tasks
}
