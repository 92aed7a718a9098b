package extract

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// FilingActivity summarizes the filing cadence from metadata alone. It
// never touches filing content, so it is the cheapest of the tasks.
func FilingActivity(ctx context.Context, in *Input) (*models.Fragment, error) {
	if len(in.Filings) == 0 {
		return &models.Fragment{Kind: models.TaskFilingActivity}, nil
	}

	activity := &models.FilingActivity{
		TotalFilings:   len(in.Filings),
		CountsByForm:   make(map[string]int),
		FilingsPerYear: make(map[int]int),
	}

	for i := range in.Filings {
		f := &in.Filings[i]
		activity.CountsByForm[f.FormType]++
		activity.FilingsPerYear[f.FilingDate.Year()]++

		if activity.FirstFiling.IsZero() || f.FilingDate.Before(activity.FirstFiling) {
			activity.FirstFiling = f.FilingDate
		}
		if f.FilingDate.After(activity.LatestFiling) {
			activity.LatestFiling = f.FilingDate
		}
	}

	return &models.Fragment{
		Kind:           models.TaskFilingActivity,
		FilingActivity: activity,
	}, nil
}
