package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// maxOwnershipContentFetches bounds how many beneficial ownership
// documents are downloaded to recover the holder name.
const maxOwnershipContentFetches = 15

var reportingPersonRe = regexp.MustCompile(`(?i)names?\s+of\s+reporting\s+persons?\s*[:.]?\s*([A-Za-z][A-Za-z0-9&.,' -]{2,80})`)

// Ownership collects SC 13D and SC 13G beneficial ownership filings.
// An SC 13D signals an activist position; SC 13G is passive.
func Ownership(ctx context.Context, in *Input) (*models.Fragment, error) {
	filings := in.OfForm("SC 13D", "SC 13G", "SCHEDULE 13D", "SCHEDULE 13G")
	if len(filings) == 0 {
		return &models.Fragment{Kind: models.TaskOwnership}, nil
	}

	ownership := &models.Ownership{
		TotalStakes: len(filings),
	}

	for i := range filings {
		f := &filings[i]
		activist := strings.Contains(f.FormType, "13D")
		if activist {
			ownership.ActivistStakes++
		}

		stake := models.OwnershipStake{
			FormType:        f.FormType,
			FiledDate:       f.FilingDate,
			Activist:        activist,
			AccessionNumber: f.AccessionNumber,
		}

		if i < maxOwnershipContentFetches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if content := in.load(ctx, f); content != "" {
				stake.HolderName = holderName(content)
			}
		}

		ownership.Stakes = append(ownership.Stakes, stake)
	}

	return &models.Fragment{
		Kind:      models.TaskOwnership,
		Ownership: ownership,
	}, nil
}

// holderName pulls the reporting person from the cover page of a
// Schedule 13 document.
func holderName(content string) string {
	m := reportingPersonRe.FindStringSubmatch(PlainText(content))
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	// Cover pages often run the name into the next numbered field.
	for _, stop := range []string{" Check the", " (a)", " 2 "} {
		if idx := strings.Index(name, stop); idx > 0 {
			name = name[:idx]
		}
	}
	return strings.TrimSpace(name)
}
