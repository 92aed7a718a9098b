package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// maxEventContentFetches bounds how many 8-K documents are downloaded for
// item extraction. Older events keep metadata only.
const maxEventContentFetches = 10

var itemCodeRe = regexp.MustCompile(`(?i)item\s+(\d+\.\d+)`)

// itemDescriptions maps the common 8-K item codes to short labels.
var itemDescriptions = map[string]string{
	"1.01": "Entry into a Material Definitive Agreement",
	"1.02": "Termination of a Material Definitive Agreement",
	"1.03": "Bankruptcy or Receivership",
	"2.01": "Completion of Acquisition or Disposition of Assets",
	"2.02": "Results of Operations and Financial Condition",
	"2.03": "Creation of a Direct Financial Obligation",
	"2.05": "Costs Associated with Exit or Disposal Activities",
	"2.06": "Material Impairments",
	"3.01": "Notice of Delisting",
	"4.01": "Changes in Registrant's Certifying Accountant",
	"4.02": "Non-Reliance on Previously Issued Financial Statements",
	"5.01": "Changes in Control of Registrant",
	"5.02": "Departure or Election of Directors or Officers",
	"5.03": "Amendments to Articles of Incorporation or Bylaws",
	"5.07": "Submission of Matters to a Vote of Security Holders",
	"7.01": "Regulation FD Disclosure",
	"8.01": "Other Events",
}

// Events extracts material corporate events from Form 8-K filings. Item
// codes come from the document text when available; filings past the
// content budget carry date and form type only.
func Events(ctx context.Context, in *Input) (*models.Fragment, error) {
	current := in.OfForm("8-K")
	if len(current) == 0 {
		return &models.Fragment{Kind: models.TaskEvents}, nil
	}

	events := make([]models.CorporateEvent, 0, len(current))
	for i := range current {
		f := &current[i]
		event := models.CorporateEvent{
			Date:            f.FilingDate,
			FormType:        f.FormType,
			AccessionNumber: f.AccessionNumber,
		}

		if i < maxEventContentFetches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if content := in.load(ctx, f); content != "" {
				event.Items = eventItems(content)
				event.Description = describeItems(event.Items)
			}
		}

		events = append(events, event)
	}

	return &models.Fragment{
		Kind:   models.TaskEvents,
		Events: events,
	}, nil
}

// eventItems pulls the distinct 8-K item codes from document text,
// sorted ascending.
func eventItems(content string) []string {
	seen := make(map[string]bool)
	var items []string
	for _, m := range itemCodeRe.FindAllStringSubmatch(PlainText(content), -1) {
		code := m[1]
		if _, known := itemDescriptions[code]; !known {
			continue
		}
		if !seen[code] {
			seen[code] = true
			items = append(items, code)
		}
	}
	sort.Strings(items)
	return items
}

func describeItems(items []string) string {
	labels := make([]string, 0, len(items))
	for _, code := range items {
		if label, ok := itemDescriptions[code]; ok {
			labels = append(labels, label)
		}
	}
	return strings.Join(labels, "; ")
}
