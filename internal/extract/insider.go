package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// maxInsiderContentFetches bounds how many Form 4 documents are parsed
// for transaction direction. Counts always cover the full filing list.
const maxInsiderContentFetches = 20

var (
	ownerNameRe    = regexp.MustCompile(`<rptOwnerName>([^<]+)</rptOwnerName>`)
	officerTitleRe = regexp.MustCompile(`<officerTitle>([^<]+)</officerTitle>`)
	isDirectorRe   = regexp.MustCompile(`<isDirector>(?:1|true)</isDirector>`)
	acqDispRe      = regexp.MustCompile(`<transactionAcquiredDisposedCode>\s*<value>([AD])</value>`)
)

// Insider aggregates Form 3/4/5 filings into transaction counts and the
// set of recently active insiders. Direction (acquired vs disposed) is
// read from the ownership XML of the most recent Form 4 documents.
func Insider(ctx context.Context, in *Input) (*models.Fragment, error) {
	forms := in.OfExactForm("3", "4", "5")
	if len(forms) == 0 {
		return &models.Fragment{Kind: models.TaskInsider}, nil
	}

	insider := &models.InsiderActivity{
		TotalTransactions: len(forms),
		LatestTransaction: forms[0].FilingDate,
	}

	names := make(map[string]bool)
	fetched := 0
	for i := range forms {
		if fetched >= maxInsiderContentFetches {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content := in.load(ctx, &forms[i])
		if content == "" {
			continue
		}
		fetched++

		for _, m := range acqDispRe.FindAllStringSubmatch(content, -1) {
			if m[1] == "A" {
				insider.Acquisitions++
			} else {
				insider.Dispositions++
			}
		}
		for _, m := range ownerNameRe.FindAllStringSubmatch(content, -1) {
			if name := normalizePersonName(m[1]); name != "" {
				names[name] = true
			}
		}
	}

	for name := range names {
		insider.ActiveInsiders = append(insider.ActiveInsiders, name)
	}
	sort.Strings(insider.ActiveInsiders)

	return &models.Fragment{
		Kind:    models.TaskInsider,
		Insider: insider,
	}, nil
}

// normalizePersonName converts EDGAR's "LAST FIRST MIDDLE" uppercase
// form into title case. Names already in mixed case pass through.
func normalizePersonName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw != strings.ToUpper(raw) {
		return raw
	}

	words := strings.Fields(strings.ToLower(raw))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
