package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// maxPeopleContentFetches bounds how many ownership documents are parsed
// for names and titles.
const maxPeopleContentFetches = 25

var reportingOwnerRe = regexp.MustCompile(`(?s)<reportingOwner>.*?</reportingOwner>`)

// People surfaces officers and directors from Form 3/4/5 ownership
// documents. Each reporting owner block names the insider and their
// role, which is far more reliable than scraping proxy prose.
func People(ctx context.Context, in *Input) (*models.Fragment, error) {
	forms := in.OfExactForm("3", "4", "5")
	if len(forms) == 0 {
		return &models.Fragment{Kind: models.TaskPeople}, nil
	}

	type personAgg struct {
		title  string
		roles  map[string]bool
		source string
	}
	people := make(map[string]*personAgg)

	fetched := 0
	for i := range forms {
		if fetched >= maxPeopleContentFetches {
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

		for _, block := range reportingOwnerRe.FindAllString(content, -1) {
			nameMatch := ownerNameRe.FindStringSubmatch(block)
			if nameMatch == nil {
				continue
			}
			name := normalizePersonName(nameMatch[1])
			if name == "" {
				continue
			}

			agg := people[name]
			if agg == nil {
				agg = &personAgg{
					roles:  make(map[string]bool),
					source: forms[i].FormType,
				}
				people[name] = agg
			}
			if m := officerTitleRe.FindStringSubmatch(block); m != nil {
				title := strings.TrimSpace(m[1])
				if title != "" {
					agg.title = title
					agg.roles["officer"] = true
				}
			}
			if isDirectorRe.MatchString(block) {
				agg.roles["director"] = true
			}
		}
	}

	out := make([]models.Person, 0, len(people))
	for name, agg := range people {
		p := models.Person{
			Name:   name,
			Title:  agg.title,
			Source: agg.source,
		}
		for role := range agg.roles {
			p.Roles = append(p.Roles, role)
		}
		sort.Strings(p.Roles)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return &models.Fragment{
		Kind:   models.TaskPeople,
		People: out,
	}, nil
}
