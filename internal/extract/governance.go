package extract

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

var (
	boardSizeRe = regexp.MustCompile(`(?i)board\s+(?:of\s+directors\s+)?(?:currently\s+)?(?:consists?|is\s+comprised|is\s+composed)\s+of\s+(\w+)`)

	// knownAuditors ordered longest-name-first so substring hits resolve
	// to the most specific firm.
	knownAuditors = []string{
		"PricewaterhouseCoopers",
		"Deloitte & Touche",
		"Ernst & Young",
		"Grant Thornton",
		"KPMG",
		"BDO USA",
		"RSM US",
		"Marcum",
		"Crowe",
	}

	committeeNames = map[string]string{
		"audit committee":          "Audit",
		"compensation committee":   "Compensation",
		"nominating committee":     "Nominating",
		"governance committee":     "Governance",
		"risk committee":           "Risk",
		"executive committee":      "Executive",
		"finance committee":        "Finance",
		"disclosure committee":     "Disclosure",
		"cybersecurity committee":  "Cybersecurity",
		"sustainability committee": "Sustainability",
	}

	numberWords = map[string]int{
		"four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
		"nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
		"thirteen": 13, "fourteen": 14, "fifteen": 15,
	}
)

// Governance derives board and auditor signals from proxy statements
// (DEF 14A). Only the latest proxy is downloaded; counts come from
// metadata.
func Governance(ctx context.Context, in *Input) (*models.Fragment, error) {
	proxies := in.OfForm("DEF 14A", "DEFA14A")
	if len(proxies) == 0 {
		return &models.Fragment{Kind: models.TaskGovernance}, nil
	}

	gov := &models.Governance{
		ProxyFilings:    len(proxies),
		LatestProxyDate: proxies[0].FilingDate,
	}

	if content := in.load(ctx, &proxies[0]); content != "" {
		text := PlainText(content)
		gov.BoardSize = boardSize(text)
		gov.Committees = committees(text)
		gov.Auditor = auditor(text)
	}

	return &models.Fragment{
		Kind:       models.TaskGovernance,
		Governance: gov,
	}, nil
}

func boardSize(text string) int {
	m := boardSizeRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	word := strings.ToLower(m[1])
	if n, ok := numberWords[word]; ok {
		return n
	}
	if n, err := strconv.Atoi(word); err == nil && n > 0 && n < 30 {
		return n
	}
	return 0
}

func committees(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var out []string
	for phrase, label := range committeeNames {
		if strings.Contains(lower, phrase) && !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

func auditor(text string) string {
	for _, firm := range knownAuditors {
		if strings.Contains(text, firm) {
			return firm
		}
	}
	return ""
}
