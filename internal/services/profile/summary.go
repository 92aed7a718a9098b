// -----------------------------------------------------------------------
// Profile Summary - markdown rendering of a generated profile
// -----------------------------------------------------------------------

package profile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/colligo/internal/models"
)

// Summary renders a company profile as a markdown document.
func Summary(p *models.CompanyProfile) string {
	var b strings.Builder

	title := p.Info.Name
	if title == "" {
		title = p.CIK
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if p.Info.Ticker != "" {
		fmt.Fprintf(&b, "**Ticker:** %s  \n", p.Info.Ticker)
	}
	fmt.Fprintf(&b, "**CIK:** %s  \n", p.CIK)
	fmt.Fprintf(&b, "**Lookback:** %d years  \n", p.LookbackYears)
	if !p.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "**Generated:** %s (%s)\n", p.GeneratedAt.Format("2006-01-02 15:04:05"), p.GenerationTime.Round(1e6))
	}

	if p.FilingActivity != nil {
		b.WriteString("\n## Filing Activity\n\n")
		fmt.Fprintf(&b, "%d filings between %s and %s.\n\n",
			p.FilingActivity.TotalFilings,
			p.FilingActivity.FirstFiling.Format("2006-01-02"),
			p.FilingActivity.LatestFiling.Format("2006-01-02"))
		writeFormCounts(&b, p.FilingActivity.CountsByForm)
	}

	if p.Financials != nil && len(p.Financials.Periods) > 0 {
		b.WriteString("\n## Financials\n\n")
		b.WriteString("| Fiscal Year | Period | Revenue | Net Income | Total Assets |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, period := range p.Financials.Periods {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				period.FiscalYear, period.Period,
				money(period.Revenue), money(period.NetIncome), money(period.TotalAssets))
		}
	}

	if p.Analytics != nil {
		b.WriteString("\n## Analytics\n\n")
		if p.Analytics.Health != nil {
			fmt.Fprintf(&b, "- Health score: %.2f\n", p.Analytics.Health.Score)
			for _, flag := range p.Analytics.Health.Flags {
				fmt.Fprintf(&b, "- Flag: %s\n", flag)
			}
		}
		if p.Analytics.Lifecycle != "" {
			fmt.Fprintf(&b, "- Lifecycle stage: %s\n", p.Analytics.Lifecycle)
		}
		for _, anomaly := range p.Analytics.Anomalies {
			fmt.Fprintf(&b, "- Anomaly: %s in FY%d (z=%.2f)\n", anomaly.Metric, anomaly.FiscalYear, anomaly.ZScore)
		}
	}

	if p.Governance != nil {
		b.WriteString("\n## Governance\n\n")
		fmt.Fprintf(&b, "- Proxy filings: %d\n", p.Governance.ProxyFilings)
		if p.Governance.BoardSize > 0 {
			fmt.Fprintf(&b, "- Board size: %d\n", p.Governance.BoardSize)
		}
		if len(p.Governance.Committees) > 0 {
			fmt.Fprintf(&b, "- Committees: %s\n", strings.Join(p.Governance.Committees, ", "))
		}
		if p.Governance.Auditor != "" {
			fmt.Fprintf(&b, "- Auditor: %s\n", p.Governance.Auditor)
		}
	}

	if p.Insider != nil {
		b.WriteString("\n## Insider Activity\n\n")
		fmt.Fprintf(&b, "- Transactions: %d (%d acquisitions, %d dispositions)\n",
			p.Insider.TotalTransactions, p.Insider.Acquisitions, p.Insider.Dispositions)
		if len(p.Insider.ActiveInsiders) > 0 {
			fmt.Fprintf(&b, "- Active insiders: %s\n", strings.Join(p.Insider.ActiveInsiders, ", "))
		}
	}

	if p.Ownership != nil && p.Ownership.TotalStakes > 0 {
		b.WriteString("\n## Beneficial Ownership\n\n")
		fmt.Fprintf(&b, "- Stakes: %d (%d activist)\n", p.Ownership.TotalStakes, p.Ownership.ActivistStakes)
	}

	if len(p.Relationships) > 0 {
		b.WriteString("\n## Relationships\n\n")
		grouped := models.GroupRelationships(p.CIK, p.Relationships)
		var types []string
		for t := range grouped.ByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(&b, "### %s\n\n", titleCase(t))
			for _, rel := range grouped.ByType[models.RelationshipType(t)] {
				fmt.Fprintf(&b, "- %s (confidence %.2f)\n", rel.TargetName, rel.Confidence)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// SummaryHTML converts the markdown summary to HTML with GFM tables.
func SummaryHTML(p *models.CompanyProfile) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(Summary(p)), &buf); err != nil {
		return "", fmt.Errorf("summary render failed: %w", err)
	}
	return buf.String(), nil
}

func writeFormCounts(b *strings.Builder, counts map[string]int) {
	forms := make([]string, 0, len(counts))
	for form := range counts {
		forms = append(forms, form)
	}
	sort.Strings(forms)
	for _, form := range forms {
		fmt.Fprintf(b, "- %s: %d\n", form, counts[form])
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func money(v float64) string {
	switch {
	case v == 0:
		return "-"
	case v >= 1e9 || v <= -1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6 || v <= -1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
