package models

import "time"

// FilingActivity summarizes a company's EDGAR filing cadence.
type FilingActivity struct {
	TotalFilings   int            `json:"total_filings"`
	CountsByForm   map[string]int `json:"counts_by_form"`
	FilingsPerYear map[int]int    `json:"filings_per_year"`
	FirstFiling    time.Time      `json:"first_filing,omitempty"`
	LatestFiling   time.Time      `json:"latest_filing,omitempty"`
}

// CorporateEvent is a material event reported on Form 8-K.
type CorporateEvent struct {
	Date            time.Time `json:"date"`
	FormType        string    `json:"form_type"`
	Items           []string  `json:"items,omitempty"`
	Description     string    `json:"description,omitempty"`
	AccessionNumber string    `json:"accession_number"`
}

// Governance captures proxy statement (DEF 14A) derived signals.
type Governance struct {
	ProxyFilings    int       `json:"proxy_filings"`
	LatestProxyDate time.Time `json:"latest_proxy_date,omitempty"`
	BoardSize       int       `json:"board_size,omitempty"`
	Committees      []string  `json:"committees,omitempty"`
	Auditor         string    `json:"auditor,omitempty"`
}

// InsiderActivity aggregates Form 3/4/5 insider transaction filings.
type InsiderActivity struct {
	TotalTransactions int       `json:"total_transactions"`
	Acquisitions      int       `json:"acquisitions"`
	Dispositions      int       `json:"dispositions"`
	ActiveInsiders    []string  `json:"active_insiders,omitempty"`
	LatestTransaction time.Time `json:"latest_transaction,omitempty"`
}

// OwnershipStake is one beneficial ownership filing (SC 13D / SC 13G).
type OwnershipStake struct {
	HolderName      string    `json:"holder_name"`
	FormType        string    `json:"form_type"`
	FiledDate       time.Time `json:"filed_date"`
	Activist        bool      `json:"activist"`
	AccessionNumber string    `json:"accession_number,omitempty"`
}

// Ownership summarizes institutional and activist holders.
type Ownership struct {
	Stakes         []OwnershipStake `json:"stakes,omitempty"`
	TotalStakes    int              `json:"total_stakes"`
	ActivistStakes int              `json:"activist_stakes"`
}

// Person is an officer or director surfaced from filings.
type Person struct {
	Name   string   `json:"name"`
	Title  string   `json:"title,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	Source string   `json:"source,omitempty"`
}

// FinancialPeriod is one reporting period of headline financials.
type FinancialPeriod struct {
	PeriodEnd          time.Time `json:"period_end"`
	FiscalYear         int       `json:"fiscal_year"`
	Period             string    `json:"period"` // FY, Q1..Q4
	Revenue            float64   `json:"revenue,omitempty"`
	NetIncome          float64   `json:"net_income,omitempty"`
	OperatingCashFlow  float64   `json:"operating_cash_flow,omitempty"`
	TotalAssets        float64   `json:"total_assets,omitempty"`
	TotalLiabilities   float64   `json:"total_liabilities,omitempty"`
	StockholdersEquity float64   `json:"stockholders_equity,omitempty"`
	CurrentAssets      float64   `json:"current_assets,omitempty"`
	CurrentLiabilities float64   `json:"current_liabilities,omitempty"`
	Cash               float64   `json:"cash,omitempty"`
	LongTermDebt       float64   `json:"long_term_debt,omitempty"`
	SharesOutstanding  float64   `json:"shares_outstanding,omitempty"`
	EPS                float64   `json:"eps,omitempty"`
}

// FinancialHistory is the ordered time series extracted from 10-K/10-Q
// filings, oldest first.
type FinancialHistory struct {
	Currency string            `json:"currency,omitempty"`
	Periods  []FinancialPeriod `json:"periods,omitempty"`
}

// Annual returns only the fiscal-year periods, oldest first.
func (h *FinancialHistory) Annual() []FinancialPeriod {
	var out []FinancialPeriod
	for _, p := range h.Periods {
		if p.Period == "FY" {
			out = append(out, p)
		}
	}
	return out
}

// CompanyProfile is the unified document produced by one generation run.
// Extraction tasks own disjoint sections; analytics are derived afterwards.
type CompanyProfile struct {
	CIK           string      `json:"cik" badgerhold:"key"`
	GenerationID  string      `json:"generation_id"`
	Info          CompanyInfo `json:"info"`
	LookbackYears int         `json:"lookback_years"`

	FilingActivity *FilingActivity   `json:"filing_activity,omitempty"`
	Events         []CorporateEvent  `json:"events,omitempty"`
	Governance     *Governance       `json:"governance,omitempty"`
	Insider        *InsiderActivity  `json:"insider,omitempty"`
	Ownership      *Ownership        `json:"ownership,omitempty"`
	People         []Person          `json:"people,omitempty"`
	Financials     *FinancialHistory `json:"financials,omitempty"`
	Relationships  []Relationship    `json:"relationships,omitempty"`

	Analytics *Analytics `json:"analytics,omitempty"`

	TaskOutcomes map[TaskKind]TaskStatus `json:"task_outcomes,omitempty"`

	GeneratedAt    time.Time     `json:"generated_at"`
	GenerationTime time.Duration `json:"generation_time"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
