package edgar

// submissionsResponse is the wire shape of the EDGAR submissions API
// (GET /submissions/CIK{10-digit}.json). Recent filings arrive as
// parallel arrays.
type submissionsResponse struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sicDescription"`
	Filings        struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	Size            []int64  `json:"size"`
}

// tickerEntry is one row of company_tickers.json. The file is keyed by
// arbitrary numeric strings, so the decoder reads a map.
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CompanyFacts is the wire shape of the XBRL company facts API
// (GET /api/xbrl/companyfacts/CIK{10-digit}.json).
type CompanyFacts struct {
	CIK        int64                           `json:"cik"`
	EntityName string                          `json:"entityName"`
	Facts      map[string]map[string]FactGroup `json:"facts"`
}

// FactGroup is one tagged concept with values per unit.
type FactGroup struct {
	Label string                `json:"label"`
	Units map[string][]FactUnit `json:"units"`
}

// FactUnit is one reported value of a concept.
type FactUnit struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Value float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"` // FY, Q1..Q4
	Form  string  `json:"form"`
	Frame string  `json:"frame,omitempty"`
	Filed string  `json:"filed"`
}
