package models

import "time"

// CompanyInfo identifies a registrant in the EDGAR company index.
type CompanyInfo struct {
	CIK            string `json:"cik"`
	Ticker         string `json:"ticker,omitempty"`
	Name           string `json:"name"`
	Exchange       string `json:"exchange,omitempty"`
	SIC            string `json:"sic,omitempty"`
	SICDescription string `json:"sic_description,omitempty"`
}

// Filing is one EDGAR filing record from the submissions API.
type Filing struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	Ticker          string    `json:"ticker,omitempty"`
	FormType        string    `json:"form_type"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date,omitempty"`
	AccessionNumber string    `json:"accession_number"`
	PrimaryDocument string    `json:"primary_document,omitempty"`
	URL             string    `json:"url,omitempty"`
	Size            int64     `json:"size,omitempty"`
}

// IsAnnual reports whether the filing is an annual report variant.
func (f *Filing) IsAnnual() bool {
	return f.FormType == "10-K" || f.FormType == "10-K/A" || f.FormType == "20-F"
}

// IsQuarterly reports whether the filing is a quarterly report variant.
func (f *Filing) IsQuarterly() bool {
	return f.FormType == "10-Q" || f.FormType == "10-Q/A"
}
