package edgar

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the EDGAR submissions API.
	DefaultBaseURL = "https://data.sec.gov"

	// DefaultArchivesURL is the base URL for filing archives.
	DefaultArchivesURL = "https://www.sec.gov/Archives"

	// DefaultTickersURL is the company ticker index file.
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	// SEC fair access policy allows 10 requests per second.
	DefaultRateLimit = 8

	// DefaultUserAgent satisfies the SEC's declared-identity requirement.
	DefaultUserAgent = "colligo/1.0 (research; admin@ternarybob.com)"
)

// Client is a SEC EDGAR API client.
type Client struct {
	baseURL     string
	archivesURL string
	tickersURL  string
	userAgent   string
	httpClient  *http.Client
	logger      arbor.ILogger
	limiter     *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom submissions API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithArchivesURL sets a custom archives base URL.
func WithArchivesURL(archivesURL string) ClientOption {
	return func(c *Client) {
		c.archivesURL = archivesURL
	}
}

// WithTickersURL sets a custom company ticker index URL.
func WithTickersURL(tickersURL string) ClientOption {
	return func(c *Client) {
		c.tickersURL = tickersURL
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new EDGAR API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		archivesURL: DefaultArchivesURL,
		tickersURL:  DefaultTickersURL,
		userAgent:   DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do performs a rate-limited GET request and returns the raw body.
func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{RetryAfter: time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Accept-Encoding is left to the transport so it negotiates gzip and
	// decompresses transparently.
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug().
			Str("url", reqURL).
			Msg("EDGAR API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   reqURL,
		}
	}

	// A caller-supplied transport with compression disabled still gets
	// gzip bodies from data.sec.gov; decode them here.
	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip response: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, reqURL string, result interface{}) error {
	body, err := c.do(ctx, reqURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FetchFilings returns filings for a CIK within the lookback window,
// newest first.
func (c *Client) FetchFilings(ctx context.Context, cik string, lookbackYears int) ([]models.Filing, error) {
	padded := common.NormalizeCIK(cik)
	if padded == "" {
		return nil, fmt.Errorf("invalid CIK: %q", cik)
	}

	var subs submissionsResponse
	reqURL := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, padded)
	if err := c.getJSON(ctx, reqURL, &subs); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{CIK: cik}
		}
		return nil, err
	}

	cutoff := time.Now().AddDate(-lookbackYears, 0, 0)
	if lookbackYears <= 0 {
		cutoff = time.Time{}
	}

	ticker := ""
	if len(subs.Tickers) > 0 {
		ticker = subs.Tickers[0]
	}

	recent := subs.Filings.Recent
	filings := make([]models.Filing, 0, len(recent.AccessionNumber))
	for i := range recent.AccessionNumber {
		filingDate, err := time.Parse("2006-01-02", at(recent.FilingDate, i))
		if err != nil {
			continue
		}
		if filingDate.Before(cutoff) {
			continue
		}

		f := models.Filing{
			CIK:             padded,
			CompanyName:     subs.Name,
			Ticker:          ticker,
			FormType:        at(recent.Form, i),
			FilingDate:      filingDate,
			AccessionNumber: recent.AccessionNumber[i],
			PrimaryDocument: at(recent.PrimaryDocument, i),
		}
		if reportDate, err := time.Parse("2006-01-02", at(recent.ReportDate, i)); err == nil {
			f.ReportDate = reportDate
		}
		if i < len(recent.Size) {
			f.Size = recent.Size[i]
		}
		f.URL = c.documentURL(&f)
		filings = append(filings, f)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("cik", padded).
			Int("filings", len(filings)).
			Int("lookback_years", lookbackYears).
			Msg("Fetched filing list")
	}

	return filings, nil
}

// FetchContent downloads the primary document of a filing.
func (c *Client) FetchContent(ctx context.Context, filing *models.Filing) (string, error) {
	if filing.PrimaryDocument == "" {
		return "", fmt.Errorf("filing %s has no primary document", filing.AccessionNumber)
	}

	body, err := c.do(ctx, c.documentURL(filing))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchCompanyFacts downloads the XBRL company facts document for a CIK.
func (c *Client) FetchCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	padded := common.NormalizeCIK(cik)
	if padded == "" {
		return nil, fmt.Errorf("invalid CIK: %q", cik)
	}

	var facts CompanyFacts
	reqURL := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, padded)
	if err := c.getJSON(ctx, reqURL, &facts); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{CIK: cik}
		}
		return nil, err
	}
	return &facts, nil
}

// FetchCompanyIndex downloads and parses the company ticker index.
func (c *Client) FetchCompanyIndex(ctx context.Context) ([]models.CompanyInfo, error) {
	var entries map[string]tickerEntry
	if err := c.getJSON(ctx, c.tickersURL, &entries); err != nil {
		return nil, err
	}

	companies := make([]models.CompanyInfo, 0, len(entries))
	for _, e := range entries {
		companies = append(companies, models.CompanyInfo{
			CIK:    common.NormalizeCIK(fmt.Sprintf("%d", e.CIK)),
			Ticker: e.Ticker,
			Name:   e.Title,
		})
	}

	if c.logger != nil {
		c.logger.Info().
			Int("companies", len(companies)).
			Msg("Loaded EDGAR company index")
	}

	return companies, nil
}

// documentURL builds the archives URL for a filing's primary document.
func (c *Client) documentURL(filing *models.Filing) string {
	bareCIK := strings.TrimLeft(filing.CIK, "0")
	bareAccession := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	return fmt.Sprintf("%s/edgar/data/%s/%s/%s", c.archivesURL, bareCIK, bareAccession, filing.PrimaryDocument)
}

// at guards parallel-array access against ragged responses.
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

var _ interfaces.FilingSource = (*Client)(nil)
