package edgar

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func submissionsDoc(recentYear int) string {
	return fmt.Sprintf(`{
		"cik": "320193",
		"name": "Apple Inc.",
		"tickers": ["AAPL"],
		"exchanges": ["Nasdaq"],
		"filings": {
			"recent": {
				"accessionNumber": ["0000320193-25-000001", "0000320193-25-000002", "0000320193-15-000099"],
				"filingDate": ["%d-05-02", "%d-01-31", "2015-01-05"],
				"reportDate": ["%d-03-29", "%d-12-28", "2014-12-27"],
				"form": ["10-Q", "8-K", "10-K"],
				"primaryDocument": ["aapl-10q.htm", "aapl-8k.htm", "aapl-10k.htm"],
				"size": [8123456, 102400, 9999999]
			}
		}
	}`, recentYear, recentYear, recentYear, recentYear-1)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithArchivesURL(srv.URL+"/Archives"),
		WithTickersURL(srv.URL+"/files/company_tickers.json"),
		WithRateLimit(1000),
	)
	return srv, client
}

func TestFetchFilingsParsesAndFilters(t *testing.T) {
	year := time.Now().Year()
	var gotUserAgent string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		require.Equal(t, "/submissions/CIK0000320193.json", r.URL.Path)
		fmt.Fprint(w, submissionsDoc(year))
	})

	filings, err := client.FetchFilings(context.Background(), "320193", 5)
	require.NoError(t, err)
	require.Len(t, filings, 2, "filing outside the lookback window must be dropped")

	assert.Equal(t, DefaultUserAgent, gotUserAgent)

	first := filings[0]
	assert.Equal(t, "0000320193", first.CIK)
	assert.Equal(t, "Apple Inc.", first.CompanyName)
	assert.Equal(t, "AAPL", first.Ticker)
	assert.Equal(t, "10-Q", first.FormType)
	assert.Equal(t, "0000320193-25-000001", first.AccessionNumber)
	assert.Equal(t, int64(8123456), first.Size)
	assert.Contains(t, first.URL, "/Archives/edgar/data/320193/000032019325000001/aapl-10q.htm")
}

func TestFetchFilingsZeroLookbackKeepsAll(t *testing.T) {
	year := time.Now().Year()
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, submissionsDoc(year))
	})

	filings, err := client.FetchFilings(context.Background(), "320193", 0)
	require.NoError(t, err)
	assert.Len(t, filings, 3)
}

func TestFetchFilingsGzipResponse(t *testing.T) {
	year := time.Now().Year()
	gzipDoc := func(w http.ResponseWriter) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		fmt.Fprint(gz, submissionsDoc(year))
		require.NoError(t, gz.Close())
	}

	// data.sec.gov gzips whenever the request advertises gzip; the
	// transport negotiates and decompresses transparently.
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		gzipDoc(w)
	})
	filings, err := client.FetchFilings(context.Background(), "320193", 5)
	require.NoError(t, err)
	assert.Len(t, filings, 2)

	// A caller-supplied transport with compression disabled gets the raw
	// gzip body; the client decodes it itself.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gzipDoc(w)
	}))
	t.Cleanup(srv.Close)
	raw := NewClient(
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithHTTPClient(&http.Client{Transport: &http.Transport{DisableCompression: true}}),
	)
	filings, err = raw.FetchFilings(context.Background(), "320193", 5)
	require.NoError(t, err)
	assert.Len(t, filings, 2)
}

func TestFetchFilingsUnknownCIK(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.FetchFilings(context.Background(), "999999", 5)
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestFetchFilingsRejectsInvalidCIK(t *testing.T) {
	client := NewClient()
	_, err := client.FetchFilings(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestFetchContent(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Archives/edgar/data/320193/000032019325000001/aapl-10q.htm", r.URL.Path)
		fmt.Fprint(w, "<html><body>Quarterly report</body></html>")
	})

	filing := &models.Filing{
		CIK:             "0000320193",
		AccessionNumber: "0000320193-25-000001",
		PrimaryDocument: "aapl-10q.htm",
	}
	content, err := client.FetchContent(context.Background(), filing)
	require.NoError(t, err)
	assert.Contains(t, content, "Quarterly report")
}

func TestFetchContentRequiresPrimaryDocument(t *testing.T) {
	client := NewClient()
	_, err := client.FetchContent(context.Background(), &models.Filing{AccessionNumber: "x"})
	assert.Error(t, err)
}

func TestFetchCompanyFacts(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/xbrl/companyfacts/CIK0000320193.json", r.URL.Path)
		fmt.Fprint(w, `{
			"cik": 320193,
			"entityName": "Apple Inc.",
			"facts": {
				"us-gaap": {
					"Revenues": {
						"label": "Revenues",
						"units": {
							"USD": [
								{"start": "2023-10-01", "end": "2024-09-28", "val": 391035000000, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
							]
						}
					}
				}
			}
		}`)
	})

	facts, err := client.FetchCompanyFacts(context.Background(), "320193")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", facts.EntityName)

	rows := facts.Facts["us-gaap"]["Revenues"].Units["USD"]
	require.Len(t, rows, 1)
	assert.Equal(t, 391035000000.0, rows[0].Value)
	assert.Equal(t, 2024, rows[0].FY)
	assert.Equal(t, "FY", rows[0].FP)
}

func TestFetchCompanyIndex(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/company_tickers.json", r.URL.Path)
		fmt.Fprint(w, `{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corporation"}
		}`)
	})

	companies, err := client.FetchCompanyIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)

	byCIK := map[string]models.CompanyInfo{}
	for _, c := range companies {
		byCIK[c.CIK] = c
	}
	assert.Equal(t, "AAPL", byCIK["0000320193"].Ticker)
	assert.Equal(t, "Microsoft Corporation", byCIK["0000789019"].Name)
}

func TestAPIErrorSurfacesStatus(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := client.FetchCompanyIndex(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}
