package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func testIndex() *edgar.CompanyIndex {
	idx := edgar.NewCompanyIndex(nil)
	idx.Replace([]models.CompanyInfo{
		{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		{CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corporation"},
	})
	return idx
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?limit=7&bad=zz", nil)
	assert.Equal(t, 7, QueryInt(r, "limit", 20))
	assert.Equal(t, 20, QueryInt(r, "bad", 20))
	assert.Equal(t, 20, QueryInt(r, "missing", 20))
}

func TestWriteErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "boom")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "boom", body["error"])
}

func TestCompanySearchHandler(t *testing.T) {
	h := NewCompanyHandler(testIndex(), edgar.NewClient(), nil)

	rec := httptest.NewRecorder()
	h.SearchHandler(rec, httptest.NewRequest("GET", "/api/companies/search?q=apple", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestCompanySearchRequiresQuery(t *testing.T) {
	h := NewCompanyHandler(testIndex(), edgar.NewClient(), nil)

	rec := httptest.NewRecorder()
	h.SearchHandler(rec, httptest.NewRequest("GET", "/api/companies/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.SearchHandler(rec, httptest.NewRequest("POST", "/api/companies/search?q=apple", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCompanyGetHandlerResolvesTickerAndCIK(t *testing.T) {
	h := NewCompanyHandler(testIndex(), edgar.NewClient(), nil)

	// By ticker, any case.
	rec := httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest("GET", "/api/companies/aapl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Apple Inc.", body["name"])

	// By bare CIK without zero padding.
	rec = httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest("GET", "/api/companies/789019", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Microsoft Corporation", body["name"])

	rec = httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest("GET", "/api/companies/UNKNOWN", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanyRefreshHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}}`)
	}))
	defer srv.Close()

	idx := edgar.NewCompanyIndex(nil)
	client := edgar.NewClient(edgar.WithTickersURL(srv.URL), edgar.WithRateLimit(1000))
	h := NewCompanyHandler(idx, client, nil)

	rec := httptest.NewRecorder()
	h.RefreshHandler(rec, httptest.NewRequest("POST", "/api/companies/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, idx.Size())
}

type stubCache struct {
	stats      interfaces.CacheStats
	cleared    bool
	clearedCIK string
}

func (c *stubCache) GetFilings(cik string, lookbackYears int) ([]models.Filing, bool) {
	return nil, false
}
func (c *stubCache) PutFilings(cik string, lookbackYears int, filings []models.Filing) error {
	return nil
}
func (c *stubCache) GetContent(cik, accessionNumber string) (string, bool) { return "", false }
func (c *stubCache) PutContent(cik, accessionNumber, content string) error {
	return nil
}
func (c *stubCache) Stats() interfaces.CacheStats { return c.stats }
func (c *stubCache) ClearCompany(cik string) error {
	c.clearedCIK = cik
	return nil
}
func (c *stubCache) Clear() error {
	c.cleared = true
	return nil
}

func TestCacheHandlers(t *testing.T) {
	cache := &stubCache{stats: interfaces.CacheStats{Entries: 3, Hits: 10, Misses: 2}}
	h := NewCacheHandler(cache, nil)

	rec := httptest.NewRecorder()
	h.StatsHandler(rec, httptest.NewRequest("GET", "/api/cache/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["entries"])
	assert.Equal(t, float64(10), body["hits"])

	rec = httptest.NewRecorder()
	h.ClearHandler(rec, httptest.NewRequest("POST", "/api/cache/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cache.cleared)

	rec = httptest.NewRecorder()
	h.ClearHandler(rec, httptest.NewRequest("POST", "/api/cache/clear?cik=320193", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0000320193", cache.clearedCIK)

	rec = httptest.NewRecorder()
	h.ClearHandler(rec, httptest.NewRequest("POST", "/api/cache/clear?cik=AAPL", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ClearHandler(rec, httptest.NewRequest("GET", "/api/cache/clear", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
