package edgar

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func testIndexCompanies() []models.CompanyInfo {
	return []models.CompanyInfo{
		{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		{CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corporation"},
		{CIK: "0001018724", Ticker: "AMZN", Name: "Amazon.com, Inc."},
		{CIK: "0000012345", Name: "Amazon Logistics Trust"},
	}
}

func TestIndexLookups(t *testing.T) {
	idx := NewCompanyIndex(nil)
	idx.Replace(testIndexCompanies())

	require.Equal(t, 4, idx.Size())

	info, ok := idx.Lookup("0000320193")
	require.True(t, ok)
	assert.Equal(t, "Apple Inc.", info.Name)

	_, ok = idx.Lookup("0009999999")
	assert.False(t, ok)

	info, ok = idx.LookupTicker("msft")
	require.True(t, ok, "ticker lookup must be case-insensitive")
	assert.Equal(t, "Microsoft Corporation", info.Name)

	// A company without a ticker is reachable by CIK only.
	_, ok = idx.LookupTicker("")
	assert.False(t, ok)
}

func TestIndexSearch(t *testing.T) {
	idx := NewCompanyIndex(nil)
	idx.Replace(testIndexCompanies())

	// An exact ticker match ranks first.
	matches := idx.Search("AMZN", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Amazon.com, Inc.", matches[0].Name)

	matches = idx.Search("amazon", 10)
	require.Len(t, matches, 2)

	matches = idx.Search("amazon", 1)
	assert.Len(t, matches, 1)

	assert.Empty(t, idx.Search("   ", 10))
	assert.Empty(t, idx.Search("zzzz-no-match", 10))
}

func TestIndexReplaceSwapsContents(t *testing.T) {
	idx := NewCompanyIndex(nil)
	idx.Replace(testIndexCompanies())
	require.Equal(t, 4, idx.Size())

	idx.Replace([]models.CompanyInfo{{CIK: "0000000001", Ticker: "ONE", Name: "One Corp"}})
	assert.Equal(t, 1, idx.Size())

	_, ok := idx.LookupTicker("AAPL")
	assert.False(t, ok, "old entries must be gone after Replace")
}

func TestIndexAllSortedByName(t *testing.T) {
	idx := NewCompanyIndex(nil)
	idx.Replace(testIndexCompanies())

	all := idx.All()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
}

func TestIndexLoadFromClient(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}}`)
	})

	idx := NewCompanyIndex(nil)
	require.NoError(t, idx.Load(context.Background(), client))
	assert.Equal(t, 1, idx.Size())

	info, ok := idx.LookupTicker("AAPL")
	require.True(t, ok)
	assert.Equal(t, "0000320193", info.CIK)
}
