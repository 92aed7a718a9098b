package relations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

var testCompanies = []models.CompanyInfo{
	{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
	{CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corp"},
	{CIK: "0001018724", Ticker: "AMZN", Name: "Amazon Com Inc"},
	{CIK: "0000050863", Ticker: "INTC", Name: "Intel Corp"},
	{CIK: "0000999999", Ticker: "SELF", Name: "Subject Industries Inc"},
}

func testConfig() common.RelationsConfig {
	return common.RelationsConfig{
		MaxFuzzyPhrases: 30,
		MinNameLength:   6,
		FuzzyThreshold:  0.62,
		Budget:          0,
	}
}

func newTestExtractor(opts ...ExtractorOption) *Extractor {
	return NewExtractor(testCompanies, testConfig(), opts...)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "apple", NormalizeName("Apple Inc."))
	assert.Equal(t, "apple", NormalizeName("APPLE, INC"))
	assert.Equal(t, "intel", NormalizeName("Intel Corporation"))
	assert.Equal(t, "amazon com", NormalizeName("Amazon Com Inc"))
	// A name that is nothing but a suffix keeps its last word.
	assert.Equal(t, "inc", NormalizeName("Inc"))
}

func TestExactNameMentionSkipsFuzzy(t *testing.T) {
	e := newTestExtractor()
	text := "We entered into a supply agreement with Apple Inc. during the year."

	mentions := e.DetectMentions(context.Background(), "0000999999", text)
	require.Len(t, mentions, 1)

	m := mentions[0]
	assert.Equal(t, "0000320193", m.TargetCIK)
	assert.Equal(t, models.MentionExactName, m.Method)
	assert.Equal(t, 0.99, m.Confidence)
}

func TestTickerMention(t *testing.T) {
	e := newTestExtractor()
	text := "MSFT is a significant customer of the company."

	mentions := e.DetectMentions(context.Background(), "0000999999", text)
	require.Len(t, mentions, 1)
	assert.Equal(t, "0000789019", mentions[0].TargetCIK)
	assert.Equal(t, models.MentionExactTicker, mentions[0].Method)
	assert.Equal(t, 0.98, mentions[0].Confidence)
}

func TestFuzzyMentionConfidenceBand(t *testing.T) {
	e := newTestExtractor()
	text := "Our products compete directly with those of Microsft Corporation worldwide."

	mentions := e.DetectMentions(context.Background(), "0000999999", text)
	require.Len(t, mentions, 1)

	m := mentions[0]
	assert.Equal(t, "0000789019", m.TargetCIK)
	assert.Equal(t, models.MentionFuzzy, m.Method)
	assert.GreaterOrEqual(t, m.Confidence, 0.80)
	assert.LessOrEqual(t, m.Confidence, 0.95)
}

func TestSelfMentionsExcluded(t *testing.T) {
	e := newTestExtractor()
	text := "Subject Industries Inc. is a customer of Intel Corp under a long-term contract."

	mentions := e.DetectMentions(context.Background(), "0000999999", text)
	require.Len(t, mentions, 1)
	assert.Equal(t, "0000050863", mentions[0].TargetCIK)
}

func TestFuzzyDeterminism(t *testing.T) {
	e := newTestExtractor()
	text := "We compete with Microsft Corporation. We also compete with Amazn Com Incorporated."

	first := e.DetectMentions(context.Background(), "0000999999", text)
	for i := 0; i < 3; i++ {
		again := e.DetectMentions(context.Background(), "0000999999", text)
		assert.Equal(t, first, again)
	}
}

func TestClassifyMention(t *testing.T) {
	cases := []struct {
		context string
		want    models.RelationshipType
		ok      bool
	}{
		{"We compete with Apple Inc", models.RelationCompetitor, true},
		{"Apple Inc is a significant customer", models.RelationCustomer, true},
		{"components sourced from Apple Inc", models.RelationSupplier, true},
		{"our joint venture with Apple Inc", models.RelationPartner, true},
		{"Apple Inc, our wholly owned subsidiary", models.RelationSubsidiary, true},
		{"our equity interest in Apple Inc", models.RelationInvestor, true},
		{"Apple Inc was mentioned in passing", "", false},
	}

	for _, tc := range cases {
		m := &models.Mention{Context: tc.context}
		got, ok := ClassifyMention(m)
		assert.Equal(t, tc.ok, ok, tc.context)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.context)
		}
	}
}

func TestFinancialRelationships(t *testing.T) {
	e := newTestExtractor()
	text := "Intel Corp accounted for approximately 12% of our net revenues. " +
		"In addition, 15% of our purchases were sourced from Acme Widgets Ltd."

	rels := e.FinancialRelationships("0000999999", text)
	require.Len(t, rels, 2)

	customer := rels[0]
	assert.Equal(t, models.RelationCustomer, customer.Type)
	assert.Equal(t, "0000050863", customer.TargetCIK)
	assert.InDelta(t, 0.12, customer.RevenueShare, 1e-9)

	supplier := rels[1]
	assert.Equal(t, models.RelationSupplier, supplier.Type)
	assert.Empty(t, supplier.TargetCIK, "unindexed counterparty keeps the name only")
	assert.Equal(t, "Acme Widgets Ltd", supplier.TargetName)
	assert.InDelta(t, 0.15, supplier.RevenueShare, 1e-9)
}

type stubProfileStorage struct {
	profiles []*models.CompanyProfile
}

func (s *stubProfileStorage) SaveProfile(*models.CompanyProfile) error { return nil }
func (s *stubProfileStorage) GetProfile(string) (*models.CompanyProfile, error) {
	return nil, interfaces.ErrProfileNotFound
}
func (s *stubProfileStorage) ListProfiles(*interfaces.ListOptions) ([]*models.CompanyProfile, error) {
	return s.profiles, nil
}
func (s *stubProfileStorage) DeleteProfile(string) error { return nil }
func (s *stubProfileStorage) CountProfiles() (int, error) {
	return len(s.profiles), nil
}

func TestInterlocks(t *testing.T) {
	storage := &stubProfileStorage{
		profiles: []*models.CompanyProfile{
			{
				CIK:  "0000320193",
				Info: models.CompanyInfo{CIK: "0000320193", Name: "Apple Inc.", Ticker: "AAPL"},
				People: []models.Person{
					{Name: "Jane A Doe"},
					{Name: "Someone Else"},
				},
			},
		},
	}
	e := newTestExtractor(WithProfileStorage(storage))

	rels := e.Interlocks(context.Background(), "0000999999", []models.Person{
		{Name: "Doe Jane A"}, // ownership-document name order
	})
	require.Len(t, rels, 1)

	rel := rels[0]
	assert.Equal(t, models.RelationPartner, rel.Type)
	assert.Equal(t, "0000320193", rel.TargetCIK)
	assert.Equal(t, []string{"Jane A Doe"}, rel.SharedOfficers)
}

func TestExtractDedupesAndBoundsConfidence(t *testing.T) {
	e := newTestExtractor()
	text := "We compete with Apple Inc. We continue to compete with Apple Inc in most markets. " +
		"Intel Corp accounted for approximately 20% of our net revenues."

	rels, err := e.Extract(context.Background(), "0000999999", text, nil)
	require.NoError(t, err)

	byTarget := make(map[string][]models.Relationship)
	for _, r := range rels {
		require.True(t, models.ValidRelationshipType(r.Type))
		require.GreaterOrEqual(t, r.Confidence, 0.0)
		require.LessOrEqual(t, r.Confidence, 1.0)
		byTarget[r.TargetCIK] = append(byTarget[r.TargetCIK], r)
	}

	require.Len(t, byTarget["0000320193"], 1, "repeated competitor mentions collapse to one relationship")
	assert.GreaterOrEqual(t, byTarget["0000320193"][0].MentionCount, 2)
}
