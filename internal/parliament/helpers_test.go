package parliament

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "SW1A1AA", NormalizePostcode("sw1a 1aa"))
	assert.Equal(t, "SW1A1AA", NormalizePostcode("  SW1A\t1AA\n"))
	assert.Equal(t, "", NormalizePostcode("   "))
}

func TestClampLimit(t *testing.T) {
	five := 5
	zero := 0
	big := 500
	assert.Equal(t, 10, clampLimit(nil, 10, 1, 50))
	assert.Equal(t, 10, clampLimit(&zero, 10, 1, 50))
	assert.Equal(t, 5, clampLimit(&five, 10, 1, 50))
	assert.Equal(t, 50, clampLimit(&big, 10, 1, 50))
}

func TestFilterVotes(t *testing.T) {
	entries := []VoteRecord{
		{DivisionID: "div_0", Title: "Climate Bill Second Reading", Date: "2024-01-10"},
		{DivisionID: "div_1", Title: "Finance Bill", Date: "2024-02-20"},
		{DivisionID: "div_2", Title: "Climate Adaptation", Date: "2024-03-05T10:00:00Z"},
		{DivisionID: "div_3", Title: "Undated Motion", Date: ""},
	}

	t.Run("bill filter matches id or title substring", func(t *testing.T) {
		got := filterVotes(entries, "", "", "climate", 10)
		assert.Len(t, got, 2)

		got = filterVotes(entries, "", "", "DIV_1", 10)
		assert.Len(t, got, 1)
		assert.Equal(t, "Finance Bill", got[0].Title)
	})

	t.Run("date range keeps undated entries", func(t *testing.T) {
		got := filterVotes(entries, "2024-02-01", "2024-02-28", "", 10)
		titles := []string{}
		for _, e := range got {
			titles = append(titles, e.Title)
		}
		assert.ElementsMatch(t, []string{"Finance Bill", "Undated Motion"}, titles)
	})

	t.Run("limit caps output", func(t *testing.T) {
		got := filterVotes(entries, "", "", "", 2)
		assert.Len(t, got, 2)
	})
}

func TestParseLegislationFeed(t *testing.T) {
	feed := []byte(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:openSearch="http://a9.com/-/spec/opensearch/1.1/"
      xmlns:ukm="http://www.legislation.gov.uk/namespaces/metadata">
  <openSearch:totalResults>42</openSearch:totalResults>
  <entry>
    <id>http://www.legislation.gov.uk/id/ukpga/2008/27</id>
    <title>Climate Change Act 2008</title>
    <summary>An Act to set a target for the year 2050.</summary>
    <ukm:Metadata>
      <ukm:Year Value="2008"/>
      <ukm:DocumentMainType Value="UnitedKingdomPublicGeneralAct"/>
    </ukm:Metadata>
  </entry>
  <entry>
    <id>http://www.legislation.gov.uk/id/uksi/2021/1"</id>
    <title></title>
  </entry>
</feed>`)

	parsed, err := parseLegislationFeed(feed)
	assert.NoError(t, err)
	assert.Len(t, parsed.Items, 2)

	first := parsed.Items[0]
	assert.Equal(t, "Climate Change Act 2008", first.Title)
	assert.Equal(t, "2008", first.Year)
	assert.Equal(t, "UnitedKingdomPublicGeneralAct", first.Type)
	assert.Equal(t, "http://www.legislation.gov.uk/id/ukpga/2008/27", first.URI)

	// Entries without a title fall back to a placeholder.
	assert.Equal(t, "Legislation", parsed.Items[1].Title)

	if assert.NotNil(t, parsed.TotalResults) {
		assert.Equal(t, 42, *parsed.TotalResults)
	}
}

func TestParseLegislationFeedRejectsGarbage(t *testing.T) {
	_, err := parseLegislationFeed([]byte("<html>not a feed"))
	assert.Error(t, err)
}
