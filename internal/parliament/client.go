package parliament

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/cache"
	"github.com/civicsignal/parliament-mcp/internal/config"
	"github.com/civicsignal/parliament-mcp/internal/fetch"
)

// Client talks to the Parliament data services. Raw upstream payloads go
// through the ephemeral cache keyed by request fingerprint; computed
// per-tool results go through the durable store.
type Client struct {
	cfg    *config.Config
	engine *fetch.Engine
	mem    *cache.Memory
	store  cache.Store

	now func() time.Time
}

// NewClient wires the upstream client with both cache tiers.
func NewClient(cfg *config.Config, engine *fetch.Engine, mem *cache.Memory, store cache.Store) *Client {
	return &Client{
		cfg:    cfg,
		engine: engine,
		mem:    mem,
		store:  store,
		now:    time.Now,
	}
}

// FetchCoreDataset serves the named dataset. The member datasets are
// backed by the modern Members API; everything else goes to the legacy
// Linked Data API.
func (c *Client) FetchCoreDataset(ctx context.Context, args CoreDatasetArgs) (json.RawMessage, error) {
	switch args.Dataset {
	case "members", "commonsmembers", "lordsmembers":
		return c.fetchMembersDataset(ctx, args)
	default:
		return c.fetchLegacyDataset(ctx, args)
	}
}

func (c *Client) fetchMembersDataset(ctx context.Context, args CoreDatasetArgs) (json.RawMessage, error) {
	take := 20
	if args.PerPage != nil {
		take = clampLimit(args.PerPage, 20, 1, 100)
	}
	skip := 0
	if args.Page != nil && *args.Page > 0 {
		skip = *args.Page * take
	}

	q := url.Values{}
	if term := sanitizeText(args.SearchTerm); term != "" {
		q.Set("name", term)
	}
	q.Set("take", strconv.Itoa(take))
	q.Set("skip", strconv.Itoa(skip))
	switch args.Dataset {
	case "commonsmembers":
		q.Set("house", "Commons")
	case "lordsmembers":
		q.Set("house", "Lords")
	}

	endpoint := c.cfg.Upstream.MembersAPI + "/api/Members/search?" + q.Encode()
	key := c.datasetCacheKey(endpoint, args)
	return c.cachedFetch(ctx, endpoint, key, boolOr(args.EnableCache, true), c.cfg.TTLFor("members"))
}

func (c *Client) fetchLegacyDataset(ctx context.Context, args CoreDatasetArgs) (json.RawMessage, error) {
	q := url.Values{}
	if term := sanitizeText(args.SearchTerm); term != "" {
		q.Set("_search", term)
	}
	if args.Page != nil {
		q.Set("_page", strconv.Itoa(*args.Page))
	}
	if args.PerPage != nil {
		q.Set("_pageSize", strconv.Itoa(*args.PerPage))
	}

	endpoint := fmt.Sprintf("%s/%s.json", c.cfg.Upstream.LDAAPI, args.Dataset)
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	key := c.datasetCacheKey(endpoint, args)
	return c.cachedFetch(ctx, endpoint, key, boolOr(args.EnableCache, true), c.cfg.TTLFor(args.Dataset))
}

// FetchBills searches the versioned bills API.
func (c *Client) FetchBills(ctx context.Context, args BillsArgs) (json.RawMessage, error) {
	house := sanitizeText(args.House)
	if house != "" {
		house = strings.ToLower(house)
		if house != "commons" && house != "lords" {
			return nil, apperr.BadRequest("invalid house value: %s", house)
		}
	}

	q := url.Values{}
	if term := sanitizeText(args.SearchTerm); term != "" {
		q.Set("searchTerm", term)
	}
	if house != "" {
		q.Set("house", house)
	}
	if session := sanitizeText(args.Session); session != "" {
		q.Set("session", session)
	}
	if args.ParliamentNumber != nil {
		q.Set("parliament", strconv.Itoa(*args.ParliamentNumber))
	}

	endpoint := c.cfg.Upstream.BillsAPI + "/api/v1/Bills"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	key := fmt.Sprintf("bills:%s:relevance:%t:threshold:%.3f",
		endpoint,
		boolOr(args.ApplyRelevance, false),
		floatOr(args.RelevanceThreshold, c.cfg.Research.RelevanceThreshold))
	return c.cachedFetch(ctx, endpoint, key, boolOr(args.EnableCache, true), c.cfg.TTLFor("bills"))
}

func (c *Client) datasetCacheKey(endpoint string, args CoreDatasetArgs) string {
	return fmt.Sprintf("core_dataset:%s:relevance:%t:threshold:%.3f:fuzzy:%t",
		endpoint,
		boolOr(args.ApplyRelevance, false),
		floatOr(args.RelevanceThreshold, c.cfg.Research.RelevanceThreshold),
		boolOr(args.FuzzyMatch, false))
}

// cachedFetch serves endpoint through the ephemeral cache. The cache holds
// raw JSON bytes keyed by the request fingerprint.
func (c *Client) cachedFetch(ctx context.Context, endpoint, key string, useCache bool, ttl time.Duration) (json.RawMessage, error) {
	if useCache {
		if hit, ok := c.mem.Get(key); ok {
			return json.RawMessage(hit), nil
		}
	}

	body, err := c.engine.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperr.Internal("response from %s is not valid JSON", endpoint)
	}

	if useCache {
		c.mem.Set(key, body, ttl)
	}
	return json.RawMessage(body), nil
}

// getJSON fetches endpoint and decodes into a generic value.
func (c *Client) getJSON(ctx context.Context, endpoint string) (any, error) {
	return fetch.JSON[any](ctx, c.engine, endpoint)
}
