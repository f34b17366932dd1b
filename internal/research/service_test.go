package research

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsignal/parliament-mcp/internal/cache"
	"github.com/civicsignal/parliament-mcp/internal/config"
	"github.com/civicsignal/parliament-mcp/internal/parliament"
)

// fakeSource records every upstream call and answers from per-category
// handlers. Handlers default to an empty payload.
type fakeSource struct {
	mu               sync.Mutex
	billCalls        []parliament.BillsArgs
	datasetCalls     []parliament.CoreDatasetArgs
	legislationCalls []parliament.LegislationArgs

	bills       func(parliament.BillsArgs) (json.RawMessage, error)
	dataset     func(parliament.CoreDatasetArgs) (json.RawMessage, error)
	legislation func(parliament.LegislationArgs) (json.RawMessage, error)
}

func (f *fakeSource) FetchBills(_ context.Context, args parliament.BillsArgs) (json.RawMessage, error) {
	f.mu.Lock()
	f.billCalls = append(f.billCalls, args)
	f.mu.Unlock()
	if f.bills != nil {
		return f.bills(args)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeSource) FetchCoreDataset(_ context.Context, args parliament.CoreDatasetArgs) (json.RawMessage, error) {
	f.mu.Lock()
	f.datasetCalls = append(f.datasetCalls, args)
	f.mu.Unlock()
	if f.dataset != nil {
		return f.dataset(args)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeSource) FetchLegislation(_ context.Context, args parliament.LegislationArgs) (json.RawMessage, error) {
	f.mu.Lock()
	f.legislationCalls = append(f.legislationCalls, args)
	f.mu.Unlock()
	if f.legislation != nil {
		return f.legislation(args)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.billCalls) + len(f.datasetCalls) + len(f.legislationCalls)
}

func newTestService(t *testing.T, source parliament.DataSource) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Cache.TTL.Research = 1800
	cfg.Research.RelevanceThreshold = 0.5

	store, err := cache.OpenBolt(filepath.Join(t.TempDir(), "research.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewService(cfg, source, store)
}

func TestRunRejectsEmptyTopic(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	_, err := svc.Run(context.Background(), Request{Topic: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic must not be empty")
}

func TestRunCachedFlagRoundTrip(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source)
	request := Request{Topic: "fisheries"}

	first, err := svc.Run(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	callsAfterFirst := source.totalCalls()
	require.Greater(t, callsAfterFirst, 0)

	second, err := svc.Run(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, callsAfterFirst, source.totalCalls(), "cache hit must do no upstream work")
}

func TestRunBroadensBillSearch(t *testing.T) {
	source := &fakeSource{
		bills: func(args parliament.BillsArgs) (json.RawMessage, error) {
			if args.SearchTerm == "climate" {
				return json.RawMessage(`{"items":[{"shortTitle":"Climate Bill","billId":3001,
					"billStage":{"description":"Second reading"}}]}`), nil
			}
			return json.RawMessage(`{}`), nil
		},
	}
	svc := newTestService(t, source)

	response, err := svc.Run(context.Background(), Request{Topic: "climate change"})
	require.NoError(t, err)

	require.Len(t, response.Bills, 1)
	assert.Equal(t, "Climate Bill", response.Bills[0].Title)
	assert.Equal(t, "Second reading", response.Bills[0].Stage)
	assert.Equal(t, "https://bills.parliament.uk/bills/3001", response.Bills[0].Link)

	broadened := `Bills search broadened to "climate" after the initial query returned no results.`
	count := 0
	for _, note := range response.Advisories {
		if note == broadened {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, response.Summary, "Priority bill: Climate Bill (current stage: Second reading)")
}

func TestRunLimitCoercion(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source)

	zero := 0
	_, err := svc.Run(context.Background(), Request{Topic: "housing", Limit: &zero})
	require.NoError(t, err)

	fifty := 50
	_, err = svc.Run(context.Background(), Request{Topic: "transport", Limit: &fifty})
	require.NoError(t, err)

	source.mu.Lock()
	defer source.mu.Unlock()
	for _, call := range source.datasetCalls {
		if call.Dataset != "commonsdivisions" && call.Dataset != "commonsdebates" {
			continue
		}
		require.NotNil(t, call.PerPage)
		assert.Contains(t, []int{5, 10}, *call.PerPage)
	}
}

func TestRunAdvisoriesDedupedAndCapped(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source)

	response, err := svc.Run(context.Background(), Request{
		Topic:                 "obscure topic",
		BillKeywords:          []string{"alpha", "beta", "gamma"},
		DebateKeywords:        []string{"delta", "epsilon"},
		IncludeStateOfParties: false,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(response.Advisories), 4)
	seen := map[string]bool{}
	for _, note := range response.Advisories {
		assert.False(t, seen[note], "advisory repeated: %s", note)
		seen[note] = true
	}
	assert.Contains(t, response.Summary, "No authoritative parliamentary sources were retrieved")
}

func TestRunStateOfParties(t *testing.T) {
	source := &fakeSource{
		dataset: func(args parliament.CoreDatasetArgs) (json.RawMessage, error) {
			if args.Dataset == "stateofparties" {
				return json.RawMessage(`{"items":[
					{"party":"Labour","seats":411},
					{"party":"Conservative","seats":121}
				],"totalSeats":650}`), nil
			}
			return json.RawMessage(`{}`), nil
		},
	}
	svc := newTestService(t, source)

	response, err := svc.Run(context.Background(), Request{
		Topic:                 "house balance",
		IncludeStateOfParties: true,
	})
	require.NoError(t, err)

	require.NotNil(t, response.StateOfParties)
	require.Len(t, response.StateOfParties.Parties, 2)
	require.NotNil(t, response.StateOfParties.TotalSeats)
	assert.Equal(t, int64(650), *response.StateOfParties.TotalSeats)
	assert.Contains(t, response.Summary, "House balance: Labour holding 411 seats")
}

func TestRunStateOfPartiesUnavailable(t *testing.T) {
	// The other collectors return data so their no-match advisories do not
	// crowd the state-of-parties note out of the four-entry cap.
	source := &fakeSource{
		bills: func(parliament.BillsArgs) (json.RawMessage, error) {
			return json.RawMessage(`{"items":[{"shortTitle":"Housing Bill"}]}`), nil
		},
		legislation: func(parliament.LegislationArgs) (json.RawMessage, error) {
			return json.RawMessage(`{"items":[{"title":"Housing Act"}]}`), nil
		},
		dataset: func(args parliament.CoreDatasetArgs) (json.RawMessage, error) {
			if args.Dataset == "stateofparties" {
				return nil, assert.AnError
			}
			return json.RawMessage(`{"items":[{"title":"Housing Division"}]}`), nil
		},
	}
	svc := newTestService(t, source)

	response, err := svc.Run(context.Background(), Request{
		Topic:                 "house balance",
		IncludeStateOfParties: true,
	})
	require.NoError(t, err)

	assert.Nil(t, response.StateOfParties)
	assert.Contains(t, response.Advisories,
		"State of parties data is temporarily unavailable; seat counts were omitted.")
}

func TestCacheKeyCanonicalization(t *testing.T) {
	mp := 172
	limit := 7
	a := buildCacheKey(Request{
		Topic:          "  Climate Change ",
		BillKeywords:   []string{"Net Zero", "emissions"},
		DebateKeywords: []string{"COP"},
		MPID:           &mp,
		Limit:          &limit,
	})
	b := buildCacheKey(Request{
		Topic:          "climate change",
		BillKeywords:   []string{"emissions", "net zero"},
		DebateKeywords: []string{"cop"},
		MPID:           &mp,
		Limit:          &limit,
	})
	assert.Equal(t, a, b)
	assert.Equal(t,
		"topic:climate change|bills:emissions,net zero|debates:cop|mp:172|state:false|limit:7", a)

	assert.Equal(t,
		"topic:housing|bills:|debates:|mp:none|state:false|limit:5",
		buildCacheKey(Request{Topic: "housing"}))
}

func TestExpandSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"climate change", "climate", "change"},
		expandSearchTerms("Climate Change"))
	assert.Equal(t, []string{"nhs funding crisis", "nhs", "crisis"},
		expandSearchTerms("NHS funding crisis"))
	// Tokens under 3 characters are dropped.
	assert.Equal(t, []string{"eu withdrawal"}, expandSearchTerms("EU withdrawal")[:1])
	assert.Empty(t, expandSearchTerms("  "))
}

func TestEnsureKeywords(t *testing.T) {
	assert.Equal(t, []string{"climate", "net zero"},
		ensureKeywords("climate", []string{" Net Zero "}))
	// Topic already present stays in place.
	assert.Equal(t, []string{"net zero", "climate"},
		ensureKeywords("Climate", []string{"net zero", "CLIMATE"}))
}
