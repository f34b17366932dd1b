package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/cache"
	"github.com/civicsignal/parliament-mcp/internal/config"
	"github.com/civicsignal/parliament-mcp/internal/parliament"
)

// Service runs topic research across the parliamentary sources. Results
// are written to the durable store under a canonical request key so that
// equivalent requests are answered without upstream work.
type Service struct {
	cfg    *config.Config
	source parliament.DataSource
	store  cache.Store
}

// NewService wires the research engine over a parliamentary data source.
func NewService(cfg *config.Config, source parliament.DataSource, store cache.Store) *Service {
	return &Service{cfg: cfg, source: source, store: store}
}

// outcome carries one collector's data together with its advisory notes.
type outcome[T any] struct {
	data       T
	advisories []string
}

// Run executes a research request. The five collectors run concurrently;
// advisory merge order is fixed regardless of completion order.
func (s *Service) Run(ctx context.Context, request Request) (*Response, error) {
	topic := strings.TrimSpace(request.Topic)
	if topic == "" {
		return nil, apperr.BadRequest("topic must not be empty")
	}

	key := buildCacheKey(request)
	cached, ok, err := cache.Read[Response](s.store, key, s.cfg.TTLFor("research"))
	if err != nil {
		return nil, err
	}
	if ok {
		cached.Cached = true
		return &cached, nil
	}

	billKeywords := ensureKeywords(topic, request.BillKeywords)
	debateKeywords := ensureKeywords(topic, request.DebateKeywords)
	limit := coerceLimit(request.Limit)

	var (
		bills       outcome[[]BillSummary]
		votes       outcome[[]VoteSummary]
		legislation outcome[[]LegislationSummary]
		debates     outcome[[]DebateSummary]
		state       outcome[*StateOfParties]
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); bills = s.collectBills(ctx, billKeywords, limit) }()
	go func() { defer wg.Done(); votes = s.collectVotes(ctx, billKeywords, limit) }()
	go func() { defer wg.Done(); legislation = s.collectLegislation(ctx, billKeywords, limit) }()
	go func() { defer wg.Done(); debates = s.collectDebates(ctx, debateKeywords, limit) }()
	go func() { defer wg.Done(); state = s.collectStateOfParties(ctx, request.IncludeStateOfParties) }()
	wg.Wait()

	advisories := make([]string, 0,
		len(bills.advisories)+len(votes.advisories)+len(legislation.advisories)+
			len(debates.advisories)+len(state.advisories))
	advisories = append(advisories, bills.advisories...)
	advisories = append(advisories, votes.advisories...)
	advisories = append(advisories, legislation.advisories...)
	advisories = append(advisories, debates.advisories...)
	advisories = append(advisories, state.advisories...)
	advisories = dedupeAdvisories(advisories)

	response := &Response{
		Bills:          orEmpty(bills.data),
		Debates:        orEmpty(debates.data),
		Legislation:    orEmpty(legislation.data),
		Votes:          orEmpty(votes.data),
		MPSpeeches:     []SpeechSummary{},
		StateOfParties: state.data,
		Advisories:     advisories,
		Cached:         false,
	}
	response.Summary = composeSummary(topic, response, advisories)

	if err := cache.Write(s.store, key, response); err != nil {
		return nil, err
	}
	return response, nil
}

// collectBills tries each keyword's expanded terms against the bills API,
// first with relevance filtering and then leniently. The first term that
// parses into at least one bill wins.
func (s *Service) collectBills(ctx context.Context, keywords []string, limit int) outcome[[]BillSummary] {
	var advisories []string

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		for _, term := range expandSearchTerms(keyword) {
			for _, variant := range relevanceVariants(s.cfg.Research.RelevanceThreshold) {
				raw, err := s.source.FetchBills(ctx, parliament.BillsArgs{
					SearchTerm:         term,
					EnableCache:        ptrBool(true),
					ApplyRelevance:     ptrBool(variant.applyRelevance),
					RelevanceThreshold: ptrFloat(variant.threshold),
				})
				if err != nil {
					log.Printf("research: bills lookup for %q failed: %v", term, err)
					advisories = append(advisories,
						fmt.Sprintf("Bills lookup for %q failed: %v", term, err))
					continue
				}

				parsed := parseBillResults(raw, limit)
				if len(parsed) == 0 {
					continue
				}
				if variant.broadened || term != keyword {
					advisories = append(advisories, fmt.Sprintf(
						"Bills search broadened to %q after the initial query returned no results.", term))
				}
				return outcome[[]BillSummary]{data: parsed, advisories: advisories}
			}
		}

		advisories = append(advisories, fmt.Sprintf(
			"No bills matched the keyword %q; try alternative or broader keywords.", keyword))
	}

	if len(advisories) == 0 {
		advisories = append(advisories, "Bills service returned no data for this topic.")
	}
	return outcome[[]BillSummary]{advisories: advisories}
}

func (s *Service) collectVotes(ctx context.Context, keywords []string, limit int) outcome[[]VoteSummary] {
	var advisories []string

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		for _, term := range expandSearchTerms(keyword) {
			raw, err := s.source.FetchCoreDataset(ctx, parliament.CoreDatasetArgs{
				Dataset:            "commonsdivisions",
				SearchTerm:         term,
				Page:               ptrInt(0),
				PerPage:            ptrInt(limit),
				EnableCache:        ptrBool(true),
				FuzzyMatch:         ptrBool(true),
				ApplyRelevance:     ptrBool(true),
				RelevanceThreshold: ptrFloat(s.cfg.Research.RelevanceThreshold),
			})
			if err != nil {
				log.Printf("research: division lookup for %q failed: %v", term, err)
				advisories = append(advisories,
					fmt.Sprintf("Division lookup for %q failed: %v", term, err))
				continue
			}

			parsed := parseVoteResults(raw, limit)
			if len(parsed) == 0 {
				continue
			}
			if term != keyword {
				advisories = append(advisories, fmt.Sprintf(
					"Division search broadened to %q after the initial keyword returned no results.", term))
			}
			return outcome[[]VoteSummary]{data: parsed, advisories: advisories}
		}

		advisories = append(advisories, fmt.Sprintf(
			"No Commons divisions matched the keyword %q; consider broader vote terms.", keyword))
	}

	if len(advisories) == 0 {
		advisories = append(advisories, "No Commons divisions were retrieved for this topic.")
	}
	return outcome[[]VoteSummary]{advisories: advisories}
}

func (s *Service) collectLegislation(ctx context.Context, keywords []string, limit int) outcome[[]LegislationSummary] {
	var advisories []string

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		for _, term := range expandSearchTerms(keyword) {
			for _, variant := range relevanceVariants(s.cfg.Research.RelevanceThreshold) {
				raw, err := s.source.FetchLegislation(ctx, parliament.LegislationArgs{
					Title:              term,
					EnableCache:        ptrBool(true),
					ApplyRelevance:     ptrBool(variant.applyRelevance),
					RelevanceThreshold: ptrFloat(variant.threshold),
				})
				if err != nil {
					log.Printf("research: legislation lookup for %q failed: %v", term, err)
					advisories = append(advisories,
						fmt.Sprintf("Legislation lookup for %q failed: %v", term, err))
					continue
				}

				parsed := parseLegislationResults(raw, limit)
				if len(parsed) == 0 {
					continue
				}
				if variant.broadened || term != keyword {
					advisories = append(advisories, fmt.Sprintf(
						"Legislation search broadened to %q after the initial keyword returned no results.", term))
				}
				return outcome[[]LegislationSummary]{data: parsed, advisories: advisories}
			}
		}

		advisories = append(advisories, fmt.Sprintf(
			"No legislation matched the keyword %q; try alternate titles or verify the act year.", keyword))
	}

	if len(advisories) == 0 {
		advisories = append(advisories, "Legislation search produced no matches for this topic.")
	}
	return outcome[[]LegislationSummary]{advisories: advisories}
}

func (s *Service) collectDebates(ctx context.Context, keywords []string, limit int) outcome[[]DebateSummary] {
	var advisories []string

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		for _, term := range expandSearchTerms(keyword) {
			raw, err := s.source.FetchCoreDataset(ctx, parliament.CoreDatasetArgs{
				Dataset:            "commonsdebates",
				SearchTerm:         term,
				Page:               ptrInt(0),
				PerPage:            ptrInt(limit),
				EnableCache:        ptrBool(true),
				FuzzyMatch:         ptrBool(true),
				ApplyRelevance:     ptrBool(true),
				RelevanceThreshold: ptrFloat(s.cfg.Research.RelevanceThreshold),
			})
			if err != nil {
				log.Printf("research: debate lookup for %q failed: %v", term, err)
				advisories = append(advisories,
					fmt.Sprintf("Debate lookup for %q failed: %v", term, err))
				continue
			}

			parsed := parseDebateResults(raw, limit)
			if len(parsed) == 0 {
				continue
			}
			if term != keyword {
				advisories = append(advisories, fmt.Sprintf(
					"Debate search broadened to %q after the initial keyword returned no results.", term))
			}
			return outcome[[]DebateSummary]{data: parsed, advisories: advisories}
		}

		advisories = append(advisories, fmt.Sprintf(
			"No Commons debates matched the keyword %q; try broader debate topics or different dates.", keyword))
	}

	if len(advisories) == 0 {
		advisories = append(advisories, "Debate search returned no results for this topic.")
	}
	return outcome[[]DebateSummary]{advisories: advisories}
}

// collectStateOfParties does a single lookup with no keyword loop; a
// failure becomes an advisory and the field stays absent.
func (s *Service) collectStateOfParties(ctx context.Context, include bool) outcome[*StateOfParties] {
	if !include {
		return outcome[*StateOfParties]{}
	}

	raw, err := s.source.FetchCoreDataset(ctx, parliament.CoreDatasetArgs{
		Dataset:            "stateofparties",
		PerPage:            ptrInt(defaultResultLimit),
		EnableCache:        ptrBool(true),
		FuzzyMatch:         ptrBool(false),
		ApplyRelevance:     ptrBool(false),
		RelevanceThreshold: ptrFloat(s.cfg.Research.RelevanceThreshold),
	})
	if err != nil {
		log.Printf("research: state of parties lookup failed: %v", err)
		return outcome[*StateOfParties]{advisories: []string{
			"State of parties data is temporarily unavailable; seat counts were omitted.",
		}}
	}
	return outcome[*StateOfParties]{data: parseStateOfParties(raw)}
}

type relevanceVariant struct {
	applyRelevance bool
	threshold      float64
	broadened      bool
}

// relevanceVariants orders attempts strict-then-lenient for the two
// categories that support relevance filtering.
func relevanceVariants(threshold float64) [2]relevanceVariant {
	return [2]relevanceVariant{
		{applyRelevance: true, threshold: threshold, broadened: false},
		{applyRelevance: false, threshold: 0, broadened: true},
	}
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func ptrBool(v bool) *bool        { return &v }
func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
