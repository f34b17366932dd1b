package research

import (
	"fmt"
	"sort"
	"strings"
)

const (
	defaultResultLimit = 5
	maxResultLimit     = 10
)

// coerceLimit maps absent or non-positive limits to the default and caps
// the rest at the maximum.
func coerceLimit(limit *int) int {
	if limit == nil || *limit <= 0 {
		return defaultResultLimit
	}
	if *limit > maxResultLimit {
		return maxResultLimit
	}
	return *limit
}

// ensureKeywords lower-cases the explicit keywords and inserts the topic
// at the front when it is not already among them.
func ensureKeywords(topic string, explicit []string) []string {
	keywords := make([]string, 0, len(explicit)+1)
	for _, value := range explicit {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}

	topicValue := strings.ToLower(strings.TrimSpace(topic))
	if topicValue == "" {
		return keywords
	}
	for _, existing := range keywords {
		if existing == topicValue {
			return keywords
		}
	}
	return append([]string{topicValue}, keywords...)
}

// expandSearchTerms returns the candidate terms tried for one keyword:
// the keyword itself plus its first and last whitespace tokens, each at
// least 3 characters long, lower-cased and deduplicated.
func expandSearchTerms(keyword string) []string {
	trimmed := strings.TrimSpace(keyword)
	if trimmed == "" {
		return nil
	}

	var terms []string
	pushUnique := func(value string) {
		candidate := strings.ToLower(strings.TrimSpace(value))
		if len(candidate) < 3 {
			return
		}
		for _, existing := range terms {
			if existing == candidate {
				return
			}
		}
		terms = append(terms, candidate)
	}

	pushUnique(trimmed)
	parts := strings.Fields(trimmed)
	if len(parts) > 0 {
		pushUnique(parts[0])
		pushUnique(parts[len(parts)-1])
	}
	return terms
}

// buildCacheKey canonicalizes a request so that equivalent requests share
// one durable cache entry.
func buildCacheKey(request Request) string {
	canonical := func(values []string) string {
		out := make([]string, 0, len(values))
		for _, value := range values {
			if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		sort.Strings(out)
		return strings.Join(out, ",")
	}

	mp := "none"
	if request.MPID != nil {
		mp = fmt.Sprintf("%d", *request.MPID)
	}
	limit := defaultResultLimit
	if request.Limit != nil {
		limit = *request.Limit
	}

	return fmt.Sprintf("topic:%s|bills:%s|debates:%s|mp:%s|state:%t|limit:%d",
		strings.ToLower(strings.TrimSpace(request.Topic)),
		canonical(request.BillKeywords),
		canonical(request.DebateKeywords),
		mp,
		request.IncludeStateOfParties,
		limit)
}

// dedupeAdvisories removes exact duplicates keeping first occurrences,
// then caps the list at 4 entries.
func dedupeAdvisories(advisories []string) []string {
	if len(advisories) == 0 {
		return advisories
	}
	seen := make(map[string]struct{}, len(advisories))
	out := advisories[:0]
	for _, note := range advisories {
		if _, dup := seen[note]; dup {
			continue
		}
		seen[note] = struct{}{}
		out = append(out, note)
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

// composeSummary builds the human-readable digest from the first item of
// each category plus up to three advisory notes.
func composeSummary(topic string, response *Response, advisories []string) string {
	var segments []string

	if len(response.Bills) > 0 {
		bill := response.Bills[0]
		detail := bill.Title
		if bill.Stage != "" {
			detail += fmt.Sprintf(" (current stage: %s)", bill.Stage)
		}
		segments = append(segments, "Priority bill: "+detail)
	}

	if len(response.Legislation) > 0 {
		item := response.Legislation[0]
		detail := item.Title
		if item.Year != "" {
			detail += fmt.Sprintf(" (%s)", item.Year)
		}
		segments = append(segments, "Relevant legislation: "+detail)
	}

	if len(response.Votes) > 0 {
		vote := response.Votes[0]
		detail := vote.Title
		if vote.Result != "" {
			detail += fmt.Sprintf(" (%s)", vote.Result)
		}
		segments = append(segments, "Recent division: "+detail)
	}

	if len(response.Debates) > 0 {
		debate := response.Debates[0]
		detail := debate.Title
		if debate.Date != "" {
			detail += fmt.Sprintf(" (%s)", debate.Date)
		}
		segments = append(segments, "Debate highlight: "+detail)
	}

	if top, ok := topPartyBySeats(response.StateOfParties); ok {
		segments = append(segments, fmt.Sprintf(
			"House balance: %s holding %d seats", top.Name, *top.Seats))
	}

	if len(segments) == 0 {
		segments = append(segments,
			"No authoritative parliamentary sources were retrieved; consider broadening the topic keywords.")
	}

	for i, note := range advisories {
		if i >= 3 {
			break
		}
		segments = append(segments, "Note: "+note)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Key research findings on %q:", strings.TrimSpace(topic))
	for _, segment := range segments {
		b.WriteString("\n- ")
		b.WriteString(segment)
	}
	return b.String()
}

func topPartyBySeats(state *StateOfParties) (PartyBreakdown, bool) {
	if state == nil {
		return PartyBreakdown{}, false
	}
	var top PartyBreakdown
	found := false
	for _, party := range state.Parties {
		if party.Seats == nil {
			continue
		}
		if !found || *party.Seats > *top.Seats {
			top = party
			found = true
		}
	}
	return top, found
}
