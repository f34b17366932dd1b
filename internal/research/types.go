// Package research aggregates parliamentary sources for a single topic.
// It fans out over the upstream categories concurrently, broadens search
// terms when a keyword returns nothing, and caches the assembled result.
package research

// Request describes one research run.
type Request struct {
	Topic                 string   `json:"topic"`
	BillKeywords          []string `json:"billKeywords,omitempty"`
	DebateKeywords        []string `json:"debateKeywords,omitempty"`
	MPID                  *int     `json:"mpId,omitempty"`
	IncludeStateOfParties bool     `json:"includeStateOfParties,omitempty"`
	Limit                 *int     `json:"limit,omitempty"`
}

// Response is the aggregate research result. Cached is always stored as
// false; it flips to true only when a run is served from the cache.
type Response struct {
	Summary        string               `json:"summary"`
	Bills          []BillSummary        `json:"bills"`
	Debates        []DebateSummary      `json:"debates"`
	Legislation    []LegislationSummary `json:"legislation"`
	Votes          []VoteSummary        `json:"votes"`
	MPSpeeches     []SpeechSummary      `json:"mpSpeeches"`
	StateOfParties *StateOfParties      `json:"stateOfParties,omitempty"`
	Advisories     []string             `json:"advisories"`
	Cached         bool                 `json:"cached"`
}

// BillSummary is one bill in the aggregate.
type BillSummary struct {
	Title      string `json:"title"`
	Stage      string `json:"stage,omitempty"`
	LastUpdate string `json:"lastUpdate,omitempty"`
	Link       string `json:"link,omitempty"`
}

// DebateSummary is one Commons debate in the aggregate.
type DebateSummary struct {
	Title     string `json:"title"`
	House     string `json:"house,omitempty"`
	Date      string `json:"date,omitempty"`
	Link      string `json:"link,omitempty"`
	Highlight string `json:"highlight,omitempty"`
}

// LegislationSummary is one piece of legislation in the aggregate.
type LegislationSummary struct {
	Title string `json:"title"`
	Year  string `json:"year,omitempty"`
	Type  string `json:"type,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// VoteSummary is one Commons division in the aggregate.
type VoteSummary struct {
	DivisionNumber string `json:"divisionNumber,omitempty"`
	Title          string `json:"title"`
	Date           string `json:"date,omitempty"`
	Ayes           *int64 `json:"ayes,omitempty"`
	Noes           *int64 `json:"noes,omitempty"`
	Result         string `json:"result,omitempty"`
	Link           string `json:"link,omitempty"`
}

// SpeechSummary is reserved for per-member speech extracts. No upstream
// currently feeds it, so the slice is always present but empty.
type SpeechSummary struct {
	MemberName string `json:"memberName,omitempty"`
	Date       string `json:"date,omitempty"`
	Excerpt    string `json:"excerpt,omitempty"`
	Source     string `json:"source,omitempty"`
}

// StateOfParties is the optional party-balance snapshot.
type StateOfParties struct {
	TotalSeats  *int64           `json:"totalSeats,omitempty"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
	Parties     []PartyBreakdown `json:"parties"`
}

// PartyBreakdown is one party's seat count.
type PartyBreakdown struct {
	Name  string `json:"name"`
	Seats *int64 `json:"seats,omitempty"`
}
