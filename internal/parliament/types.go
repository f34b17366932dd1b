// Package parliament implements the upstream clients behind every direct
// lookup tool: the versioned bills API, the legacy Linked Data API, the
// Members API, legislation.gov.uk Atom feeds, and postcodes.io.
package parliament

import (
	"context"
	"encoding/json"
)

// CoreDatasetArgs selects a dataset on the legacy Linked Data API, or on
// the Members API for the member datasets.
type CoreDatasetArgs struct {
	Dataset            string   `json:"dataset"`
	SearchTerm         string   `json:"searchTerm,omitempty"`
	Page               *int     `json:"page,omitempty"`
	PerPage            *int     `json:"perPage,omitempty"`
	EnableCache        *bool    `json:"enableCache,omitempty"`
	FuzzyMatch         *bool    `json:"fuzzyMatch,omitempty"`
	ApplyRelevance     *bool    `json:"applyRelevance,omitempty"`
	RelevanceThreshold *float64 `json:"relevanceThreshold,omitempty"`
}

// BillsArgs queries the versioned bills API.
type BillsArgs struct {
	SearchTerm         string   `json:"searchTerm,omitempty"`
	House              string   `json:"house,omitempty"`
	Session            string   `json:"session,omitempty"`
	ParliamentNumber   *int     `json:"parliamentNumber,omitempty"`
	EnableCache        *bool    `json:"enableCache,omitempty"`
	ApplyRelevance     *bool    `json:"applyRelevance,omitempty"`
	RelevanceThreshold *float64 `json:"relevanceThreshold,omitempty"`
}

// LegislationArgs queries the legislation.gov.uk Atom feed.
type LegislationArgs struct {
	Title              string   `json:"title,omitempty"`
	Year               *int     `json:"year,omitempty"`
	Type               string   `json:"type,omitempty"`
	EnableCache        *bool    `json:"enableCache,omitempty"`
	ApplyRelevance     *bool    `json:"applyRelevance,omitempty"`
	RelevanceThreshold *float64 `json:"relevanceThreshold,omitempty"`
}

// MPActivityArgs selects recent activity for one MP.
type MPActivityArgs struct {
	MPID        int   `json:"mpId"`
	Limit       *int  `json:"limit,omitempty"`
	EnableCache *bool `json:"enableCache,omitempty"`
}

// MPVotingRecordArgs selects an MP's voting record with optional filters.
type MPVotingRecordArgs struct {
	MPID        int    `json:"mpId"`
	FromDate    string `json:"fromDate,omitempty"`
	ToDate      string `json:"toDate,omitempty"`
	BillID      string `json:"billId,omitempty"`
	Limit       *int   `json:"limit,omitempty"`
	EnableCache *bool  `json:"enableCache,omitempty"`
}

// ConstituencyArgs resolves a postcode to its Westminster constituency.
type ConstituencyArgs struct {
	Postcode    string `json:"postcode"`
	EnableCache *bool  `json:"enableCache,omitempty"`
}

// UKLawArgs searches the UK legislation corpus.
type UKLawArgs struct {
	Query           string `json:"query"`
	LegislationType string `json:"legislationType,omitempty"`
	Limit           *int   `json:"limit,omitempty"`
	EnableCache     *bool  `json:"enableCache,omitempty"`
}

// ActivityEntry is one item of synthesised MP activity.
type ActivityEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	ActivityType string `json:"type"`
	URL          string `json:"url,omitempty"`
}

// VoteRecord is one division in an MP's voting record.
type VoteRecord struct {
	DivisionID string `json:"divisionId,omitempty"`
	Title      string `json:"title,omitempty"`
	Date       string `json:"date,omitempty"`
	Vote       string `json:"vote,omitempty"`
	Majority   string `json:"majority,omitempty"`
}

// ConstituencyLookup is the result of a postcode lookup, optionally
// enriched with the sitting MP.
type ConstituencyLookup struct {
	ConstituencyCode string `json:"constituencyCode,omitempty"`
	ConstituencyName string `json:"constituencyName,omitempty"`
	MPID             *int   `json:"mpId,omitempty"`
	MPName           string `json:"mpName,omitempty"`
}

// UKLawResult is one entry from a UK legislation search.
type UKLawResult struct {
	Title           string `json:"title"`
	Year            string `json:"year,omitempty"`
	LegislationType string `json:"legislationType"`
	IsInForce       bool   `json:"isInForce"`
	URL             string `json:"url"`
	Summary         string `json:"summary,omitempty"`
	LastUpdated     string `json:"lastUpdated,omitempty"`
}

// memberInfo is the subset of the Members API record used to synthesise
// activity entries.
type memberInfo struct {
	NameDisplayAs       string
	MembershipStartDate string
	Constituency        string
}

// mpSummary is the durable-cached MP-per-constituency record.
type mpSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DataSource is the upstream capability consumed by the research engine.
// *Client is the production implementation; tests substitute an in-memory
// fake.
type DataSource interface {
	FetchBills(ctx context.Context, args BillsArgs) (json.RawMessage, error)
	FetchCoreDataset(ctx context.Context, args CoreDatasetArgs) (json.RawMessage, error)
	FetchLegislation(ctx context.Context, args LegislationArgs) (json.RawMessage, error)
}
