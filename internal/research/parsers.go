package research

import (
	"encoding/json"
	"fmt"

	"github.com/civicsignal/parliament-mcp/internal/jsonq"
)

// highlightLimit bounds debate highlights in the aggregate response.
const highlightLimit = 220

func decodePayload(raw json.RawMessage) any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

func parseBillResults(raw json.RawMessage, limit int) []BillSummary {
	var results []BillSummary
	for _, item := range jsonq.Array(decodePayload(raw), "items", "results", "bills") {
		if len(results) >= limit {
			break
		}

		title := jsonq.FirstString(item, "title", "shortTitle", "name")
		if title == "" {
			title = jsonq.FirstString(item, "billName", "officialTitle")
		}
		if title == "" {
			title = "Unknown bill"
		}

		stage := jsonq.FirstString(jsonq.Find(item, "billStage"), "description", "name")
		if stage == "" {
			stage = jsonq.FirstString(item, "stage", "currentStage")
		}

		link := ""
		if id, ok := jsonq.FirstInt(item, "billId"); ok {
			link = fmt.Sprintf("https://bills.parliament.uk/bills/%d", id)
		} else {
			link = jsonq.FirstString(item, "link", "uri", "url")
		}

		results = append(results, BillSummary{
			Title:      title,
			Stage:      stage,
			LastUpdate: jsonq.FirstString(item, "lastUpdate", "lastUpdated", "updated"),
			Link:       link,
		})
	}
	return results
}

func parseLegislationResults(raw json.RawMessage, limit int) []LegislationSummary {
	var results []LegislationSummary
	for _, item := range jsonq.Array(decodePayload(raw), "legislation", "results", "items") {
		if len(results) >= limit {
			break
		}

		title := jsonq.FirstString(item, "title", "name", "titleXml")
		if title == "" {
			title = "Legislation"
		}
		results = append(results, LegislationSummary{
			Title: title,
			Year:  jsonq.FirstString(item, "year", "Year"),
			Type:  jsonq.FirstString(item, "type", "Type", "legislationType"),
			URI:   jsonq.FirstString(item, "uri", "URI", "_about"),
		})
	}
	return results
}

func parseVoteResults(raw json.RawMessage, limit int) []VoteSummary {
	var results []VoteSummary
	for _, item := range jsonq.Array(decodePayload(raw), "items", "results", "votes") {
		if len(results) >= limit {
			break
		}

		title := jsonq.FirstString(item, "title", "Title", "motion")
		if title == "" {
			title = "Division"
		}
		results = append(results, VoteSummary{
			DivisionNumber: jsonq.FirstString(item, "divisionNumber", "DivisionNumber"),
			Title:          title,
			Date:           jsonq.FirstString(item, "date", "Date"),
			Ayes:           optionalInt(item, "ayes", "Ayes", "ayesCount"),
			Noes:           optionalInt(item, "noes", "Noes", "noesCount"),
			Result:         jsonq.FirstString(item, "result", "Result"),
			Link:           jsonq.FirstString(item, "uri", "_about", "link"),
		})
	}
	return results
}

func parseDebateResults(raw json.RawMessage, limit int) []DebateSummary {
	var results []DebateSummary
	for _, item := range jsonq.Array(decodePayload(raw), "items", "results", "debates") {
		if len(results) >= limit {
			break
		}

		title := jsonq.FirstString(item, "title", "Title", "subject")
		if title == "" {
			title = "Debate"
		}
		highlight := jsonq.FirstString(item, "summary", "Synopsis", "description", "excerpt")

		results = append(results, DebateSummary{
			Title:     title,
			House:     jsonq.FirstString(item, "house", "House"),
			Date:      jsonq.FirstString(item, "date", "Date"),
			Link:      jsonq.FirstString(item, "uri", "_about", "link"),
			Highlight: truncateHighlight(highlight),
		})
	}
	return results
}

func parseStateOfParties(raw json.RawMessage) *StateOfParties {
	payload := decodePayload(raw)

	var parties []PartyBreakdown
	for _, item := range jsonq.Array(payload, "items", "results", "parties") {
		name := jsonq.FirstString(item, "party", "name", "Party")
		if name == "" {
			name = "Unknown"
		}
		parties = append(parties, PartyBreakdown{
			Name:  name,
			Seats: optionalInt(item, "seats", "Seats", "memberCount"),
		})
	}
	if len(parties) == 0 {
		return nil
	}

	return &StateOfParties{
		TotalSeats:  optionalInt(payload, "totalSeats", "TotalSeats", "total"),
		LastUpdated: jsonq.FirstString(payload, "lastUpdated", "LastUpdated", "date"),
		Parties:     parties,
	}
}

func optionalInt(value any, keys ...string) *int64 {
	if n, ok := jsonq.FirstInt(value, keys...); ok {
		return &n
	}
	return nil
}

func truncateHighlight(value string) string {
	runes := []rune(value)
	if len(runes) <= highlightLimit {
		return value
	}
	return string(runes[:highlightLimit]) + "…"
}
