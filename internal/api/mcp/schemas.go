package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// toolCatalogue builds the fixed tool list plus a compiled argument
// validator per tool. The catalogue is immutable after startup.
func toolCatalogue() ([]Tool, map[string]*jsonschema.Resolved, error) {
	specs := []struct {
		name, title, description string
		input, output            string
	}{
		{
			name:        "search",
			title:       "Search Parliament data",
			description: "Perform searches across UK Parliament datasets including legislation, bills, and indexed core datasets.",
			input: `{
				"type": "object",
				"required": ["target"],
				"properties": {
					"target": {"type": "string", "enum": ["uk_law", "bills", "dataset"]},
					"query": {"type": "string", "minLength": 1},
					"dataset": {"type": "string", "minLength": 1},
					"legislationType": {"type": "string", "enum": ["primary", "secondary", "all"]},
					"limit": {"type": "integer", "minimum": 1, "maximum": 50},
					"enableCache": {"type": "boolean"},
					"applyRelevance": {"type": "boolean"},
					"relevanceThreshold": {"type": "number", "minimum": 0.0, "maximum": 1.0},
					"fuzzyMatch": {"type": "boolean"},
					"house": {"type": "string", "enum": ["commons", "lords"]},
					"session": {"type": "string"},
					"parliamentNumber": {"type": "integer", "minimum": 1},
					"page": {"type": "integer", "minimum": 0},
					"perPage": {"type": "integer", "minimum": 1, "maximum": 100}
				},
				"allOf": [
					{"if": {"properties": {"target": {"const": "uk_law"}}}, "then": {"required": ["query"]}},
					{"if": {"properties": {"target": {"const": "bills"}}}, "then": {"required": ["query"]}},
					{"if": {"properties": {"target": {"const": "dataset"}}}, "then": {"required": ["dataset", "query"]}}
				],
				"additionalProperties": false
			}`,
			output: `{
				"description": "Array or object payloads returned by Parliament search endpoints.",
				"oneOf": [
					{"type": "array"},
					{"type": "object"},
					{"type": "string"},
					{"type": "null"}
				]
			}`,
		},
		{
			name:        "fetch",
			title:       "Fetch Parliament records",
			description: "Retrieve detailed Parliament records such as datasets, MP activity, voting records, and constituency lookups.",
			input: `{
				"type": "object",
				"required": ["target"],
				"properties": {
					"target": {
						"type": "string",
						"enum": [
							"core_dataset",
							"bills",
							"legislation",
							"mp_activity",
							"mp_voting_record",
							"constituency"
						]
					},
					"dataset": {"type": "string", "minLength": 1},
					"searchTerm": {"type": "string"},
					"page": {"type": "integer", "minimum": 0},
					"perPage": {"type": "integer", "minimum": 1, "maximum": 100},
					"enableCache": {"type": "boolean"},
					"applyRelevance": {"type": "boolean"},
					"relevanceThreshold": {"type": "number", "minimum": 0.0, "maximum": 1.0},
					"fuzzyMatch": {"type": "boolean"},
					"house": {"type": "string", "enum": ["commons", "lords"]},
					"session": {"type": "string"},
					"parliamentNumber": {"type": "integer", "minimum": 1},
					"mpId": {"type": "integer", "minimum": 1},
					"fromDate": {"type": "string", "format": "date"},
					"toDate": {"type": "string", "format": "date"},
					"billId": {"type": "string"},
					"legislationType": {"type": "string"},
					"title": {"type": "string"},
					"year": {"type": "integer", "minimum": 1800},
					"postcode": {"type": "string", "minLength": 2},
					"limit": {"type": "integer", "minimum": 1, "maximum": 100}
				},
				"allOf": [
					{"if": {"properties": {"target": {"const": "core_dataset"}}}, "then": {"required": ["dataset"]}},
					{"if": {"properties": {"target": {"const": "mp_activity"}}}, "then": {"required": ["mpId"]}},
					{"if": {"properties": {"target": {"const": "mp_voting_record"}}}, "then": {"required": ["mpId"]}},
					{"if": {"properties": {"target": {"const": "constituency"}}}, "then": {"required": ["postcode"]}}
				],
				"additionalProperties": false
			}`,
			output: `{
				"description": "Structured Parliament records returned by fetch helpers.",
				"oneOf": [
					{"type": "object"},
					{"type": "array"},
					{"type": "string"},
					{"type": "null"}
				]
			}`,
		},
		{
			name:        "parliament.fetch_core_dataset",
			title:       "Parliament: Fetch core dataset",
			description: "Fetch data from UK Parliament core datasets (legacy Linked Data API) and the Members API.",
			input: `{
				"type": "object",
				"required": ["dataset"],
				"properties": {
					"dataset": {"type": "string"},
					"searchTerm": {"type": "string"},
					"page": {"type": "integer", "minimum": 0},
					"perPage": {"type": "integer", "minimum": 1, "maximum": 100},
					"enableCache": {"type": "boolean"},
					"fuzzyMatch": {"type": "boolean"},
					"applyRelevance": {"type": "boolean"},
					"relevanceThreshold": {"type": "number", "minimum": 0.0, "maximum": 1.0}
				},
				"additionalProperties": false
			}`,
			output: `{
				"description": "Raw dataset response from Parliament APIs.",
				"oneOf": [
					{"type": "object"},
					{"type": "array"}
				]
			}`,
		},
		{
			name:        "parliament.fetch_bills",
			title:       "Parliament: Fetch bills",
			description: "Search for UK Parliament bills via the versioned bills-api.parliament.uk service.",
			input: `{
				"type": "object",
				"properties": {
					"searchTerm": {"type": "string"},
					"house": {"type": "string", "enum": ["commons", "lords"]},
					"session": {"type": "string"},
					"parliamentNumber": {"type": "integer", "minimum": 1},
					"enableCache": {"type": "boolean"},
					"applyRelevance": {"type": "boolean"},
					"relevanceThreshold": {"type": "number", "minimum": 0.0, "maximum": 1.0}
				},
				"additionalProperties": false
			}`,
			output: `{
				"description": "Raw JSON payload returned by the bills service.",
				"type": "object"
			}`,
		},
		{
			name:        "parliament.fetch_legislation",
			title:       "Parliament: Fetch legislation",
			description: "Retrieve legislation metadata from legislation.gov.uk Atom feeds.",
			input: `{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"year": {"type": "integer", "minimum": 1800},
					"type": {"type": "string", "enum": ["all", "ukpga", "ukci", "ukla", "nisi"]},
					"enableCache": {"type": "boolean"},
					"applyRelevance": {"type": "boolean"},
					"relevanceThreshold": {"type": "number", "minimum": 0.0, "maximum": 1.0}
				},
				"additionalProperties": false
			}`,
			output: `{
				"description": "Structured summary of legislation feed entries.",
				"type": "object",
				"properties": {
					"items": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"title": {"type": "string"},
								"year": {"type": ["integer", "string", "null"]},
								"type": {"type": ["string", "null"]},
								"uri": {"type": ["string", "null"], "format": "uri"},
								"summary": {"type": ["string", "null"]}
							},
							"required": ["title"]
						}
					},
					"totalResults": {"type": ["integer", "null"]}
				}
			}`,
		},
		{
			name:        "parliament.fetch_mp_activity",
			title:       "Parliament: Fetch MP activity",
			description: "List recent activity (debates, questions, statements) for a given MP.",
			input: `{
				"type": "object",
				"required": ["mpId"],
				"properties": {
					"mpId": {"type": "integer", "minimum": 1},
					"limit": {"type": "integer", "minimum": 1, "maximum": 50},
					"enableCache": {"type": "boolean"}
				},
				"additionalProperties": false
			}`,
			output: `{
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"id": {"type": "string"},
						"date": {"type": "string"},
						"type": {"type": "string"},
						"title": {"type": "string"},
						"description": {"type": "string"},
						"url": {"type": ["string", "null"], "format": "uri"}
					},
					"required": ["id", "date", "type", "title", "description"]
				}
			}`,
		},
		{
			name:        "parliament.fetch_mp_voting_record",
			title:       "Parliament: Fetch MP voting record",
			description: "Summarise an MP's voting record, optionally filtering by date range or bill.",
			input: `{
				"type": "object",
				"required": ["mpId"],
				"properties": {
					"mpId": {"type": "integer", "minimum": 1},
					"fromDate": {"type": "string", "format": "date"},
					"toDate": {"type": "string", "format": "date"},
					"billId": {"type": "string"},
					"limit": {"type": "integer", "minimum": 1, "maximum": 100},
					"enableCache": {"type": "boolean"}
				},
				"additionalProperties": false
			}`,
			output: `{
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"divisionId": {"type": ["string", "null"]},
						"title": {"type": ["string", "null"]},
						"date": {"type": ["string", "null"]},
						"vote": {"type": ["string", "null"]},
						"majority": {"type": ["string", "null"]}
					}
				}
			}`,
		},
		{
			name:        "parliament.lookup_constituency_offline",
			title:       "Parliament: Lookup constituency (offline)",
			description: "Resolve a postcode to its Westminster constituency using the bundled dataset.",
			input: `{
				"type": "object",
				"required": ["postcode"],
				"properties": {
					"postcode": {"type": "string", "minLength": 2},
					"enableCache": {"type": "boolean"}
				},
				"additionalProperties": false
			}`,
			output: `{
				"type": "object",
				"properties": {
					"constituencyCode": {"type": ["string", "null"]},
					"constituencyName": {"type": ["string", "null"]},
					"mpId": {"type": ["integer", "null"]},
					"mpName": {"type": ["string", "null"]}
				}
			}`,
		},
		{
			name:        "parliament.search_uk_law",
			title:       "Parliament: Search UK law",
			description: "Search the complete UK legislation corpus for laws, acts, and statutory instruments.",
			input: `{
				"type": "object",
				"required": ["query"],
				"properties": {
					"query": {"type": "string", "minLength": 1},
					"legislationType": {"type": "string", "enum": ["primary", "secondary", "all"]},
					"limit": {"type": "integer", "minimum": 1, "maximum": 50},
					"enableCache": {"type": "boolean"}
				},
				"additionalProperties": false
			}`,
			output: `{
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"title": {"type": "string"},
						"year": {"type": ["string", "null"]},
						"legislationType": {"type": "string"},
						"isInForce": {"type": "boolean"},
						"url": {"type": "string", "format": "uri"},
						"summary": {"type": ["string", "null"]},
						"lastUpdated": {"type": ["string", "null"]}
					},
					"required": ["title", "legislationType", "isInForce", "url"]
				}
			}`,
		},
		{
			name:        "research.run",
			title:       "Research: Run parliamentary research",
			description: "Aggregate bills, debates, legislation, votes and party balance for a parliamentary topic.",
			input: `{
				"type": "object",
				"required": ["topic"],
				"properties": {
					"topic": {"type": "string", "minLength": 1},
					"billKeywords": {"type": "array", "items": {"type": "string"}},
					"debateKeywords": {"type": "array", "items": {"type": "string"}},
					"mpId": {"type": "integer", "minimum": 1},
					"includeStateOfParties": {"type": "boolean"},
					"limit": {"type": "integer", "minimum": 1, "maximum": 10}
				},
				"additionalProperties": false
			}`,
			output: `{
				"type": "object",
				"properties": {
					"summary": {"type": "string"},
					"bills": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"title": {"type": "string"},
								"stage": {"type": ["string", "null"]},
								"lastUpdate": {"type": ["string", "null"]},
								"link": {"type": ["string", "null"], "format": "uri"}
							},
							"required": ["title"]
						}
					},
					"debates": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"title": {"type": "string"},
								"house": {"type": ["string", "null"]},
								"date": {"type": ["string", "null"]},
								"link": {"type": ["string", "null"], "format": "uri"},
								"highlight": {"type": ["string", "null"]}
							},
							"required": ["title"]
						}
					},
					"legislation": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"title": {"type": "string"},
								"year": {"type": ["string", "null"]},
								"type": {"type": ["string", "null"]},
								"uri": {"type": ["string", "null"], "format": "uri"}
							},
							"required": ["title"]
						}
					},
					"votes": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"divisionNumber": {"type": ["string", "null"]},
								"title": {"type": "string"},
								"date": {"type": ["string", "null"]},
								"ayes": {"type": ["integer", "null"]},
								"noes": {"type": ["integer", "null"]},
								"result": {"type": ["string", "null"]},
								"link": {"type": ["string", "null"], "format": "uri"}
							},
							"required": ["title"]
						}
					},
					"mpSpeeches": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"memberName": {"type": ["string", "null"]},
								"date": {"type": ["string", "null"]},
								"excerpt": {"type": ["string", "null"]},
								"source": {"type": ["string", "null"], "format": "uri"}
							}
						}
					},
					"stateOfParties": {
						"type": ["object", "null"],
						"properties": {
							"totalSeats": {"type": ["integer", "null"]},
							"lastUpdated": {"type": ["string", "null"]},
							"parties": {
								"type": "array",
								"items": {
									"type": "object",
									"properties": {
										"name": {"type": "string"},
										"seats": {"type": ["integer", "null"]}
									},
									"required": ["name"]
								}
							}
						}
					},
					"advisories": {
						"type": "array",
						"items": {"type": "string"}
					},
					"cached": {"type": "boolean"}
				},
				"required": ["summary", "bills", "debates", "legislation", "votes", "mpSpeeches", "advisories", "cached"]
			}`,
		},
		{
			name:        "utilities.current_datetime",
			title:       "Utilities: Current datetime",
			description: "Return the current UTC time alongside Europe/London local time.",
			input: `{
				"type": "object",
				"properties": {},
				"additionalProperties": false
			}`,
			output: `{
				"type": "object",
				"properties": {
					"utc": {"type": "string"},
					"local": {"type": "string"}
				},
				"required": ["utc", "local"]
			}`,
		},
	}

	tools := make([]Tool, 0, len(specs))
	validators := make(map[string]*jsonschema.Resolved, len(specs))

	for _, spec := range specs {
		var input map[string]any
		if err := json.Unmarshal([]byte(spec.input), &input); err != nil {
			return nil, nil, fmt.Errorf("input schema for %s: %w", spec.name, err)
		}
		tool := Tool{
			Name:        spec.name,
			Title:       spec.title,
			Description: spec.description,
			InputSchema: input,
		}
		if spec.output != "" {
			var output map[string]any
			if err := json.Unmarshal([]byte(spec.output), &output); err != nil {
				return nil, nil, fmt.Errorf("output schema for %s: %w", spec.name, err)
			}
			tool.OutputSchema = output
		}
		tools = append(tools, tool)

		var schema jsonschema.Schema
		if err := json.Unmarshal([]byte(spec.input), &schema); err != nil {
			return nil, nil, fmt.Errorf("compile schema for %s: %w", spec.name, err)
		}
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve schema for %s: %w", spec.name, err)
		}
		validators[spec.name] = resolved
	}

	return tools, validators, nil
}
