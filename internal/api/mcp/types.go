// Package mcp implements the Model Context Protocol (MCP) dispatcher for
// the Parliament tool catalogue. It frames JSON-RPC 2.0 requests, enforces
// the initialize handshake, validates tool arguments against compiled
// schemas, and converts tool failures into the soft-failure envelope.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/civicsignal/parliament-mcp/internal/parliament"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      interface{}   `json:"id"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	ErrCodeParseError     = -32700 // malformed top-level JSON
	ErrCodeInvalidRequest = -32600 // invalid request object or handshake violation
	ErrCodeMethodNotFound = -32601 // unknown method or tool
	ErrCodeInvalidParams  = -32602 // invalid method parameters
	ErrCodeNotReady       = -32002 // session-state violation
	ErrCodeServerError    = -32000 // internal error
)

// InitializeParams holds the parameters sent by the client in the
// initialize request.
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities"`
	ClientInfo      ClientInfo      `json:"clientInfo"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo identifies this server.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// ToolsCapability signals that the server exposes tools.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities describes what this server supports.
type ServerCapabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// InitializeResult is the response to the initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ListToolsParams holds the parameters of a tools/list request. The
// cursor is accepted for protocol compatibility but pagination is not
// implemented.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// Tool describes a single tool in the catalogue.
type Tool struct {
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// ToolsListResult is the response to a tools/list request. NextCursor is
// never set.
type ToolsListResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// ToolCallParams holds the parameters of a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolContent is a single content block in a tool call response.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallResult is the response payload of a tools/call request. A tool
// execution failure sets IsError and carries a sanitized message instead
// of structured content.
type ToolCallResult struct {
	Content           []ToolContent `json:"content"`
	StructuredContent interface{}   `json:"structuredContent,omitempty"`
	IsError           bool          `json:"isError,omitempty"`
}

// SearchToolArgs are the arguments of the "search" router tool.
type SearchToolArgs struct {
	Target             string   `json:"target"`
	Query              string   `json:"query,omitempty"`
	Dataset            string   `json:"dataset,omitempty"`
	LegislationType    string   `json:"legislationType,omitempty"`
	Limit              *int     `json:"limit,omitempty"`
	EnableCache        *bool    `json:"enableCache,omitempty"`
	ApplyRelevance     *bool    `json:"applyRelevance,omitempty"`
	RelevanceThreshold *float64 `json:"relevanceThreshold,omitempty"`
	FuzzyMatch         *bool    `json:"fuzzyMatch,omitempty"`
	House              string   `json:"house,omitempty"`
	Session            string   `json:"session,omitempty"`
	ParliamentNumber   *int     `json:"parliamentNumber,omitempty"`
	Page               *int     `json:"page,omitempty"`
	PerPage            *int     `json:"perPage,omitempty"`
}

// FetchToolArgs are the arguments of the "fetch" router tool.
type FetchToolArgs struct {
	Target             string   `json:"target"`
	Dataset            string   `json:"dataset,omitempty"`
	SearchTerm         string   `json:"searchTerm,omitempty"`
	Page               *int     `json:"page,omitempty"`
	PerPage            *int     `json:"perPage,omitempty"`
	EnableCache        *bool    `json:"enableCache,omitempty"`
	ApplyRelevance     *bool    `json:"applyRelevance,omitempty"`
	RelevanceThreshold *float64 `json:"relevanceThreshold,omitempty"`
	FuzzyMatch         *bool    `json:"fuzzyMatch,omitempty"`
	House              string   `json:"house,omitempty"`
	Session            string   `json:"session,omitempty"`
	ParliamentNumber   *int     `json:"parliamentNumber,omitempty"`
	MPID               *int     `json:"mpId,omitempty"`
	FromDate           string   `json:"fromDate,omitempty"`
	ToDate             string   `json:"toDate,omitempty"`
	BillID             string   `json:"billId,omitempty"`
	LegislationType    string   `json:"legislationType,omitempty"`
	Title              string   `json:"title,omitempty"`
	Year               *int     `json:"year,omitempty"`
	Postcode           string   `json:"postcode,omitempty"`
	Limit              *int     `json:"limit,omitempty"`
}

// ToolExecutor is the upstream capability behind the parliament tools.
// The production implementation wraps *parliament.Client; tests inject an
// in-memory double.
type ToolExecutor interface {
	SearchUKLaw(ctx context.Context, args parliament.UKLawArgs) (any, error)
	FetchBills(ctx context.Context, args parliament.BillsArgs) (any, error)
	FetchCoreDataset(ctx context.Context, args parliament.CoreDatasetArgs) (any, error)
	FetchLegislation(ctx context.Context, args parliament.LegislationArgs) (any, error)
	FetchMPActivity(ctx context.Context, args parliament.MPActivityArgs) (any, error)
	FetchMPVotingRecord(ctx context.Context, args parliament.MPVotingRecordArgs) (any, error)
	LookupConstituency(ctx context.Context, args parliament.ConstituencyArgs) (any, error)
}
