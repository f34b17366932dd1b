package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/parliament"
	"github.com/civicsignal/parliament-mcp/internal/research"
	"github.com/civicsignal/parliament-mcp/internal/utilities"
)

const (
	serverName        = "parliament-mcp"
	serverVersion     = "1.0.0"
	serverDescription = "Model Context Protocol server for UK Parliament research"
)

// researchRunner is the slice of the research service the dispatcher
// needs.
type researchRunner interface {
	Run(ctx context.Context, request research.Request) (*research.Response, error)
}

// Server dispatches JSON-RPC 2.0 requests to the tool catalogue. One
// Server owns one session's handshake state.
type Server struct {
	executor   ToolExecutor
	research   researchRunner
	datetime   *utilities.DateTimeService
	session    *session
	tools      []Tool
	validators map[string]*jsonschema.Resolved
	logger     *log.Logger
}

// NewServer compiles the tool catalogue and returns a dispatcher bound to
// the given executor and research service.
func NewServer(executor ToolExecutor, researchSvc researchRunner) (*Server, error) {
	tools, validators, err := toolCatalogue()
	if err != nil {
		return nil, fmt.Errorf("build tool catalogue: %w", err)
	}
	return &Server{
		executor:   executor,
		research:   researchSvc,
		datetime:   utilities.NewDateTimeService(),
		session:    newSession(),
		tools:      tools,
		validators: validators,
		logger:     log.New(os.Stderr, "parliament-mcp: ", log.LstdFlags),
	}, nil
}

// SessionID returns the unique id generated for this server's session.
func (s *Server) SessionID() string {
	return s.session.id
}

// rpcError is a protocol-level error produced during dispatch. It is
// distinct from tool execution failures, which become soft failures.
type rpcError struct {
	code    int
	message string
}

func (e *rpcError) Error() string { return e.message }

func rpcErrorf(code int, format string, args ...any) *rpcError {
	return &rpcError{code: code, message: fmt.Sprintf(format, args...)}
}

// HandleRequest processes one raw JSON-RPC request and returns the
// response frame. A nil response with nil error means the request was a
// notification and no frame must be written. headerProtocolVersion is the
// out-of-band MCP-Protocol-Version header, empty when absent.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte, headerProtocolVersion string) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, fmt.Sprintf("failed to parse request: %v", err))
	}

	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported jsonrpc version: %s", req.JSONRPC))
	}

	// The readiness notification is the only method that never answers.
	if req.Method == "initialized" {
		if !s.session.markReady() {
			s.logger.Println("initialized notification received before initialize; ignoring")
		}
		return nil, nil
	}

	if req.ID == nil {
		return s.errorResponse(nil, ErrCodeInvalidRequest, "request id must not be null")
	}

	if req.Method != "initialize" && !s.session.headerMatches(headerProtocolVersion) {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest,
			fmt.Sprintf("protocol version header %q does not match negotiated version %q",
				headerProtocolVersion, s.session.negotiatedVersion()))
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req, headerProtocolVersion)
	case "ping":
		if s.session.currentState() == stateUninitialized {
			return s.errorResponse(req.ID, ErrCodeNotReady, "session not initialized")
		}
		return s.successResponse(req.ID, map[string]any{})
	case "list_tools", "tools/list":
		if s.session.currentState() != stateReady {
			return s.errorResponse(req.ID, ErrCodeNotReady, "session not ready; complete the initialize handshake first")
		}
		return s.handleListTools(req)
	case "call_tool", "tools/call":
		if s.session.currentState() != stateReady {
			return s.errorResponse(req.ID, ErrCodeNotReady, "session not ready; complete the initialize handshake first")
		}
		return s.handleCallTool(ctx, req)
	default:
		return s.errorResponse(req.ID, ErrCodeMethodNotFound,
			fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req JSONRPCRequest, headerProtocolVersion string) ([]byte, error) {
	if len(req.Params) == 0 {
		return s.errorResponse(req.ID, ErrCodeInvalidParams, "missing initialize params")
	}

	var params InitializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, ErrCodeInvalidParams,
			fmt.Sprintf("invalid initialize params: %v", err))
	}

	if headerProtocolVersion != "" && !versionsMatch(headerProtocolVersion, params.ProtocolVersion) {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest,
			fmt.Sprintf("protocol version header %q does not match requested version %q",
				headerProtocolVersion, params.ProtocolVersion))
	}

	if !versionSupported(params.ProtocolVersion) {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported protocolVersion: %s", params.ProtocolVersion))
	}

	var capabilities map[string]any
	if len(params.Capabilities) == 0 || json.Unmarshal(params.Capabilities, &capabilities) != nil || capabilities == nil {
		return s.errorResponse(req.ID, ErrCodeInvalidParams, "capabilities must be an object")
	}

	s.session.negotiate(params.ProtocolVersion)
	s.logger.Printf("client initialized: %s %s (protocol %s)",
		params.ClientInfo.Name, params.ClientInfo.Version, params.ProtocolVersion)

	return s.successResponse(req.ID, InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		Capabilities:    ServerCapabilities{Tools: ToolsCapability{ListChanged: false}},
		ServerInfo: ServerInfo{
			Name:        serverName,
			Version:     serverVersion,
			Description: serverDescription,
		},
	})
}

func (s *Server) handleListTools(req JSONRPCRequest) ([]byte, error) {
	if len(req.Params) > 0 {
		var params ListToolsParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.errorResponse(req.ID, ErrCodeInvalidParams,
				fmt.Sprintf("invalid tools/list params: %v", err))
		}
		if params.Cursor != "" {
			s.logger.Printf("tools/list cursor %q ignored; pagination is not supported", params.Cursor)
		}
	}
	return s.successResponse(req.ID, ToolsListResult{Tools: s.tools})
}

func (s *Server) handleCallTool(ctx context.Context, req JSONRPCRequest) ([]byte, error) {
	if len(req.Params) == 0 {
		return s.errorResponse(req.ID, ErrCodeInvalidParams, "missing call_tool params")
	}

	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, ErrCodeInvalidParams,
			fmt.Sprintf("invalid call_tool params: %v", err))
	}

	arguments := params.Arguments
	if len(arguments) == 0 || string(arguments) == "null" {
		arguments = json.RawMessage(`{}`)
	}

	payload, err := s.dispatchTool(ctx, params.Name, arguments)
	if err != nil {
		var rpcErr *rpcError
		if errors.As(err, &rpcErr) {
			return s.errorResponse(req.ID, rpcErr.code, rpcErr.message)
		}
		if apperr.IsBadRequest(err) {
			return s.errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
		}
		return s.toolExecutionError(req.ID, params.Name, err)
	}

	return s.toolSuccess(req.ID, payload)
}

// dispatchTool validates arguments and routes to the handler for name.
// Protocol violations return *rpcError; anything else is a tool failure.
func (s *Server) dispatchTool(ctx context.Context, name string, arguments json.RawMessage) (any, error) {
	switch name {
	case "search":
		var args SearchToolArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.runSearchTool(ctx, args)
	case "fetch":
		var args FetchToolArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.runFetchTool(ctx, args)
	case "parliament.fetch_core_dataset":
		var args parliament.CoreDatasetArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.FetchCoreDataset(ctx, args)
	case "parliament.fetch_bills":
		var args parliament.BillsArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.FetchBills(ctx, args)
	case "parliament.fetch_legislation":
		var args parliament.LegislationArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.FetchLegislation(ctx, args)
	case "parliament.fetch_mp_activity":
		var args parliament.MPActivityArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.FetchMPActivity(ctx, args)
	case "parliament.fetch_mp_voting_record":
		var args parliament.MPVotingRecordArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.FetchMPVotingRecord(ctx, args)
	case "parliament.lookup_constituency_offline":
		var args parliament.ConstituencyArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.LookupConstituency(ctx, args)
	case "parliament.search_uk_law":
		var args parliament.UKLawArgs
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.executor.SearchUKLaw(ctx, args)
	case "research.run":
		var args research.Request
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.research.Run(ctx, args)
	case "utilities.current_datetime":
		var args struct{}
		if err := s.decodeArguments(name, arguments, &args); err != nil {
			return nil, err
		}
		return s.datetime.CurrentDatetime(), nil
	default:
		return nil, rpcErrorf(ErrCodeMethodNotFound, "unknown tool: %s", name)
	}
}

// decodeArguments validates raw arguments against the tool's compiled
// schema and decodes them into dest.
func (s *Server) decodeArguments(toolName string, raw json.RawMessage, dest any) error {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rpcErrorf(ErrCodeInvalidParams, "invalid tool arguments: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		return rpcErrorf(ErrCodeInvalidParams, "tool arguments must be an object")
	}

	if validator, ok := s.validators[toolName]; ok {
		if err := validator.Validate(decoded); err != nil {
			return rpcErrorf(ErrCodeInvalidParams, "invalid tool arguments: %v", err)
		}
	} else {
		s.logger.Printf("no validator registered for tool %s", toolName)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return rpcErrorf(ErrCodeInvalidParams, "invalid tool arguments: %v", err)
	}
	return nil
}

// runSearchTool routes the "search" tool to the target category.
func (s *Server) runSearchTool(ctx context.Context, args SearchToolArgs) (any, error) {
	switch args.Target {
	case "uk_law":
		if args.Query == "" {
			return nil, apperr.BadRequest("search target 'uk_law' requires a query")
		}
		return s.executor.SearchUKLaw(ctx, parliament.UKLawArgs{
			Query:           args.Query,
			LegislationType: args.LegislationType,
			Limit:           args.Limit,
			EnableCache:     args.EnableCache,
		})
	case "bills":
		return s.executor.FetchBills(ctx, parliament.BillsArgs{
			SearchTerm:         args.Query,
			House:              args.House,
			Session:            args.Session,
			ParliamentNumber:   args.ParliamentNumber,
			EnableCache:        args.EnableCache,
			ApplyRelevance:     args.ApplyRelevance,
			RelevanceThreshold: args.RelevanceThreshold,
		})
	case "dataset":
		if args.Dataset == "" {
			return nil, apperr.BadRequest("search target 'dataset' requires the dataset field")
		}
		return s.executor.FetchCoreDataset(ctx, parliament.CoreDatasetArgs{
			Dataset:            args.Dataset,
			SearchTerm:         args.Query,
			Page:               args.Page,
			PerPage:            args.PerPage,
			EnableCache:        args.EnableCache,
			FuzzyMatch:         args.FuzzyMatch,
			ApplyRelevance:     args.ApplyRelevance,
			RelevanceThreshold: args.RelevanceThreshold,
		})
	default:
		return nil, apperr.BadRequest("unknown search target: %s", args.Target)
	}
}

// runFetchTool routes the "fetch" tool to the target category.
func (s *Server) runFetchTool(ctx context.Context, args FetchToolArgs) (any, error) {
	switch args.Target {
	case "core_dataset":
		if args.Dataset == "" {
			return nil, apperr.BadRequest("fetch target 'core_dataset' requires the dataset field")
		}
		return s.executor.FetchCoreDataset(ctx, parliament.CoreDatasetArgs{
			Dataset:            args.Dataset,
			SearchTerm:         args.SearchTerm,
			Page:               args.Page,
			PerPage:            args.PerPage,
			EnableCache:        args.EnableCache,
			FuzzyMatch:         args.FuzzyMatch,
			ApplyRelevance:     args.ApplyRelevance,
			RelevanceThreshold: args.RelevanceThreshold,
		})
	case "bills":
		return s.executor.FetchBills(ctx, parliament.BillsArgs{
			SearchTerm:         args.SearchTerm,
			House:              args.House,
			Session:            args.Session,
			ParliamentNumber:   args.ParliamentNumber,
			EnableCache:        args.EnableCache,
			ApplyRelevance:     args.ApplyRelevance,
			RelevanceThreshold: args.RelevanceThreshold,
		})
	case "legislation":
		return s.executor.FetchLegislation(ctx, parliament.LegislationArgs{
			Title:              args.Title,
			Year:               args.Year,
			Type:               args.LegislationType,
			EnableCache:        args.EnableCache,
			ApplyRelevance:     args.ApplyRelevance,
			RelevanceThreshold: args.RelevanceThreshold,
		})
	case "mp_activity":
		if args.MPID == nil {
			return nil, apperr.BadRequest("fetch target 'mp_activity' requires mpId")
		}
		return s.executor.FetchMPActivity(ctx, parliament.MPActivityArgs{
			MPID:        *args.MPID,
			Limit:       args.Limit,
			EnableCache: args.EnableCache,
		})
	case "mp_voting_record":
		if args.MPID == nil {
			return nil, apperr.BadRequest("fetch target 'mp_voting_record' requires mpId")
		}
		return s.executor.FetchMPVotingRecord(ctx, parliament.MPVotingRecordArgs{
			MPID:        *args.MPID,
			FromDate:    args.FromDate,
			ToDate:      args.ToDate,
			BillID:      args.BillID,
			Limit:       args.Limit,
			EnableCache: args.EnableCache,
		})
	case "constituency":
		if args.Postcode == "" {
			return nil, apperr.BadRequest("fetch target 'constituency' requires postcode")
		}
		return s.executor.LookupConstituency(ctx, parliament.ConstituencyArgs{
			Postcode:    args.Postcode,
			EnableCache: args.EnableCache,
		})
	default:
		return nil, apperr.BadRequest("unknown fetch target: %s", args.Target)
	}
}

// toolSuccess frames a tool payload as text plus structured content.
func (s *Server) toolSuccess(id interface{}, payload any) ([]byte, error) {
	rendered, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return s.errorResponse(id, ErrCodeServerError,
			fmt.Sprintf("failed to render tool payload: %v", err))
	}
	return s.successResponse(id, ToolCallResult{
		Content:           []ToolContent{{Type: "text", Text: string(rendered)}},
		StructuredContent: payload,
	})
}

// toolExecutionError converts a tool failure into the soft-failure
// envelope: a successful frame whose payload flags the error. Raw error
// detail is logged, never returned.
func (s *Server) toolExecutionError(id interface{}, toolName string, err error) ([]byte, error) {
	message := describeToolError(toolName, err)
	s.logger.Printf("tool %s failed: %s (detail: %v)", toolName, message, err)
	return s.successResponse(id, ToolCallResult{
		Content: []ToolContent{{Type: "text", Text: message}},
		IsError: true,
	})
}

// describeToolError maps a tool failure to a sanitized caller-facing
// message. Upstream bodies are never echoed.
func describeToolError(toolName string, err error) string {
	if ae, ok := apperr.As(err); ok {
		switch ae.Kind {
		case apperr.KindUpstream:
			if ae.Status != 0 {
				return fmt.Sprintf("Upstream service responded with HTTP %d", ae.Status)
			}
			return fmt.Sprintf("Upstream service request for %s failed", toolName)
		case apperr.KindConfiguration:
			return fmt.Sprintf("Server configuration prevented running %s", toolName)
		}
	}
	return fmt.Sprintf("Internal error while executing %s", toolName)
}

func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: id})
}

func (s *Server) errorResponse(id interface{}, code int, message string) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   &JSONRPCError{Code: code, Message: message},
		ID:      id,
	})
}
