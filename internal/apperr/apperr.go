// Package apperr defines the error taxonomy shared by every layer of the
// parliament-mcp server.
//
// Errors fall into four categories:
//
//   - Configuration: fatal at startup (malformed settings, missing key)
//   - BadRequest:    the caller's fault (missing arguments, empty topic)
//   - Upstream:      a collaborator HTTP call failed or returned non-2xx
//   - Internal:      serialization, cache-codec, or unexpected failures
//
// The MCP dispatcher uses the category to decide between a protocol-level
// error (-32602 for BadRequest) and a soft tool failure carrying a sanitized
// message. Upstream errors keep the status code and a body snippet for
// diagnostics; that detail is logged but never returned to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the error category.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindBadRequest
	KindUpstream
)

// String returns the lowercase category label used in log lines.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindBadRequest:
		return "bad_request"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the concrete error type carried through the server. Upstream
// errors additionally record the request URL, HTTP status, a body snippet
// (capped by the fetch engine at 512 characters) and a rate-limit hint.
type Error struct {
	Kind    Kind
	Message string

	// Upstream diagnostics. Status is zero for transport-level failures.
	URL         string
	Status      int
	Body        string
	RateLimited bool

	// Err is the wrapped cause, when there is one.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration reports a fatal startup problem.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// BadRequest reports a caller mistake. The message is safe to return verbatim.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal reports an unexpected server-side failure.
func Internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps a cause with an internal-category message.
func Internalf(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream reports a non-2xx response from a collaborator service.
func Upstream(url string, status int, body string) *Error {
	return &Error{
		Kind:        KindUpstream,
		Message:     fmt.Sprintf("request to %s failed with HTTP %d", url, status),
		URL:         url,
		Status:      status,
		Body:        body,
		RateLimited: status == 429,
	}
}

// UpstreamTransport reports a transport-level failure (DNS, timeout,
// connection reset) before any HTTP status was received.
func UpstreamTransport(url string, err error) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("network error contacting %s", url),
		URL:     url,
		Err:     err,
	}
}

// KindOf classifies an arbitrary error. Errors that are not *Error are
// treated as internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsBadRequest reports whether err is a caller mistake.
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }

// As extracts the *Error from err, if present.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
