package jsonapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
//
// Every typed error below unwraps to one of these, so callers can branch with
// errors.Is without caring about the concrete type:
//
//	if errors.Is(err, jsonapi.ErrTransport) {
//	    // server unreachable
//	}
var (
	ErrConfig        = errors.New("jsonapi: invalid configuration")
	ErrArityMismatch = errors.New("jsonapi: methods and argument lists differ in length")
	ErrTransport     = errors.New("jsonapi: transport failure")
	ErrDecode        = errors.New("jsonapi: response is not valid JSON")
	ErrEncode        = errors.New("jsonapi: arguments cannot be encoded as JSON")
	ErrRemote        = errors.New("jsonapi: remote method failed")
	ErrEmptyMethod   = errors.New("jsonapi: method name must not be empty")
)

// ConfigError reports an empty or out-of-range construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("jsonapi: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// ArityMismatchError reports a multi-call whose method and argument list
// counts differ.
type ArityMismatchError struct {
	Methods int
	Args    int
}

func (e *ArityMismatchError) Error() string {
	if e.Methods == 0 && e.Args == 0 {
		return "jsonapi: multi-call needs at least one method"
	}
	return fmt.Sprintf("jsonapi: %d methods but %d argument lists", e.Methods, e.Args)
}

func (e *ArityMismatchError) Unwrap() error { return ErrArityMismatch }

// TransportError reports a request that could not complete. URL never
// contains the key.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jsonapi: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// DecodeError reports a response body that is not valid JSON, or whose shape
// cannot hold the requested results. Body is truncated.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jsonapi: decode response %q: %v", e.Body, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError reports arguments that encoding/json refuses to marshal.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("jsonapi: encode arguments: %v", e.Err)
}

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }

// RemoteError is the server-side failure carried inside a result envelope.
type RemoteError struct {
	Source  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("jsonapi: %s: %s", e.Source, e.Message)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

const maxBodySnippet = 256

func snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "..."
}
