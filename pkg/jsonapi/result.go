package jsonapi

// Status values used by the server's result envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the envelope the JSONAPI plugin wraps around each method result:
//
//	{"result": "success", "source": "getPlayers", "success": [...]}
//	{"result": "error", "source": "getPlayers", "error": "..."}
type Result struct {
	Status  string
	Source  string
	Success any
	Error   string
}

// ParseResult reports whether v, a value returned by Call or one element of
// CallMultiple, is a result envelope, and unpacks it.
func ParseResult(v any) (Result, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Result{}, false
	}
	status, _ := m["result"].(string)
	if status != StatusSuccess && status != StatusError {
		return Result{}, false
	}

	r := Result{Status: status, Success: m["success"]}
	r.Source, _ = m["source"].(string)
	r.Error, _ = m["error"].(string)
	return r, true
}

// Err returns a *RemoteError for an error envelope and nil otherwise.
func (r Result) Err() error {
	if r.Status != StatusError {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "unknown error"
	}
	return &RemoteError{Source: r.Source, Message: msg}
}
