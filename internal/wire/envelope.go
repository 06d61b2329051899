package wire

// Status values of Envelope.Result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages the plugin returns verbatim.
const (
	MsgInvalidKey    = "Invalid API key"
	MsgNoSuchMethod  = "Method does not exist"
	MsgBadArguments  = "Invalid arguments"
	MsgArityMismatch = "Method and argument counts do not match"
)

// Envelope wraps the outcome of one method call.
type Envelope struct {
	// "success" or "error".
	Result string `json:"result"`
	// Name of the method that produced this envelope.
	Source string `json:"source"`
	// Method return value. Present only on success.
	Success interface{} `json:"success,omitempty"`
	// Human readable failure. Present only on error.
	Error string `json:"error,omitempty"`
}

func Success(source string, value interface{}) Envelope {
	return Envelope{Result: StatusSuccess, Source: source, Success: value}
}

func Failure(source, message string) Envelope {
	return Envelope{Result: StatusError, Source: source, Error: message}
}
