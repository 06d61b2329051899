package wire

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Request is a decoded /api/call query.
type Request struct {
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
	Key    string        `json:"key"`
}

// MultiRequest is a decoded /api/call-multiple query.
type MultiRequest struct {
	Methods []string        `json:"method"`
	Args    [][]interface{} `json:"args"`
	Key     string          `json:"key"`
}

func ParseRequest(q url.Values) (Request, error) {
	req := Request{Method: q.Get("method"), Key: q.Get("key")}
	if err := decodeParam(q, "args", &req.Args); err != nil {
		return req, err
	}
	return req, nil
}

func ParseMultiRequest(q url.Values) (MultiRequest, error) {
	req := MultiRequest{Key: q.Get("key")}
	if err := decodeParam(q, "method", &req.Methods); err != nil {
		return req, err
	}
	if err := decodeParam(q, "args", &req.Args); err != nil {
		return req, err
	}
	return req, nil
}

// decodeParam unmarshals a JSON query parameter. A missing parameter leaves
// dst untouched.
func decodeParam(q url.Values, name string, dst interface{}) error {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
