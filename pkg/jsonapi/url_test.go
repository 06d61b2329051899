package jsonapi

import (
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     DefaultPort,
		Username: "admin",
		Password: "changeme",
		Salt:     "salt",
	}
}

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCreateTokenKnownValue(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{
		Host:     "localhost",
		Port:     DefaultPort,
		Username: "bob",
		Password: "pw",
		Salt:     "s1",
	})

	got := c.CreateToken("getPlayers")
	want := "30f84302e88add4bdd833b1aa5fb941335b254ff583518d8444e958655083458"
	if got != want {
		t.Errorf("got token %q, want %q", got, want)
	}
}

func TestCreateTokenFormat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())
	hexPattern := regexp.MustCompile(`^[0-9a-f]{64}$`)

	for _, method := range []string{"save", "getPlayers", "players.online.names", "ünïcode"} {
		first := c.CreateToken(method)
		if !hexPattern.MatchString(first) {
			t.Errorf("token for %q = %q, want 64 lowercase hex chars", method, first)
		}
		if second := c.CreateToken(method); second != first {
			t.Errorf("token for %q not deterministic: %q then %q", method, first, second)
		}
	}

	if c.CreateToken("a") == c.CreateToken("b") {
		t.Error("different methods produced the same token")
	}
}

func TestBuildCallURL(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	raw, err := c.BuildCallURL("save", 1, "x")
	if err != nil {
		t.Fatalf("BuildCallURL() error = %v", err)
	}
	if !strings.HasPrefix(raw, "http://localhost:20059/api/call?") {
		t.Fatalf("unexpected URL prefix: %s", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	q := u.Query()

	if got := q.Get("method"); got != "save" {
		t.Errorf("got method %q, want %q", got, "save")
	}
	if got, want := q.Get("key"), "b8a69866b49c133e58b53955fe7f4e91a2c16277ea5dee3a980752009c147c4c"; got != want {
		t.Errorf("got key %q, want %q", got, want)
	}

	var args []any
	if err := json.Unmarshal([]byte(q.Get("args")), &args); err != nil {
		t.Fatalf("args is not JSON: %v", err)
	}
	if want := []any{float64(1), "x"}; !reflect.DeepEqual(args, want) {
		t.Errorf("got args %#v, want %#v", args, want)
	}
}

func TestBuildCallURLNoArgs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	raw, err := c.BuildCallURL("ping")
	if err != nil {
		t.Fatalf("BuildCallURL() error = %v", err)
	}
	u, _ := url.Parse(raw)
	if got := u.Query().Get("args"); got != "[]" {
		t.Errorf("got args %q, want %q", got, "[]")
	}
}

func TestBuildCallURLEscapesMethod(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	raw, err := c.BuildCallURL("a b&c=d", "<tag>")
	if err != nil {
		t.Fatalf("BuildCallURL() error = %v", err)
	}
	if !strings.Contains(raw, "method=a+b%26c%3Dd&") {
		t.Errorf("method not query-escaped: %s", raw)
	}

	u, _ := url.Parse(raw)
	q := u.Query()
	if got := q.Get("method"); got != "a b&c=d" {
		t.Errorf("got method %q", got)
	}
	if got := q.Get("args"); got != `["<tag>"]` {
		t.Errorf("got args %q, want HTML left unescaped", got)
	}
	if got, want := q.Get("key"), c.CreateToken("a b&c=d"); got != want {
		t.Errorf("got key %q, want %q", got, want)
	}
}

func TestBuildCallURLIPv6Host(t *testing.T) {
	t.Parallel()

	for _, host := range []string{"::1", "[::1]"} {
		cfg := testConfig()
		cfg.Host = host
		c := newTestClient(t, cfg)

		raw, err := c.BuildCallURL("ping")
		if err != nil {
			t.Fatalf("host %q: BuildCallURL() error = %v", host, err)
		}
		if !strings.HasPrefix(raw, "http://[::1]:20059/api/call?") {
			t.Errorf("host %q: unexpected URL: %s", host, raw)
		}
	}
}

func TestBuildURLEmptyMethod(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	if _, err := c.BuildCallURL(""); !errors.Is(err, ErrEmptyMethod) {
		t.Errorf("BuildCallURL: got error %v, want ErrEmptyMethod", err)
	}
	if _, err := c.BuildMultiCallURL([]string{"ping", ""}, [][]any{nil, nil}); !errors.Is(err, ErrEmptyMethod) {
		t.Errorf("BuildMultiCallURL: got error %v, want ErrEmptyMethod", err)
	}
}

func TestBuildCallURLUnencodableArg(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	_, err := c.BuildCallURL("save", make(chan int))
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("got error %v, want ErrEncode", err)
	}
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("got %T, want *EncodeError", err)
	}
}

func TestBuildMultiCallURL(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	raw, err := c.BuildMultiCallURL([]string{"a", "b"}, [][]any{{1}, nil})
	if err != nil {
		t.Fatalf("BuildMultiCallURL() error = %v", err)
	}
	if !strings.HasPrefix(raw, "http://localhost:20059/api/call-multiple?") {
		t.Fatalf("unexpected URL prefix: %s", raw)
	}

	u, _ := url.Parse(raw)
	q := u.Query()

	if got := q.Get("method"); got != `["a","b"]` {
		t.Errorf("got method %q, want %q", got, `["a","b"]`)
	}
	if got := q.Get("args"); got != `[[1],[]]` {
		t.Errorf("got args %q, want %q", got, `[[1],[]]`)
	}
	if got, want := q.Get("key"), c.CreateToken("a"); got != want {
		t.Errorf("got key %q, want token of first method %q", got, want)
	}
}

func TestBuildMultiCallURLArityMismatch(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	tests := []struct {
		name     string
		methods  []string
		argsList [][]any
	}{
		{"more methods", []string{"a", "b"}, [][]any{{1}}},
		{"more args", []string{"a"}, [][]any{{1}, {2}}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.BuildMultiCallURL(tt.methods, tt.argsList)
			if !errors.Is(err, ErrArityMismatch) {
				t.Fatalf("got error %v, want ErrArityMismatch", err)
			}
			var arity *ArityMismatchError
			if !errors.As(err, &arity) {
				t.Fatalf("got %T, want *ArityMismatchError", err)
			}
			if arity.Methods != len(tt.methods) || arity.Args != len(tt.argsList) {
				t.Errorf("got counts %d/%d, want %d/%d", arity.Methods, arity.Args, len(tt.methods), len(tt.argsList))
			}
		})
	}
}

func TestArgsRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	args := []any{
		"text",
		float64(2.5),
		true,
		nil,
		[]any{"nested", float64(1)},
		map[string]any{"k": "v", "n": []any{false}},
	}

	raw, err := c.BuildCallURL("store", args...)
	if err != nil {
		t.Fatalf("BuildCallURL() error = %v", err)
	}
	u, _ := url.Parse(raw)

	var decoded []any
	if err := json.Unmarshal([]byte(u.Query().Get("args")), &decoded); err != nil {
		t.Fatalf("args is not JSON: %v", err)
	}
	if !reflect.DeepEqual(decoded, args) {
		t.Errorf("got %#v, want %#v", decoded, args)
	}
}

func TestRedactKey(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())
	raw, _ := c.BuildCallURL("ping")

	redacted := redactKey(raw)
	if strings.Contains(redacted, c.CreateToken("ping")) {
		t.Errorf("key still present: %s", redacted)
	}
	if !strings.Contains(redacted, "key=REDACTED") {
		t.Errorf("missing redaction marker: %s", redacted)
	}
}
