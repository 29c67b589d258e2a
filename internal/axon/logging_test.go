package axon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel(t *testing.T) {
	orig := defaultLogLevel
	defer func() { defaultLogLevel = orig }()
	defaultLogLevel = LevelError

	cases := []struct {
		name   string
		query  string
		header string
		want   LogLevel
	}{
		{"default from env", "", "", LevelError},
		{"query overrides", "debug", "", LevelDebug},
		{"query shorthand 1", "1", "", LevelDebug},
		{"query off", "off", "", LevelOff},
		{"header overrides", "", "debug", LevelDebug},
		{"query wins over header", "info", "debug", LevelInfo},
	}
	for _, c := range cases {
		url := "/synapse/prompt"
		if c.query != "" {
			url += "?log=" + c.query
		}
		r := httptest.NewRequest(http.MethodPost, url, nil)
		if c.header != "" {
			r.Header.Set("X-Log-Level", c.header)
		}
		if got := requestLogLevel(r); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}
