package cli

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		hasBaseURL bool
		expected   string
	}{
		{
			name:     "Simple URL",
			url:      "https://example.com/path",
			expected: "https://example.com/path",
		},
		{
			name:     "URL without scheme",
			url:      "example.com/path",
			expected: "http://example.com/path",
		},
		{
			name:     "Localhost with port",
			url:      "localhost:8080/api",
			expected: "http://localhost:8080/api",
		},
		{
			name:       "Relative path with base URL",
			url:        "/users?page=1",
			hasBaseURL: true,
			expected:   "/users?page=1",
		},
		{
			name:       "Relative segment with base URL",
			url:        "users/123",
			hasBaseURL: true,
			expected:   "users/123",
		},
		{
			name:       "Host with base URL",
			url:        "api.example.com/v1",
			hasBaseURL: true,
			expected:   "http://api.example.com/v1",
		},
		{
			name:       "Absolute URL ignores base URL",
			url:        "http://other.example.com",
			hasBaseURL: true,
			expected:   "http://other.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseURL(tt.url, tt.hasBaseURL); got != tt.expected {
				t.Errorf("parseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"X-Api-Key: secret", "Accept:text/plain", "X-Empty:"})
	if err != nil {
		t.Fatalf("parseHeaders() error = %v", err)
	}

	expected := map[string]string{
		"X-Api-Key": "secret",
		"Accept":    "text/plain",
		"X-Empty":   "",
	}
	if !reflect.DeepEqual(headers, expected) {
		t.Errorf("parseHeaders() = %v, want %v", headers, expected)
	}

	for _, invalid := range []string{"no-colon", ": value"} {
		if _, err := parseHeaders([]string{invalid}); err == nil {
			t.Errorf("parseHeaders(%q) expected an error", invalid)
		}
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs("query", []string{"tag=a", "tag=b", "page=2", "q=x=y"})
	if err != nil {
		t.Fatalf("parsePairs() error = %v", err)
	}

	expected := map[string][]string{
		"tag":  {"a", "b"},
		"page": {"2"},
		"q":    {"x=y"},
	}
	if !reflect.DeepEqual(pairs, expected) {
		t.Errorf("parsePairs() = %v, want %v", pairs, expected)
	}

	params := queryParams(pairs)
	if !reflect.DeepEqual(params["tag"], []string{"a", "b"}) {
		t.Errorf("Expected repeated keys to become a list, got %v", params["tag"])
	}
	if params["page"] != "2" {
		t.Errorf("Expected a single value to stay a string, got %v", params["page"])
	}

	if last := lastValues(pairs); last["tag"] != "b" {
		t.Errorf("lastValues() kept %q, want %q", last["tag"], "b")
	}

	if _, err := parsePairs("form", []string{"novalue"}); err == nil {
		t.Error("Expected an error for a pair without '='")
	}
	if _, err := parsePairs("form", []string{"=value"}); err == nil {
		t.Error("Expected an error for a pair without a key")
	}
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		value    string
		username string
		password string
	}{
		{"admin:secret", "admin", "secret"},
		{"admin", "admin", ""},
		{"admin:pa:ss", "admin", "pa:ss"},
	}

	for _, tt := range tests {
		username, password := parseUser(tt.value)
		if username != tt.username || password != tt.password {
			t.Errorf("parseUser(%q) = %q, %q, want %q, %q", tt.value, username, password, tt.username, tt.password)
		}
	}
}

func TestExitCode(t *testing.T) {
	if code := ExitCode(nil); code != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", code)
	}
	if code := ExitCode(exitErrorf(ExitErrorStatus, "server answered %d", 500)); code != ExitErrorStatus {
		t.Errorf("ExitCode() = %d, want %d", code, ExitErrorStatus)
	}
	if code := ExitCode(errors.New("unknown flag")); code != ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", code, ExitFailure)
	}
}
