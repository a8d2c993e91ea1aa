package sttp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PayloadFormat selects how the request payload is encoded before it is
// handed to the transport.
type PayloadFormat int

const (
	// FormatJSON passes the payload to the transport unchanged, to be
	// serialized as JSON.
	FormatJSON PayloadFormat = iota

	// FormatFormParams encodes the payload as application/x-www-form-urlencoded.
	FormatFormParams
)

// String returns the name used in profiles files and CLI output.
func (f PayloadFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatFormParams:
		return "form"
	default:
		return "PayloadFormat(" + strconv.Itoa(int(f)) + ")"
	}
}

// BasicAuth holds the credentials for HTTP basic authentication.
// Either member may be empty.
type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// RequestConfig is the configuration accumulated by a PendingRequest.
type RequestConfig struct {
	BaseURL       string
	Headers       map[string]string
	QueryParams   map[string]any
	Payload       any
	PayloadFormat PayloadFormat
	Auth          *BasicAuth
	Timeout       time.Duration
	Options       map[string]any
}

func newRequestConfig() RequestConfig {
	return RequestConfig{
		Headers:     make(map[string]string),
		QueryParams: make(map[string]any),
		Options:     make(map[string]any),
	}
}

// clone returns a copy that shares no maps with c.
func (c RequestConfig) clone() RequestConfig {
	out := c
	out.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	out.QueryParams = make(map[string]any, len(c.QueryParams))
	for k, v := range c.QueryParams {
		out.QueryParams[k] = v
	}
	out.Options = make(map[string]any, len(c.Options))
	for k, v := range c.Options {
		out.Options[k] = v
	}
	if c.Auth != nil {
		auth := *c.Auth
		out.Auth = &auth
	}
	return out
}

// mergeHeaders merges src into dst. Header names are case-insensitive, so a
// key in src replaces any key in dst that differs only by case.
func mergeHeaders(dst, src map[string]string) {
	for key, value := range src {
		for existing := range dst {
			if existing != key && strings.EqualFold(existing, key) {
				delete(dst, existing)
			}
		}
		dst[key] = value
	}
}

// mergeQueryParams validates every value in src before merging it into dst.
func mergeQueryParams(dst, src map[string]any) error {
	for key, value := range src {
		if _, err := formatParam(value); err != nil {
			return invalidArgument("query parameter %q: %v", key, err)
		}
	}
	for key, value := range src {
		dst[key] = value
	}
	return nil
}

// encodeQueryParams converts the configured query parameters into url.Values.
// Nil values are skipped.
func encodeQueryParams(params map[string]any) (url.Values, error) {
	values := make(url.Values, len(params))
	for key, value := range params {
		formatted, err := formatParam(value)
		if err != nil {
			return nil, invalidArgument("query parameter %q: %v", key, err)
		}
		for _, v := range formatted {
			values.Add(key, v)
		}
	}
	return values, nil
}

// formatParam renders a scalar, or a slice of scalars, as parameter values.
func formatParam(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		var out []string
		for _, item := range v {
			formatted, err := formatScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, formatted)
		}
		return out, nil
	default:
		formatted, err := formatScalar(v)
		if err != nil {
			return nil, err
		}
		return []string{formatted}, nil
	}
}

func formatScalar(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}
