package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// parseHeaders parses "Name: value" header flags.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, header := range values {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, errors.Errorf("invalid header %q (expected \"Name: value\")", header)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

// parsePairs parses repeated key=value flags. A key given more than once
// keeps every value, in order.
func parsePairs(flag string, values []string) (map[string][]string, error) {
	pairs := make(map[string][]string, len(values))
	for _, pair := range values {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("invalid --%s value %q (expected key=value)", flag, pair)
		}
		pairs[key] = append(pairs[key], value)
	}
	return pairs, nil
}

// queryParams turns parsed --query pairs into builder parameters: a single
// value stays a string, repeated keys become a list.
func queryParams(pairs map[string][]string) map[string]any {
	params := make(map[string]any, len(pairs))
	for key, values := range pairs {
		if len(values) == 1 {
			params[key] = values[0]
		} else {
			params[key] = values
		}
	}
	return params
}

// lastValues keeps the last value given for every key.
func lastValues(pairs map[string][]string) map[string]string {
	out := make(map[string]string, len(pairs))
	for key, values := range pairs {
		out[key] = values[len(values)-1]
	}
	return out
}

// parseUser splits "user:password". A missing password is empty.
func parseUser(value string) (string, string) {
	username, password, _ := strings.Cut(value, ":")
	return username, password
}

// parseURL adds the http scheme to targets given without one, like curl
// does. Relative targets are left alone when a base URL will resolve them.
func parseURL(target string, hasBaseURL bool) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if hasBaseURL && (target == "" || strings.HasPrefix(target, "/") || !looksLikeHost(target)) {
		return target
	}
	return "http://" + target
}

// looksLikeHost reports whether the first path segment of target is a host
// name or address, e.g. "example.com/path" or "localhost:8080".
func looksLikeHost(target string) bool {
	host := target
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if host == "localhost" || strings.HasPrefix(host, "localhost:") {
		return true
	}
	u, err := url.Parse(fmt.Sprintf("http://%s", host))
	if err != nil || u.Hostname() == "" {
		return false
	}
	return strings.Contains(u.Hostname(), ".") || u.Port() != ""
}
