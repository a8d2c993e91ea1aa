package sttp

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Get extracts a value from the JSON response body using a JSONPath
// expression such as "$.users[0].name". Strings are returned unquoted,
// objects and arrays as raw JSON and null as "null".
func (r *Response) Get(path string) (string, error) {
	if len(r.body) == 0 {
		return "", errors.New("empty response body")
	}
	if path == "" {
		return "", errors.New("empty JSONPath expression")
	}

	result := gjson.GetBytes(r.body, convertToGjsonPath(path))
	if !result.Exists() {
		return "", errors.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// GetAll extracts several values at once. The returned map holds every
// value that could be extracted, even when an error is returned.
func (r *Response) GetAll(paths map[string]string) (map[string]string, error) {
	results := make(map[string]string, len(paths))
	var failures []string

	for name, path := range paths {
		value, err := r.Get(path)
		if err != nil {
			failures = append(failures, name+": "+err.Error())
			continue
		}
		results[name] = value
	}

	if len(failures) > 0 {
		return results, errors.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

// convertToGjsonPath converts a JSONPath expression to a gjson path:
// $.users[0].name becomes users.0.name.
func convertToGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this"
	}
	path = strings.TrimPrefix(path, ".")

	// Bracket notation with quotes: ['name'] or ["name"]
	path = strings.NewReplacer("['", ".", "']", "", "[\"", ".", "\"]", "").Replace(path)

	// Array indexes: [0] -> .0
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)

	return strings.TrimPrefix(path, ".")
}
