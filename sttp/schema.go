package sttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors collects the failures found while validating a body
// against a JSON Schema.
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// ValidateSchema validates the JSON response body against a JSON Schema.
// It returns nil when the body is valid, ValidationErrors when it is not,
// and another error when the schema or the body cannot be parsed.
func (r *Response) ValidateSchema(schema string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schema)); err != nil {
		return errors.Wrap(err, "invalid schema")
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return errors.Wrap(err, "invalid schema")
	}

	var document any
	decoder := json.NewDecoder(bytes.NewReader(r.body))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}

	if err := compiled.Validate(document); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			if found := extractValidationErrors(validationErr); len(found) > 0 {
				return found
			}
		}
		return ValidationErrors{err}
	}
	return nil
}

func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	var out ValidationErrors

	if err.Message != "" {
		out = append(out, fmt.Errorf("validation error at %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		out = append(out, extractValidationErrors(cause)...)
	}

	return out
}
