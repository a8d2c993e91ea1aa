package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their name in the profiles file.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is returned when a profiles file fails validation.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return "invalid profiles file: " + strings.Join(msgs, ", ")
}

// Validate checks every environment and profile. Base URLs may still hold
// {{var}} placeholders here; they are checked by Resolve.
func (f *File) Validate() error {
	var found ValidationErrors

	for _, name := range sortedKeys(f.Environments) {
		found = append(found, collect("environments."+name, validate.StructExcept(f.Environments[name], "BaseURL"))...)
	}
	for _, name := range sortedKeys(f.Profiles) {
		found = append(found, collect("profiles."+name, validate.StructExcept(f.Profiles[name], "BaseURL"))...)
	}

	if len(found) > 0 {
		return found
	}
	return nil
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(file *File, envName string) error {
	if _, ok := file.Environments[envName]; !ok {
		return errors.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateProfile validates that a profile exists
func ValidateProfile(file *File, profileName string) error {
	if _, ok := file.Profiles[profileName]; !ok {
		return errors.Errorf("profile not found: %s", profileName)
	}
	return nil
}

func validateStruct(path string, s any) error {
	if found := collect(path, validate.Struct(s)); len(found) > 0 {
		return found
	}
	return nil
}

// collect turns validator errors into ValidationErrors with readable messages.
func collect(path string, err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Path: path, Message: err.Error()}}
	}

	var out ValidationErrors
	for _, e := range fieldErrs {
		var msg string
		switch e.Tag() {
		case "url":
			msg = fmt.Sprintf("must be a valid URL, got %q", e.Value())
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
		case "gte":
			msg = fmt.Sprintf("must be greater than or equal to %s", e.Param())
		default:
			msg = fmt.Sprintf("failed on the '%s' tag", e.Tag())
		}
		out = append(out, ValidationError{Path: path + "." + e.Field(), Message: msg})
	}
	return out
}

// parseDurationString parses duration strings like "30s", "5m" or "1 minute"
func parseDurationString(duration string) (time.Duration, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, errors.New("duration cannot be empty")
	}

	if d, err := time.ParseDuration(duration); err == nil {
		return d, nil
	}

	duration = strings.ReplaceAll(strings.ToLower(duration), " ", "")

	// Longer words first so "seconds" is not left as "s" + "s".
	replacements := []struct{ word, abbrev string }{
		{"milliseconds", "ms"},
		{"millisecond", "ms"},
		{"seconds", "s"},
		{"second", "s"},
		{"minutes", "m"},
		{"minute", "m"},
	}
	for _, r := range replacements {
		duration = strings.ReplaceAll(duration, r.word, r.abbrev)
	}

	return time.ParseDuration(duration)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
