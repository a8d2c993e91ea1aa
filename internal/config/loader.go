package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/sttp/sttp"
)

// File represents a profiles file
type File struct {
	Environments map[string]Environment `json:"environments" yaml:"environments"`
	Profiles     map[string]Profile     `json:"profiles" yaml:"profiles"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" validate:"omitempty,url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Profile is a named set of request settings applied to a builder before
// the command line flags.
type Profile struct {
	BaseURL     string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" validate:"omitempty,url"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
	Token       string            `json:"token,omitempty" yaml:"token,omitempty"`
	TokenType   string            `json:"tokenType,omitempty" yaml:"tokenType,omitempty"`
	Username    string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string            `json:"password,omitempty" yaml:"password,omitempty"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=json form"`
	TimeoutMs   int               `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty" validate:"gte=0"`
	Accept      string            `json:"accept,omitempty" yaml:"accept,omitempty"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a profiles file. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON, where comments and trailing commas are
// allowed. ${VAR} placeholders are replaced with the process environment
// before parsing.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("profiles file not found: %s", path)
		}
		return nil, errors.Wrap(err, "reading profiles file")
	}

	data = []byte(ExpandEnv(string(data)))

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = unmarshalJSON(data, &file)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing profiles file %s", path)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return &file, nil
}

func unmarshalJSON(data []byte, v interface{}) error {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(standard, v)
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. With no paths it loads
// ./.env if present.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Wrap(err, "loading .env file")
	}
	return nil
}

// ExpandEnv replaces ${VAR} placeholders with values from the process
// environment. Unset variables expand to the empty string.
func ExpandEnv(input string) string {
	return envPlaceholder.ReplaceAllStringFunc(input, func(match string) string {
		return os.Getenv(envPlaceholder.FindStringSubmatch(match)[1])
	})
}

// Resolve returns the named profile merged over the named environment, with
// {{var}} placeholders replaced by the environment's variables. Either name
// may be empty.
func (f *File) Resolve(profileName, envName string) (*Profile, error) {
	var env Environment
	if envName != "" {
		if err := ValidateEnvironment(f, envName); err != nil {
			return nil, err
		}
		env = f.Environments[envName]
	}

	var profile Profile
	if profileName != "" {
		if err := ValidateProfile(f, profileName); err != nil {
			return nil, err
		}
		profile = f.Profiles[profileName]
	}

	vars := env.Vars
	resolved := Profile{
		BaseURL:     ProcessEnvironment(firstNonEmpty(profile.BaseURL, env.BaseURL), vars),
		Headers:     ProcessEnvironmentInMap(MergeEnvironments(env.Headers, profile.Headers), vars),
		QueryParams: ProcessEnvironmentInMap(profile.QueryParams, vars),
		Token:       ProcessEnvironment(profile.Token, vars),
		TokenType:   profile.TokenType,
		Username:    ProcessEnvironment(profile.Username, vars),
		Password:    ProcessEnvironment(profile.Password, vars),
		Format:      profile.Format,
		TimeoutMs:   profile.TimeoutMs,
		Accept:      ProcessEnvironment(profile.Accept, vars),
	}

	path := "profiles." + profileName
	if profileName == "" {
		path = "environments." + envName
	}
	if err := validateStruct(path, resolved); err != nil {
		return nil, err
	}

	return &resolved, nil
}

// Apply configures req with the profile's settings and returns it. Profile
// headers are applied after the payload format so they can override the
// Content-Type it sets.
func (p *Profile) Apply(req *sttp.PendingRequest) *sttp.PendingRequest {
	switch p.Format {
	case "form":
		req.AsFormParams()
	case "json":
		req.AsJSON()
	}

	if p.BaseURL != "" {
		req.WithBaseURL(p.BaseURL)
	}
	if len(p.Headers) > 0 {
		req.WithHeaders(p.Headers)
	}
	if len(p.QueryParams) > 0 {
		params := make(map[string]any, len(p.QueryParams))
		for key, value := range p.QueryParams {
			params[key] = value
		}
		req.WithQueryParams(params)
	}
	if p.Token != "" {
		if p.TokenType != "" {
			req.WithToken(p.Token, p.TokenType)
		} else {
			req.WithToken(p.Token)
		}
	}
	if p.Username != "" || p.Password != "" {
		req.WithBasicAuth(p.Username, p.Password)
	}
	if p.TimeoutMs > 0 {
		req.WithTimeout(p.TimeoutMs)
	}
	if p.Accept != "" {
		req.Accept(p.Accept)
	}

	return req
}

// ProcessEnvironment replaces {{name}} placeholders in input with values from env.
func ProcessEnvironment(input string, env map[string]string) string {
	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap processes environment variables in every value of a map
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// MergeEnvironments merges two maps, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}

// ParseTimeout parses a timeout given either as milliseconds ("1500") or as
// a Go duration ("1.5s").
func ParseTimeout(value string) (int, error) {
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		if ms < 0 {
			return 0, errors.Errorf("timeout must not be negative: %s", value)
		}
		return ms, nil
	}
	d, err := parseDurationString(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", value)
	}
	if d < 0 {
		return 0, errors.Errorf("timeout must not be negative: %s", value)
	}
	return int(d.Milliseconds()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
