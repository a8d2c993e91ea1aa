package sttp

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// PendingRequest accumulates request configuration through chained calls
// and executes exchanges with it. Use NewPendingRequest or Create to make one.
//
// Configuration methods return the same PendingRequest to allow method
// chaining. A PendingRequest is safe for concurrent use: each exchange works
// on a snapshot of the configuration taken when it starts.
type PendingRequest struct {
	mu        sync.Mutex
	config    RequestConfig
	err       error
	transport Transport
	logger    Logger
}

// Option configures a PendingRequest at construction time.
type Option func(*PendingRequest)

// WithTransport sets the transport that executes exchanges.
// The default is DefaultTransport.
func WithTransport(transport Transport) Option {
	return func(p *PendingRequest) {
		p.transport = transport
	}
}

// WithLogger sets the logger used to report exchanges and configuration errors.
func WithLogger(logger Logger) Option {
	return func(p *PendingRequest) {
		p.logger = logger
	}
}

// NewPendingRequest creates a builder that sends JSON payloads by default.
//
// Example:
//
//	req := sttp.NewPendingRequest().
//	    WithBaseURL("https://api.example.com").
//	    WithQueryParams(map[string]any{"limit": 10}).
//	    AcceptJSON()
//
//	resp, err := req.Get(ctx, "/users")
func NewPendingRequest(options ...Option) *PendingRequest {
	p := &PendingRequest{
		config:    newRequestConfig(),
		transport: DefaultTransport,
	}

	for _, option := range options {
		option(p)
	}

	if p.transport == nil {
		p.transport = DefaultTransport
	}
	p.logger = validLoggerOrDefault(p.logger)

	return p.AsJSON()
}

// update applies fn to the configuration. The first error is kept and
// returned by every later exchange.
func (p *PendingRequest) update(fn func(c *RequestConfig) error) *PendingRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := fn(&p.config); err != nil {
		p.logger.Warnf("sttp: %s", err.Error())
		if p.err == nil {
			p.err = err
		}
	}
	return p
}

// Err returns the first configuration error recorded by this builder.
func (p *PendingRequest) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Transport returns the transport used for exchanges.
func (p *PendingRequest) Transport() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transport
}

// RequestConfig returns a copy of the accumulated configuration.
func (p *PendingRequest) RequestConfig() RequestConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.clone()
}

// Clone returns an independent builder with a copy of the configuration.
// The transport and logger are shared.
func (p *PendingRequest) Clone() *PendingRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &PendingRequest{
		config:    p.config.clone(),
		err:       p.err,
		transport: p.transport,
		logger:    p.logger,
	}
}

// WithHeaders merges headers into the request headers. Values for existing
// names, compared case-insensitively, are replaced.
func (p *PendingRequest) WithHeaders(headers map[string]string) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		mergeHeaders(c.Headers, headers)
		return nil
	})
}

// WithHeader sets a single request header.
func (p *PendingRequest) WithHeader(key, value string) *PendingRequest {
	return p.WithHeaders(map[string]string{key: value})
}

// WithQueryParams merges params into the query parameters. Values must be
// scalars (strings, booleans, numbers, fmt.Stringer) or slices of scalars.
func (p *PendingRequest) WithQueryParams(params map[string]any) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		return mergeQueryParams(c.QueryParams, params)
	})
}

// RemoveQueryParams removes all query parameters.
func (p *PendingRequest) RemoveQueryParams() *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		c.QueryParams = make(map[string]any)
		return nil
	})
}

// WithBasicAuth replaces the basic authentication credentials. Empty
// values are sent as such.
func (p *PendingRequest) WithBasicAuth(username, password string) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		c.Auth = &BasicAuth{Username: username, Password: password}
		return nil
	})
}

// WithToken sets the Authorization header to "<scheme> <token>". The scheme
// defaults to "Bearer"; an empty scheme sends the bare token.
func (p *PendingRequest) WithToken(token string, scheme ...string) *PendingRequest {
	tokenType := "Bearer"
	if len(scheme) > 0 {
		tokenType = scheme[0]
	}
	return p.WithHeaders(map[string]string{
		"Authorization": strings.TrimSpace(tokenType + " " + token),
	})
}

// WithOptions shallow-merges options into the configuration. Known keys
// replace the matching setting wholesale:
//
//	baseURL, baseUrl      string
//	headers               map[string]string
//	params, queryParams   map[string]any or map[string]string
//	data, payload         any
//	timeout               int or float64 milliseconds, or time.Duration
//	auth                  BasicAuth, *BasicAuth or a map with username/password
//
// Any other key is passed through to the transport in
// RequestDescriptor.Options.
func (p *PendingRequest) WithOptions(options map[string]any) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		var firstErr error
		for key, value := range options {
			if err := applyOption(c, key, value); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

func applyOption(c *RequestConfig, key string, value any) error {
	switch key {
	case "baseURL", "baseUrl":
		baseURL, ok := value.(string)
		if !ok {
			return invalidArgument("option %q must be a string, got %T", key, value)
		}
		if err := validateBaseURL(baseURL); err != nil {
			return err
		}
		c.BaseURL = baseURL

	case "headers":
		headers, err := toStringMap(value)
		if err != nil {
			return invalidArgument("option %q: %v", key, err)
		}
		c.Headers = headers

	case "params", "queryParams":
		params := make(map[string]any)
		switch v := value.(type) {
		case map[string]any:
			if err := mergeQueryParams(params, v); err != nil {
				return err
			}
		case map[string]string:
			for k, s := range v {
				params[k] = s
			}
		default:
			return invalidArgument("option %q must be a map, got %T", key, value)
		}
		c.QueryParams = params

	case "data", "payload":
		c.Payload = value

	case "timeout":
		switch v := value.(type) {
		case int:
			c.Timeout = time.Duration(v) * time.Millisecond
		case int64:
			c.Timeout = time.Duration(v) * time.Millisecond
		case float64:
			c.Timeout = time.Duration(v * float64(time.Millisecond))
		case time.Duration:
			c.Timeout = v
		default:
			return invalidArgument("option %q must be a number of milliseconds, got %T", key, value)
		}

	case "auth":
		switch v := value.(type) {
		case BasicAuth:
			c.Auth = &v
		case *BasicAuth:
			c.Auth = v
		default:
			m, err := toStringMap(value)
			if err != nil {
				return invalidArgument("option %q: %v", key, err)
			}
			c.Auth = &BasicAuth{Username: m["username"], Password: m["password"]}
		}

	default:
		c.Options[key] = value
	}
	return nil
}

func toStringMap(value any) (map[string]string, error) {
	switch v := value.(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, s := range v {
			out[key] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for key, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("value for %q must be a string, got %T", key, item)
			}
			out[key] = s
		}
		return out, nil
	default:
		return nil, errors.Errorf("expected a map of strings, got %T", value)
	}
}

// WithPayload sets the request payload, replacing any previous one.
func (p *PendingRequest) WithPayload(payload any) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		c.Payload = payload
		return nil
	})
}

// WithTimeout sets the request timeout in milliseconds.
func (p *PendingRequest) WithTimeout(milliseconds int) *PendingRequest {
	return p.WithTimeoutDuration(time.Duration(milliseconds) * time.Millisecond)
}

// WithTimeoutInSeconds sets the request timeout in seconds.
func (p *PendingRequest) WithTimeoutInSeconds(seconds int) *PendingRequest {
	return p.WithTimeout(seconds * 1000)
}

// WithTimeoutDuration sets the request timeout.
func (p *PendingRequest) WithTimeoutDuration(timeout time.Duration) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		if timeout < 0 {
			return invalidArgument("the timeout must not be negative, got %v", timeout)
		}
		c.Timeout = timeout
		return nil
	})
}

// WithBaseURL sets the URL prefixed to relative request URLs. It is stored
// as given and resolved by the transport; an empty base URL is recorded as an
// ErrInvalidArgument.
func (p *PendingRequest) WithBaseURL(baseURL string) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		if err := validateBaseURL(baseURL); err != nil {
			return err
		}
		c.BaseURL = baseURL
		return nil
	})
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return invalidArgument("the base URL must be a non-empty string")
	}
	return nil
}

// PayloadFormat sets the payload format without touching any header.
func (p *PendingRequest) PayloadFormat(format PayloadFormat) *PendingRequest {
	return p.update(func(c *RequestConfig) error {
		if format != FormatJSON && format != FormatFormParams {
			return invalidArgument("unknown payload format %v", format)
		}
		c.PayloadFormat = format
		return nil
	})
}

// AsJSON sends the payload as JSON and sets the matching Content-Type.
func (p *PendingRequest) AsJSON() *PendingRequest {
	return p.PayloadFormat(FormatJSON).ContentType(contentTypeJSON)
}

// AsFormParams sends the payload as URL-encoded form parameters and sets
// the matching Content-Type.
func (p *PendingRequest) AsFormParams() *PendingRequest {
	return p.PayloadFormat(FormatFormParams).ContentType(contentTypeForm)
}

// Accept sets the Accept header, the content type the server should return.
func (p *PendingRequest) Accept(accept string) *PendingRequest {
	return p.WithHeader("Accept", accept)
}

// AcceptJSON asks the server to return JSON.
func (p *PendingRequest) AcceptJSON() *PendingRequest {
	return p.Accept(contentTypeJSON)
}

// ContentType sets the Content-Type header.
func (p *PendingRequest) ContentType(contentType string) *PendingRequest {
	return p.WithHeader("Content-Type", contentType)
}

// Get sends a GET request, optionally with extra query parameters for this
// exchange only.
func (p *PendingRequest) Get(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return p.send(ctx, http.MethodGet, url, exchange{queryParams: queryParams})
}

// Post sends a POST request, optionally with a payload for this exchange only.
func (p *PendingRequest) Post(ctx context.Context, url string, payload ...any) (*Response, error) {
	return p.send(ctx, http.MethodPost, url, exchange{payload: payload})
}

// Put sends a PUT request, optionally with a payload for this exchange only.
func (p *PendingRequest) Put(ctx context.Context, url string, payload ...any) (*Response, error) {
	return p.send(ctx, http.MethodPut, url, exchange{payload: payload})
}

// Patch sends a PATCH request, optionally with a payload for this exchange only.
func (p *PendingRequest) Patch(ctx context.Context, url string, payload ...any) (*Response, error) {
	return p.send(ctx, http.MethodPatch, url, exchange{payload: payload})
}

// Delete sends a DELETE request, optionally with extra query parameters for
// this exchange only.
func (p *PendingRequest) Delete(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return p.send(ctx, http.MethodDelete, url, exchange{queryParams: queryParams})
}

// Options sends an OPTIONS request, optionally with extra query parameters
// for this exchange only.
func (p *PendingRequest) Options(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return p.send(ctx, http.MethodOptions, url, exchange{queryParams: queryParams})
}

// Send executes one exchange with the given method and URL.
//
// Any HTTP response, whatever its status code, is returned as a *Response.
// An error is returned only when the builder holds a configuration error
// (matching ErrInvalidArgument) or when the transport obtained no response
// (a *TransportError).
func (p *PendingRequest) Send(ctx context.Context, method, url string) (*Response, error) {
	return p.send(ctx, method, url, exchange{})
}

// Descriptor materializes the request descriptor Send would hand to the
// transport, without sending anything.
func (p *PendingRequest) Descriptor(method, url string) (*RequestDescriptor, error) {
	config, _, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	return config.descriptor(method, url)
}

// exchange holds the verb arguments that apply to a single exchange.
type exchange struct {
	queryParams []map[string]any
	payload     []any
}

func (p *PendingRequest) snapshot() (RequestConfig, Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return RequestConfig{}, nil, p.err
	}
	return p.config.clone(), p.transport, nil
}

func (p *PendingRequest) send(ctx context.Context, method, url string, ex exchange) (*Response, error) {
	config, transport, err := p.snapshot()
	if err != nil {
		return nil, err
	}

	for _, params := range ex.queryParams {
		if err := mergeQueryParams(config.QueryParams, params); err != nil {
			return nil, err
		}
	}
	if len(ex.payload) > 0 && ex.payload[0] != nil {
		config.Payload = ex.payload[0]
	}

	desc, err := config.descriptor(method, url)
	if err != nil {
		return nil, err
	}

	p.logger.Debugf("sttp: sending %s %s", desc.Method, url)

	resp, err := transport.RoundTrip(ctx, desc)
	if err == nil && resp == nil {
		err = errors.New("transport returned neither a response nor an error")
	}
	if err != nil {
		return nil, &TransportError{Method: desc.Method, URL: url, Err: err}
	}

	return newResponse(resp), nil
}
