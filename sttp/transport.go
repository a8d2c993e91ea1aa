package sttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Transport performs the network I/O of an exchange.
//
// RoundTrip returns a *TransportResponse for every exchange that reached a
// server, whatever its status code, and an error only when no response was
// obtained.
type Transport interface {
	RoundTrip(ctx context.Context, req *RequestDescriptor) (*TransportResponse, error)
}

// TransportFunc adapts an ordinary function to the Transport interface.
type TransportFunc func(ctx context.Context, req *RequestDescriptor) (*TransportResponse, error)

// RoundTrip calls f(ctx, req).
func (f TransportFunc) RoundTrip(ctx context.Context, req *RequestDescriptor) (*TransportResponse, error) {
	return f(ctx, req)
}

// TransportResponse is the raw outcome of an exchange that reached a server.
type TransportResponse struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Timing     TimingInfo
}

// DefaultTransport is the transport used by builders created without
// WithTransport.
var DefaultTransport Transport = NewHTTPTransport()

// HTTPTransport is a Transport backed by net/http that records detailed
// timing information. HTTPTransport is safe for concurrent use.
type HTTPTransport struct {
	httpClient     *http.Client
	defaultTimeout time.Duration
	clock          clock.Clock
	logger         Logger
}

// TransportOption is a function that configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// NewHTTPTransport creates a transport with the given options.
//
// Example:
//
//	transport := sttp.NewHTTPTransport(
//	    sttp.WithDefaultTimeout(10*time.Second),
//	    sttp.WithTransportLogger(log.Log),
//	)
//
//	resp, err := sttp.NewPendingRequest(sttp.WithTransport(transport)).
//	    Get(ctx, "https://api.example.com/users")
func NewHTTPTransport(options ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		defaultTimeout: 30 * time.Second,
		clock:          clock.New(),
		logger:         DiscardLogger,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// WithHTTPClient sets a custom *http.Client.
// Use this for advanced configuration like proxies or custom TLS settings.
func WithHTTPClient(httpClient *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.httpClient = httpClient
	}
}

// WithDefaultTimeout sets the timeout applied to exchanges whose descriptor
// carries none. The default is 30 seconds; zero disables it.
func WithDefaultTimeout(timeout time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		t.defaultTimeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// WARNING: This should only be used for testing purposes.
func WithInsecureSkipVerify() TransportOption {
	return func(t *HTTPTransport) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		t.httpClient.Transport = transport
	}
}

// WithClock sets the clock used to measure timing information.
func WithClock(c clock.Clock) TransportOption {
	return func(t *HTTPTransport) {
		t.clock = c
	}
}

// WithTransportLogger sets the logger reporting each exchange.
func WithTransportLogger(logger Logger) TransportOption {
	return func(t *HTTPTransport) {
		t.logger = validLoggerOrDefault(logger)
	}
}

// CloseIdleConnections closes the idle connections kept by the underlying client.
func (t *HTTPTransport) CloseIdleConnections() {
	t.httpClient.CloseIdleConnections()
}

// RoundTrip implements Transport.
//
// The "maxRedirects" option (an int) limits the number of redirects
// followed; 0 returns the first redirect response as is.
func (t *HTTPTransport) RoundTrip(ctx context.Context, d *RequestDescriptor) (*TransportResponse, error) {
	fullURL, err := d.FullURL()
	if err != nil {
		return nil, err
	}

	body, contentType, err := EncodeBody(d.Data)
	if err != nil {
		return nil, err
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = t.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, d.Method, fullURL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range d.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	// Credentials win over an Authorization header set by hand.
	if d.Auth != nil {
		httpReq.SetBasicAuth(d.Auth.Username, d.Auth.Password)
	}

	client, err := t.clientFor(d.Options)
	if err != nil {
		return nil, err
	}

	timing := TimingInfo{
		StartTime: t.clock.Now(),
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, t.trace(&timing)))

	t.logger.Debugf("> %s %s", d.Method, fullURL)

	httpResp, err := client.Do(httpReq)
	if err != nil {
		t.logger.Warnf("sttp: %s %s failed: %s", d.Method, fullURL, err.Error())
		return nil, err
	}
	defer httpResp.Body.Close()

	timing.TotalTime = t.clock.Since(timing.StartTime)

	contentTransferStart := t.clock.Now()
	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		t.logger.Warnf("sttp: reading response body of %s %s: %s", d.Method, fullURL, err.Error())
		return nil, errors.Wrap(err, "reading response body")
	}
	timing.ContentTransferTime = t.clock.Since(contentTransferStart)

	t.logger.Debugf("< %s", httpResp.Status)

	return &TransportResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       bodyBytes,
		Timing:     timing,
	}, nil
}

// trace creates a ClientTrace that fills timing as the exchange progresses.
func (t *HTTPTransport) trace(timing *TimingInfo) *httptrace.ClientTrace {
	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var connectDone bool

	// Tracks the end time of the last completed phase
	lastPhaseEnd := timing.StartTime

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = t.clock.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsEnd := t.clock.Now()
			timing.DNSLookupTime = dnsEnd.Sub(dnsStart)
			lastPhaseEnd = dnsEnd
		},
		ConnectStart: func(network, addr string) {
			connectStart = t.clock.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				connectEnd := t.clock.Now()
				timing.TCPConnectTime = connectEnd.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = connectEnd
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsHandshakeStart = t.clock.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				tlsHandshakeEnd := t.clock.Now()
				timing.TLSHandshakeTime = tlsHandshakeEnd.Sub(tlsHandshakeStart)
				lastPhaseEnd = tlsHandshakeEnd
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = t.clock.Now().Sub(lastPhaseEnd)
		},
	}
}

func (t *HTTPTransport) clientFor(options map[string]any) (*http.Client, error) {
	maxRedirects, ok, err := MaxRedirects(options)
	if err != nil {
		return nil, err
	}
	if !ok {
		return t.httpClient, nil
	}

	client := *t.httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}
	return &client, nil
}

// MaxRedirects reads the "maxRedirects" transport option. ok is false when
// the option is not set.
func MaxRedirects(options map[string]any) (maxRedirects int, ok bool, err error) {
	raw, ok := options["maxRedirects"]
	if !ok {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		return v, true, nil
	case float64:
		return int(v), true, nil
	default:
		return 0, false, invalidArgument("option %q must be an int, got %T", "maxRedirects", raw)
	}
}

// EncodeBody serializes the Data of a descriptor into a request body.
// Strings, byte slices and readers are sent as is; any other value is
// marshaled as JSON, in which case the returned content type is
// application/json.
func EncodeBody(data any) (io.Reader, string, error) {
	switch body := data.(type) {
	case nil:
		return nil, "", nil
	case string:
		if body == "" {
			return nil, "", nil
		}
		return strings.NewReader(body), "", nil
	case []byte:
		return bytes.NewReader(body), "", nil
	case io.Reader:
		return body, "", nil
	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, "", errors.Wrap(err, "encoding JSON payload")
		}
		return bytes.NewReader(jsonBody), contentTypeJSON, nil
	}
}
