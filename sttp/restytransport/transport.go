// Package restytransport provides an sttp.Transport backed by go-resty.
//
// It behaves like sttp.HTTPTransport: every response, whatever its status
// code, is returned as a TransportResponse, basic auth wins over a hand-set
// Authorization header and the "maxRedirects" option is honored. Resty
// retries are never enabled.
package restytransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wesleyorama2/sttp/sttp"
)

// Transport executes exchanges with a resty client.
// Transport is safe for concurrent use.
type Transport struct {
	client         *resty.Client
	defaultTimeout time.Duration
	logger         sttp.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithClient sets the resty client. Its redirect policy is replaced.
func WithClient(client *resty.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithDefaultTimeout sets the timeout applied to exchanges whose descriptor
// carries none. The default is 30 seconds; zero disables it.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.defaultTimeout = timeout
	}
}

// WithLogger sets the logger reporting each exchange.
func WithLogger(logger sttp.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a resty-backed transport.
func New(options ...Option) *Transport {
	t := &Transport{
		defaultTimeout: 30 * time.Second,
		logger:         sttp.DiscardLogger,
	}
	for _, option := range options {
		option(t)
	}

	if t.client == nil {
		t.client = resty.New()
	}
	t.client.
		SetLogger(restyLogger{t.logger}).
		SetDisableWarn(true).
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(checkRedirect))

	return t
}

type maxRedirectsKey struct{}

// checkRedirect applies the per-exchange limit carried by the request
// context, and net/http's default of 10 otherwise.
func checkRedirect(req *http.Request, via []*http.Request) error {
	limit, ok := req.Context().Value(maxRedirectsKey{}).(int)
	if !ok {
		limit = 10
	}
	if len(via) > limit {
		return http.ErrUseLastResponse
	}
	return nil
}

// CloseIdleConnections closes the idle connections kept by the underlying client.
func (t *Transport) CloseIdleConnections() {
	t.client.GetClient().CloseIdleConnections()
}

// RoundTrip implements sttp.Transport.
func (t *Transport) RoundTrip(ctx context.Context, d *sttp.RequestDescriptor) (*sttp.TransportResponse, error) {
	fullURL, err := d.FullURL()
	if err != nil {
		return nil, err
	}

	body, contentType, err := sttp.EncodeBody(d.Data)
	if err != nil {
		return nil, err
	}

	maxRedirects, ok, err := sttp.MaxRedirects(d.Options)
	if err != nil {
		return nil, err
	}
	if ok {
		ctx = context.WithValue(ctx, maxRedirectsKey{}, maxRedirects)
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

	req := t.client.R().SetContext(ctx).EnableTrace()
	for key, values := range d.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.SetHeader("Content-Type", contentType)
	}
	if body != nil {
		req.SetBody(body)
	}
	if d.Auth != nil {
		req.SetBasicAuth(d.Auth.Username, d.Auth.Password)
	}

	t.logger.Debugf("> %s %s", d.Method, fullURL)

	resp, err := req.Execute(d.Method, fullURL)
	if err != nil {
		t.logger.Warnf("sttp: %s %s failed: %s", d.Method, fullURL, err.Error())
		return nil, err
	}

	t.logger.Debugf("< %s", resp.Status())

	trace := resp.Request.TraceInfo()
	return &sttp.TransportResponse{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
		Timing: sttp.TimingInfo{
			StartTime:           resp.Request.Time,
			DNSLookupTime:       trace.DNSLookup,
			TCPConnectTime:      trace.TCPConnTime,
			TLSHandshakeTime:    trace.TLSHandshake,
			TimeToFirstByte:     trace.ServerTime,
			ContentTransferTime: trace.ResponseTime,
			TotalTime:           trace.TotalTime,
		},
	}, nil
}

// restyLogger routes resty's own messages to an sttp.Logger.
type restyLogger struct {
	logger sttp.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.logger.Warnf(format, v...) }

func (l restyLogger) Warnf(format string, v ...interface{}) { l.logger.Warnf(format, v...) }

func (l restyLogger) Debugf(format string, v ...interface{}) { l.logger.Debugf(format, v...) }
