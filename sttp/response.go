package sttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// TimingInfo stores detailed timing information for an HTTP request.
// All durations represent the time spent in each phase of the request.
type TimingInfo struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte (TTFB) is the time from connection established to receiving the first byte
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the time from request start until the response headers arrived
	TotalTime time.Duration
}

// Response wraps a completed exchange. A Response is never modified after
// it has been created; accessors return copies of mutable data.
type Response struct {
	statusCode int
	statusText string
	headers    http.Header
	body       []byte
	timing     TimingInfo
}

// NewResponse creates a Response from a status code, headers and raw body.
// It is mostly useful to fake responses in tests.
func NewResponse(statusCode int, headers http.Header, body []byte) *Response {
	return newResponse(&TransportResponse{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Headers:    headers,
		Body:       body,
	})
}

func newResponse(tr *TransportResponse) *Response {
	headers := tr.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	body := append([]byte(nil), tr.Body...)

	return &Response{
		statusCode: tr.StatusCode,
		statusText: tr.Status,
		headers:    headers,
		body:       body,
		timing:     tr.Timing,
	}
}

// decodePayload returns the decoded JSON value for JSON bodies and the body
// text otherwise.
func decodePayload(body []byte) any {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return string(body)
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}
	return payload
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.statusCode
}

// StatusText returns the HTTP status line, e.g. "200 OK".
func (r *Response) StatusText() string {
	return r.statusText
}

// Payload returns the response body: the decoded value for JSON bodies
// (map[string]any, []any, float64, string, bool or nil) and the body text
// for anything else. Every call decodes a fresh value.
func (r *Response) Payload() any {
	return decodePayload(r.body)
}

// Data is an alias for Payload.
func (r *Response) Data() any {
	return r.Payload()
}

// Headers returns a copy of the response headers.
func (r *Response) Headers() http.Header {
	return r.headers.Clone()
}

// Header returns the first value of the named response header, or "".
func (r *Response) Header(key string) string {
	return r.headers.Get(key)
}

// Bytes returns a copy of the raw response body.
func (r *Response) Bytes() []byte {
	return append([]byte(nil), r.body...)
}

// String returns the raw response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// Decode unmarshals the JSON response body into v.
//
// Example:
//
//	var users []User
//	if err := resp.Decode(&users); err != nil {
//	    log.Fatal(err)
//	}
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.body, v)
}

// Timing returns the timing information recorded by the transport.
func (r *Response) Timing() TimingInfo {
	return r.timing
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.statusCode >= 300 && r.statusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.statusCode >= 400 && r.statusCode < 500
}

// IsServerError returns true if the response status code is 500 or above.
func (r *Response) IsServerError() bool {
	return r.statusCode >= 500
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.IsClientError() || r.IsServerError()
}

// GetTotalTimeMillis returns the total time in milliseconds.
func (r *Response) GetTotalTimeMillis() int64 {
	return r.timing.TotalTime.Milliseconds()
}

// GetDNSLookupTimeMillis returns the DNS lookup time in milliseconds.
func (r *Response) GetDNSLookupTimeMillis() int64 {
	return r.timing.DNSLookupTime.Milliseconds()
}

// GetTCPConnectTimeMillis returns the TCP connection time in milliseconds.
func (r *Response) GetTCPConnectTimeMillis() int64 {
	return r.timing.TCPConnectTime.Milliseconds()
}

// GetTLSHandshakeTimeMillis returns the TLS handshake time in milliseconds.
func (r *Response) GetTLSHandshakeTimeMillis() int64 {
	return r.timing.TLSHandshakeTime.Milliseconds()
}

// GetTimeToFirstByteMillis returns the time to first byte in milliseconds.
func (r *Response) GetTimeToFirstByteMillis() int64 {
	return r.timing.TimeToFirstByte.Milliseconds()
}

// GetContentTransferTimeMillis returns the content transfer time in milliseconds.
func (r *Response) GetContentTransferTimeMillis() int64 {
	return r.timing.ContentTransferTime.Milliseconds()
}
