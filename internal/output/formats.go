package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/sttp/internal/stats"
	"github.com/wesleyorama2/sttp/sttp"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(name string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(name)); format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.Errorf("unknown output format %q (expected text, json or yaml)", name)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req *sttp.RequestDescriptor) string
	FormatResponse(resp *sttp.Response) string
	FormatExtracted(values map[string]string) string
	FormatSummary(s stats.Summary) string
}

// RequestData represents the structured data of a request
type RequestData struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Username  string            `json:"username,omitempty" yaml:"username,omitempty"`
	Body      interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	TimeoutMs int64             `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an exchange
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of a response
type ResponseData struct {
	StatusCode    int               `json:"statusCode" yaml:"statusCode"`
	Status        string            `json:"status" yaml:"status"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body          interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	Timing        TimingData        `json:"timing" yaml:"timing"`
	Timestamp     string            `json:"timestamp" yaml:"timestamp"`
	ContentLength int64             `json:"contentLength,omitempty" yaml:"contentLength,omitempty"`
}

// SummaryData represents the statistics of repeated exchanges
type SummaryData struct {
	Count       int64            `json:"count" yaml:"count"`
	Errors      int64            `json:"errors" yaml:"errors"`
	Failures    int64            `json:"failures" yaml:"failures"`
	SuccessRate float64          `json:"successRate" yaml:"successRate"`
	MinMs       float64          `json:"minMs" yaml:"minMs"`
	MeanMs      float64          `json:"meanMs" yaml:"meanMs"`
	P50Ms       float64          `json:"p50Ms" yaml:"p50Ms"`
	P90Ms       float64          `json:"p90Ms" yaml:"p90Ms"`
	P99Ms       float64          `json:"p99Ms" yaml:"p99Ms"`
	MaxMs       float64          `json:"maxMs" yaml:"maxMs"`
	Statuses    map[string]int64 `json:"statuses,omitempty" yaml:"statuses,omitempty"`
}

func newRequestData(req *sttp.RequestDescriptor) RequestData {
	headers := make(map[string]string, len(req.Headers))
	for key := range req.Headers {
		headers[key] = req.Headers.Get(key)
	}

	data := RequestData{
		Method:    req.Method,
		URL:       requestURL(req),
		Headers:   headers,
		Body:      req.Data,
		TimeoutMs: req.Timeout.Milliseconds(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if req.Auth != nil {
		data.Username = req.Auth.Username
	}
	if data.Body == "" {
		data.Body = nil
	}
	return data
}

func newResponseData(resp *sttp.Response) ResponseData {
	headers := make(map[string]string)
	for key, values := range resp.Headers() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	data := ResponseData{
		StatusCode: resp.Status(),
		Status:     resp.StatusText(),
		Headers:    headers,
		Timing: TimingData{
			DNSLookup:       resp.GetDNSLookupTimeMillis(),
			TCPConnection:   resp.GetTCPConnectTimeMillis(),
			TLSHandshake:    resp.GetTLSHandshakeTimeMillis(),
			TimeToFirstByte: resp.GetTimeToFirstByteMillis(),
			ContentTransfer: resp.GetContentTransferTimeMillis(),
			Total:           resp.GetTotalTimeMillis(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if resp.String() != "" {
		data.Body = resp.Payload()
	}

	if contentLength := resp.Header("Content-Length"); contentLength != "" {
		if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			data.ContentLength = length
		}
	}

	return data
}

func newSummaryData(s stats.Summary) SummaryData {
	data := SummaryData{
		Count:       s.Count,
		Errors:      s.Errors,
		Failures:    s.Failures,
		SuccessRate: s.SuccessRate(),
		MinMs:       millis(s.Min),
		MeanMs:      millis(s.Mean),
		P50Ms:       millis(s.P50),
		P90Ms:       millis(s.P90),
		P99Ms:       millis(s.P99),
		MaxMs:       millis(s.Max),
	}
	if len(s.Statuses) > 0 {
		data.Statuses = make(map[string]int64, len(s.Statuses))
		for _, sc := range s.Statuses {
			data.Statuses[strconv.Itoa(sc.Status)] = sc.Count
		}
	}
	return data
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// JSONFormatter formats output as a stream of JSON documents, one per line
// unless Pretty is set
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(kind string, v interface{}) string {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal %s: %s"}`+"\n", kind, err)
	}

	return string(output) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req *sttp.RequestDescriptor) string {
	return f.marshal("request", map[string]RequestData{"request": newRequestData(req)})
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *sttp.Response) string {
	return f.marshal("response", map[string]ResponseData{"response": newResponseData(resp)})
}

// FormatExtracted formats extracted values as JSON
func (f *JSONFormatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	return f.marshal("extracted values", map[string]map[string]string{"extracted": values})
}

// FormatSummary formats the statistics of repeated exchanges as JSON
func (f *JSONFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal("summary", map[string]SummaryData{"summary": newSummaryData(s)})
}

// YAMLFormatter formats output as a stream of YAML documents
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(kind string, v interface{}) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("---\nerror: Failed to marshal %s: %s\n", kind, err)
	}
	return "---\n" + string(output)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req *sttp.RequestDescriptor) string {
	return f.marshal("request", map[string]RequestData{"request": newRequestData(req)})
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *sttp.Response) string {
	return f.marshal("response", map[string]ResponseData{"response": newResponseData(resp)})
}

// FormatExtracted formats extracted values as YAML
func (f *YAMLFormatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	return f.marshal("extracted values", map[string]map[string]string{"extracted": values})
}

// FormatSummary formats the statistics of repeated exchanges as YAML
func (f *YAMLFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal("summary", map[string]SummaryData{"summary": newSummaryData(s)})
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: !noColor}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
