package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wesleyorama2/sttp/internal/stats"
	"github.com/wesleyorama2/sttp/sttp"
)

// Formatter is responsible for formatting requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
	colors  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  colors,
	}
}

// FormatRequest formats a request descriptor for display
func (f *Formatter) FormatRequest(req *sttp.RequestDescriptor) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.colors.Method.Sprint(req.Method),
		f.colors.URL.Sprint(requestURL(req))))

	if f.Verbose || len(req.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, key := range sortedKeys(req.Headers) {
			for _, value := range req.Headers[key] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.HeaderKey.Sprint(key), value))
			}
		}
	}

	if req.Auth != nil {
		buf.WriteString(fmt.Sprintf("  Auth: basic %s\n", req.Auth.Username))
	}

	if req.Data != nil && req.Data != "" {
		buf.WriteString("  Body: ")
		buf.WriteString(formatBody(req.Data))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a response for display
func (f *Formatter) FormatResponse(resp *sttp.Response) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.colors.Status(resp.Status()).Sprint(resp.StatusText()),
		resp.GetTotalTimeMillis()))

	if f.Verbose {
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", resp.GetDNSLookupTimeMillis()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", resp.GetTCPConnectTimeMillis()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", resp.GetTLSHandshakeTimeMillis()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", resp.GetTimeToFirstByteMillis()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", resp.GetContentTransferTimeMillis()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", resp.GetTotalTimeMillis()))

		headers := resp.Headers()
		buf.WriteString("  Headers:\n")
		for _, key := range sortedKeys(headers) {
			for _, value := range headers[key] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.HeaderKey.Sprint(key), value))
			}
		}
	}

	if body := resp.String(); body != "" {
		buf.WriteString("  Body:\n  ")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatExtracted formats values extracted from a response body
func (f *Formatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString("  Extracted:\n")
	for _, name := range sortedKeys(values) {
		buf.WriteString(fmt.Sprintf("    %s = %s\n", f.colors.Highlight.Sprint(name), values[name]))
	}
	return buf.String()
}

// FormatSummary formats the statistics of repeated exchanges
func (f *Formatter) FormatSummary(s stats.Summary) string {
	var buf strings.Builder

	icon := SuccessIcon(f.NoColor)
	if s.Errors > 0 || s.Failures > 0 {
		icon = ErrorIcon(f.NoColor)
	}

	buf.WriteString(fmt.Sprintf("%s SUMMARY: %d requests, %d error responses, %d failed, %.1f%% success\n",
		icon, s.Count, s.Errors, s.Failures, s.SuccessRate()*100))

	if s.Count > s.Failures {
		buf.WriteString(fmt.Sprintf("  Latency: min %s  mean %s  p50 %s  p90 %s  p99 %s  max %s\n",
			round(s.Min), round(s.Mean), round(s.P50), round(s.P90), round(s.P99), round(s.Max)))
	}

	if len(s.Statuses) > 0 {
		parts := make([]string, 0, len(s.Statuses))
		for _, sc := range s.Statuses {
			parts = append(parts, fmt.Sprintf("%s×%d", f.colors.Status(sc.Status).Sprint(sc.Status), sc.Count))
		}
		buf.WriteString("  Status:  " + strings.Join(parts, "  ") + "\n")
	}

	return buf.String()
}

func requestURL(req *sttp.RequestDescriptor) string {
	fullURL, err := req.FullURL()
	if err != nil {
		return req.URL
	}
	return fullURL
}

func formatBody(data any) string {
	switch body := data.(type) {
	case string:
		return formatJSONString(body)
	case []byte:
		return formatJSONString(string(body))
	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprintf("%v", body)
		}
		return formatJSONString(string(jsonBody))
	}
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond)
	default:
		return d
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
