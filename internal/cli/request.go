package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/sttp/internal/config"
	"github.com/wesleyorama2/sttp/internal/output"
	"github.com/wesleyorama2/sttp/internal/stats"
	"github.com/wesleyorama2/sttp/sttp"
	"github.com/wesleyorama2/sttp/sttp/restytransport"
)

// verb describes one request subcommand.
type verb struct {
	method    string
	takesBody bool
}

var verbs = []verb{
	{method: http.MethodGet},
	{method: http.MethodPost, takesBody: true},
	{method: http.MethodPut, takesBody: true},
	{method: http.MethodPatch, takesBody: true},
	{method: http.MethodDelete},
	{method: http.MethodOptions},
}

func newRequestCmd(v verb) *cobra.Command {
	name := strings.ToLower(v.method)
	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", v.method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readRequestOptions(cmd)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			return runRequest(cmd.Context(), cmd.OutOrStdout(), v.method, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	flags.StringArrayP("query", "q", []string{}, "Query parameter as key=value (can be used multiple times)")
	flags.StringP("timeout", "t", "", "Request timeout in milliseconds or as a duration (e.g. 1500, 2s)")
	flags.String("base-url", "", "Base URL that relative request URLs are resolved against")
	flags.String("token", "", "Token sent in the Authorization header")
	flags.String("token-type", "Bearer", "Authorization scheme used with --token")
	flags.StringP("user", "u", "", "Basic auth credentials as user:password")
	flags.String("accept", "", "Value of the Accept header")
	flags.Bool("request-id", false, "Send a random X-Request-Id header")
	flags.StringArray("extract", []string{}, "Extract a value from the response body as name=$.json.path")
	flags.String("schema", "", "Validate the response body against this JSON schema file")
	flags.Int("repeat", 1, "Send the request this many times and print a latency summary")
	flags.Float64("rate", 0, "Maximum requests per second with --repeat (0 means unlimited)")
	flags.String("transport", "http", "HTTP client used for the exchange: http (net/http) or resty")
	flags.Bool("progress", false, "Show a progress bar with --repeat (default when stderr is a terminal)")
	if v.takesBody {
		flags.StringP("data", "d", "", "JSON request body")
		flags.StringArray("form", []string{}, "Form field as key=value; sends the body form encoded")
	}

	return cmd
}

// requestOptions holds the parsed flags of a request command.
type requestOptions struct {
	headers   map[string]string
	query     map[string]any
	timeout   string
	baseURL   string
	token     string
	tokenType string
	user      string
	accept    string
	requestID bool
	data      string
	form      map[string]string
	extract   map[string]string
	schema    string
	repeat    int
	rate      float64
	progress  io.Writer
	transport string

	configPath string
	env        string
	profile    string

	format  output.OutputFormat
	verbose bool
	noColor bool
}

func readRequestOptions(cmd *cobra.Command) (*requestOptions, error) {
	flags := cmd.Flags()
	opts := &requestOptions{}

	headers, _ := flags.GetStringArray("header")
	query, _ := flags.GetStringArray("query")
	extract, _ := flags.GetStringArray("extract")
	opts.timeout, _ = flags.GetString("timeout")
	opts.baseURL, _ = flags.GetString("base-url")
	opts.token, _ = flags.GetString("token")
	opts.tokenType, _ = flags.GetString("token-type")
	opts.user, _ = flags.GetString("user")
	opts.accept, _ = flags.GetString("accept")
	opts.requestID, _ = flags.GetBool("request-id")
	opts.schema, _ = flags.GetString("schema")
	opts.repeat, _ = flags.GetInt("repeat")
	opts.rate, _ = flags.GetFloat64("rate")
	progress, _ := flags.GetBool("progress")
	opts.transport, _ = flags.GetString("transport")
	opts.configPath, _ = flags.GetString("config")
	opts.env, _ = flags.GetString("env")
	opts.profile, _ = flags.GetString("profile")
	opts.verbose, _ = flags.GetBool("verbose")
	opts.noColor, _ = flags.GetBool("no-color")
	format, _ := flags.GetString("output")

	var err error
	if opts.headers, err = parseHeaders(headers); err != nil {
		return nil, err
	}

	queryPairs, err := parsePairs("query", query)
	if err != nil {
		return nil, err
	}
	opts.query = queryParams(queryPairs)

	extractPairs, err := parsePairs("extract", extract)
	if err != nil {
		return nil, err
	}
	opts.extract = lastValues(extractPairs)

	if flags.Lookup("data") != nil {
		opts.data, _ = flags.GetString("data")
		form, _ := flags.GetStringArray("form")
		formPairs, err := parsePairs("form", form)
		if err != nil {
			return nil, err
		}
		if len(formPairs) > 0 {
			opts.form = lastValues(formPairs)
		}
		if opts.data != "" && opts.form != nil {
			return nil, errors.New("--data and --form cannot be used together")
		}
	}

	if opts.repeat < 1 {
		return nil, errors.Errorf("--repeat must be at least 1, got %d", opts.repeat)
	}
	if opts.repeat > 1 && (len(opts.extract) > 0 || opts.schema != "") {
		return nil, errors.New("--extract and --schema cannot be used with --repeat")
	}
	if opts.transport != "http" && opts.transport != "resty" {
		return nil, errors.Errorf("unknown transport %q (expected http or resty)", opts.transport)
	}
	if opts.rate < 0 {
		return nil, errors.Errorf("--rate must not be negative, got %g", opts.rate)
	}
	if (opts.profile != "" || opts.env != "") && opts.configPath == "" {
		return nil, errors.New("--profile and --env need a profiles file (--config)")
	}

	if opts.format, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	opts.noColor = output.ShouldDisableColor(cmd.OutOrStdout(), opts.noColor)

	if opts.repeat > 1 && !opts.verbose && (progress || !output.ShouldDisableColor(cmd.ErrOrStderr(), false)) {
		opts.progress = cmd.ErrOrStderr()
	}

	return opts, nil
}

// buildRequest configures a builder from the profiles file, then from the
// flags, so that flags win.
func buildRequest(opts *requestOptions, transport sttp.Transport) (*sttp.PendingRequest, error) {
	req := sttp.NewPendingRequest(sttp.WithTransport(transport), sttp.WithLogger(log.Log))

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	if opts.configPath != "" {
		file, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		profile, err := file.Resolve(opts.profile, opts.env)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"profile": opts.profile, "env": opts.env}).Debug("applying profile")
		profile.Apply(req)
	}

	if opts.form != nil {
		form := make(map[string]any, len(opts.form))
		for key, value := range opts.form {
			form[key] = value
		}
		req.AsFormParams().WithPayload(form)
	}
	if opts.data != "" {
		if !json.Valid([]byte(opts.data)) {
			return nil, errors.New("--data is not valid JSON")
		}
		req.WithPayload(json.RawMessage(opts.data))
	}

	if opts.baseURL != "" {
		req.WithBaseURL(opts.baseURL)
	}
	if len(opts.headers) > 0 {
		req.WithHeaders(opts.headers)
	}
	if len(opts.query) > 0 {
		req.WithQueryParams(opts.query)
	}
	if opts.token != "" {
		req.WithToken(opts.token, opts.tokenType)
	}
	if opts.user != "" {
		req.WithBasicAuth(parseUser(opts.user))
	}
	if opts.timeout != "" {
		ms, err := config.ParseTimeout(opts.timeout)
		if err != nil {
			return nil, err
		}
		req.WithTimeout(ms)
	}
	if opts.accept != "" {
		req.Accept(opts.accept)
	}
	if opts.requestID {
		req.WithHeader("X-Request-Id", uuid.NewString())
	}

	return req, req.Err()
}

// idleCloser is a transport that keeps connections between exchanges.
type idleCloser interface {
	sttp.Transport
	CloseIdleConnections()
}

func newTransport(name string) idleCloser {
	if name == "resty" {
		return restytransport.New(restytransport.WithLogger(log.Log))
	}
	return sttp.NewHTTPTransport(sttp.WithTransportLogger(log.Log))
}

func runRequest(ctx context.Context, w io.Writer, method, target string, opts *requestOptions) error {
	transport := newTransport(opts.transport)
	defer transport.CloseIdleConnections()

	req, err := buildRequest(opts, transport)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	target = parseURL(target, req.RequestConfig().BaseURL != "")

	desc, err := req.Descriptor(method, target)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	formatter := output.GetFormatter(opts.format, opts.verbose, opts.noColor)
	fmt.Fprint(w, formatter.FormatRequest(desc))

	if opts.repeat > 1 {
		return repeatRequest(ctx, w, formatter, req, method, target, opts)
	}

	var schema string
	if opts.schema != "" {
		data, err := os.ReadFile(opts.schema)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: errors.Wrap(err, "reading schema file")}
		}
		schema = string(data)
	}

	resp, err := req.Send(ctx, method, target)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	fmt.Fprint(w, formatter.FormatResponse(resp))
	return checkResponse(w, formatter, resp, opts.extract, schema)
}

// repeatRequest sends the same request opts.repeat times in sequence, at
// most opts.rate per second, and prints a latency summary. Responses are
// printed only in verbose mode.
func repeatRequest(ctx context.Context, w io.Writer, formatter output.FormatProvider, req *sttp.PendingRequest, method, target string, opts *requestOptions) error {
	recorder := stats.NewRecorder()
	pacer := stats.NewPacer(opts.rate, nil)

	var bar *progressbar.ProgressBar
	if opts.progress != nil {
		bar = newProgressBar(opts.progress, opts.repeat)
	}

	for i := 0; i < opts.repeat; i++ {
		if err := pacer.Wait(ctx); err != nil {
			if bar != nil {
				_ = bar.Exit()
			}
			return &ExitError{Code: ExitFailure, Err: errors.Wrapf(err, "stopped after %d of %d requests", i, opts.repeat)}
		}

		resp, err := req.Send(ctx, method, target)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			log.WithError(err).Warnf("request %d failed", i+1)
			recorder.RecordFailure()
			continue
		}
		recorder.Record(resp.Timing().TotalTime, resp.Status())

		if opts.verbose {
			fmt.Fprint(w, formatter.FormatResponse(resp))
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	if waits, slept := pacer.Delayed(); waits > 0 {
		log.Debugf("paced %d requests, %s spent waiting", waits, slept)
	}

	summary := recorder.Summary()
	fmt.Fprint(w, formatter.FormatSummary(summary))

	switch {
	case summary.Failures > 0:
		return exitErrorf(ExitFailure, "%d of %d requests failed", summary.Failures, summary.Count)
	case summary.Errors > 0:
		return exitErrorf(ExitErrorStatus, "%d of %d responses had an error status", summary.Errors, summary.Count)
	}
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("requests"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// checkResponse prints extracted values, validates the body against the
// schema and maps error statuses to an exit code.
func checkResponse(w io.Writer, formatter output.FormatProvider, resp *sttp.Response, extract map[string]string, schema string) error {
	if len(extract) > 0 {
		values, err := resp.GetAll(extract)
		if err != nil {
			return &ExitError{Code: ExitInvalid, Err: errors.Wrap(err, "extracting values")}
		}
		fmt.Fprint(w, formatter.FormatExtracted(values))
	}

	if schema != "" {
		if err := resp.ValidateSchema(schema); err != nil {
			return &ExitError{Code: ExitInvalid, Err: errors.Wrap(err, "response does not match schema")}
		}
		log.Debug("response matches schema")
	}

	if resp.IsError() {
		return exitErrorf(ExitErrorStatus, "server answered %s", resp.StatusText())
	}
	return nil
}
