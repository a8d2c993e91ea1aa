package sttp

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestDescriptor is the finalized description of a single exchange, as
// handed to a Transport. It shares no state with the PendingRequest it was
// built from.
type RequestDescriptor struct {
	Method  string
	URL     string
	BaseURL string
	Headers http.Header
	Params  url.Values
	Auth    *BasicAuth
	Timeout time.Duration

	// Data is the encoded payload: a string for form payloads, the
	// caller's value otherwise.
	Data any

	// Options holds the free-form options set through WithOptions that
	// the builder does not interpret itself.
	Options map[string]any
}

func (c RequestConfig) descriptor(method, rawURL string) (*RequestDescriptor, error) {
	params, err := encodeQueryParams(c.QueryParams)
	if err != nil {
		return nil, err
	}

	data, err := prepareRequestPayload(c.PayloadFormat, c.Payload)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header, len(c.Headers))
	for key, value := range c.Headers {
		headers.Set(key, value)
	}

	return &RequestDescriptor{
		Method:  strings.ToUpper(method),
		URL:     rawURL,
		BaseURL: c.BaseURL,
		Headers: headers,
		Params:  params,
		Auth:    c.Auth,
		Timeout: c.Timeout,
		Data:    data,
		Options: c.Options,
	}, nil
}

// FullURL resolves URL against BaseURL and appends Params to any query
// already present in the URL. Absolute URLs ignore BaseURL.
func (d *RequestDescriptor) FullURL() (string, error) {
	target := d.URL
	if d.BaseURL != "" && !isAbsoluteURL(target) {
		if target == "" {
			target = d.BaseURL
		} else {
			target = strings.TrimRight(d.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
		}
	}

	reqURL, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if len(d.Params) > 0 {
		query := reqURL.Query()
		for key, values := range d.Params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		reqURL.RawQuery = query.Encode()
	}

	return reqURL.String(), nil
}

func isAbsoluteURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}
