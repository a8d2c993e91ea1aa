package sttp

import "context"

// Create returns a new builder for callers that need several chained calls
// on one instance before sending.
func Create() *PendingRequest {
	return NewPendingRequest()
}

// WithHeaders creates a builder with the given request headers.
func WithHeaders(headers map[string]string) *PendingRequest {
	return NewPendingRequest().WithHeaders(headers)
}

// WithQueryParams creates a builder with the given query parameters.
func WithQueryParams(params map[string]any) *PendingRequest {
	return NewPendingRequest().WithQueryParams(params)
}

// WithPayload creates a builder with the given payload.
func WithPayload(payload any) *PendingRequest {
	return NewPendingRequest().WithPayload(payload)
}

// WithBasicAuth creates a builder with basic authentication credentials.
func WithBasicAuth(username, password string) *PendingRequest {
	return NewPendingRequest().WithBasicAuth(username, password)
}

// WithToken creates a builder with an Authorization token.
func WithToken(token string, scheme ...string) *PendingRequest {
	return NewPendingRequest().WithToken(token, scheme...)
}

// WithOptions creates a builder with the given options merged in.
func WithOptions(options map[string]any) *PendingRequest {
	return NewPendingRequest().WithOptions(options)
}

// WithTimeout creates a builder with a timeout in milliseconds.
func WithTimeout(milliseconds int) *PendingRequest {
	return NewPendingRequest().WithTimeout(milliseconds)
}

// WithTimeoutInSeconds creates a builder with a timeout in seconds.
func WithTimeoutInSeconds(seconds int) *PendingRequest {
	return NewPendingRequest().WithTimeoutInSeconds(seconds)
}

// WithBaseURL creates a builder with a base URL.
func WithBaseURL(baseURL string) *PendingRequest {
	return NewPendingRequest().WithBaseURL(baseURL)
}

// AsJSON creates a builder that sends its payload as JSON.
func AsJSON() *PendingRequest {
	return NewPendingRequest().AsJSON()
}

// AsFormParams creates a builder that sends its payload as URL-encoded form
// parameters.
func AsFormParams() *PendingRequest {
	return NewPendingRequest().AsFormParams()
}

// Accept creates a builder with the Accept header set.
func Accept(accept string) *PendingRequest {
	return NewPendingRequest().Accept(accept)
}

// AcceptJSON creates a builder that asks for JSON responses.
func AcceptJSON() *PendingRequest {
	return NewPendingRequest().AcceptJSON()
}

// ContentType creates a builder with the Content-Type header set.
func ContentType(contentType string) *PendingRequest {
	return NewPendingRequest().ContentType(contentType)
}

// Get sends a GET request, optionally with query parameters.
func Get(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return NewPendingRequest().Get(ctx, url, queryParams...)
}

// Post sends a POST request, optionally with a payload.
func Post(ctx context.Context, url string, payload ...any) (*Response, error) {
	return NewPendingRequest().Post(ctx, url, payload...)
}

// Put sends a PUT request, optionally with a payload.
func Put(ctx context.Context, url string, payload ...any) (*Response, error) {
	return NewPendingRequest().Put(ctx, url, payload...)
}

// Patch sends a PATCH request, optionally with a payload.
func Patch(ctx context.Context, url string, payload ...any) (*Response, error) {
	return NewPendingRequest().Patch(ctx, url, payload...)
}

// Delete sends a DELETE request, optionally with query parameters.
func Delete(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return NewPendingRequest().Delete(ctx, url, queryParams...)
}

// Options sends an OPTIONS request, optionally with query parameters.
func Options(ctx context.Context, url string, queryParams ...map[string]any) (*Response, error) {
	return NewPendingRequest().Options(ctx, url, queryParams...)
}
