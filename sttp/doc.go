// Package sttp provides a fluent HTTP request builder and a response
// envelope that classifies completed exchanges by status class.
//
// This package is designed for programmatic use and provides:
//   - A fluent request builder that accumulates headers, query parameters,
//     payload, authentication, timeout and transport options
//   - Package-level shortcuts that create a fresh builder per call
//   - A response envelope with status predicates and JSON helpers
//   - A pluggable transport, with a net/http implementation that records
//     detailed timing information (DNS, TCP, TLS, TTFB)
//
// Basic Usage:
//
//	resp, err := sttp.
//	    WithBaseURL("https://api.example.com").
//	    WithToken("secret").
//	    AcceptJSON().
//	    Get(ctx, "/users", map[string]any{"limit": 10})
//	if err != nil {
//	    log.Fatal(err) // the server was never reached
//	}
//
//	if resp.IsError() {
//	    fmt.Printf("request failed with status %d\n", resp.Status())
//	}
//
// Form Payload Example:
//
//	resp, err := sttp.
//	    AsFormParams().
//	    WithBasicAuth("client-id", "client-secret").
//	    Post(ctx, "https://auth.example.com/oauth/token", map[string]string{
//	        "grant_type": "client_credentials",
//	    })
//
// Error Handling:
//
// HTTP error statuses (4xx, 5xx) are not errors: they are returned as a
// *Response and can be inspected with IsError, IsClientError and
// IsServerError. Send and the verb methods only return an error when no
// response was obtained, as a *TransportError wrapping the original cause,
// or when the builder holds an invalid configuration, as an error matching
// ErrInvalidArgument.
//
// Reuse:
//
// A PendingRequest is a template. Every exchange works on a snapshot of the
// accumulated configuration, so later configuration calls never affect an
// exchange already in flight, and arguments passed to a verb method apply to
// that exchange only. Use Clone to derive an independent variant.
//
// Transports:
//
// HTTPTransport is the default. The restytransport subpackage provides a
// go-resty backed alternative with the same contract:
//
//	req := sttp.NewPendingRequest(sttp.WithTransport(restytransport.New()))
package sttp
