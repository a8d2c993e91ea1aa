package sttp_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sttp/internal/testserver"
	"github.com/wesleyorama2/sttp/sttp"
)

func decodeEcho(t *testing.T, resp *sttp.Response) testserver.Echo {
	t.Helper()
	var echo testserver.Echo
	require.NoError(t, resp.Decode(&echo))
	return echo
}

func TestGet(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.Get(context.Background(), server.URLFor("/users"), map[string]any{"name": "Supercharge"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status())
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "sttp", resp.Header("X-Response"))

	echo := decodeEcho(t, resp)
	assert.Equal(t, http.MethodGet, echo.Method)
	assert.Equal(t, "/users", echo.Path)
	assert.Equal(t, map[string]string{"name": "Supercharge"}, echo.Query)
}

func TestWithQueryParams(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.WithQueryParams(map[string]any{"name": "Supercharge"}).
		Get(context.Background(), server.URLFor("/"), map[string]any{"page": 2})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": "Supercharge", "page": "2"}, decodeEcho(t, resp).Query)
}

func TestPost(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.Post(context.Background(), server.URLFor("/users"), map[string]any{"name": "Supercharge"})
	require.NoError(t, err)

	echo := decodeEcho(t, resp)
	assert.Equal(t, http.MethodPost, echo.Method)
	assert.Equal(t, map[string]any{"name": "Supercharge"}, echo.Payload)
	assert.Equal(t, "application/json", echo.Headers["content-type"])
}

func TestErrorStatusResolvesToResponse(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.Post(context.Background(), server.URLFor("/status/418"), map[string]any{"name": "Supercharge"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.Status())
	assert.True(t, resp.IsError())
	assert.True(t, resp.IsClientError())
	assert.Equal(t, "POST", decodeEcho(t, resp).Method)

	resp, err = sttp.Get(context.Background(), server.URLFor("/status/503"))
	require.NoError(t, err)
	assert.True(t, resp.IsServerError())
}

func TestVerbs(t *testing.T) {
	server := testserver.New()
	defer server.Close()
	ctx := context.Background()
	url := server.URLFor("/resource")

	calls := map[string]func() (*sttp.Response, error){
		http.MethodPut:     func() (*sttp.Response, error) { return sttp.Put(ctx, url, map[string]any{"a": 1}) },
		http.MethodPatch:   func() (*sttp.Response, error) { return sttp.Patch(ctx, url, map[string]any{"a": 1}) },
		http.MethodDelete:  func() (*sttp.Response, error) { return sttp.Delete(ctx, url) },
		http.MethodOptions: func() (*sttp.Response, error) { return sttp.Options(ctx, url) },
	}

	for method, call := range calls {
		t.Run(method, func(t *testing.T) {
			resp, err := call()
			require.NoError(t, err)
			assert.Equal(t, method, decodeEcho(t, resp).Method)
		})
	}
}

func TestWithBaseURL(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.WithBaseURL(server.URL+"/api/").Get(context.Background(), "/users")
	require.NoError(t, err)
	assert.Equal(t, "/api/users", decodeEcho(t, resp).Path)

	other := testserver.New()
	defer other.Close()

	// Absolute URLs ignore the base URL.
	resp, err = sttp.WithBaseURL(server.URL).Get(context.Background(), other.URLFor("/elsewhere"))
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", decodeEcho(t, resp).Path)
}

func TestWithBaseURLRejectsEmptyString(t *testing.T) {
	resp, err := sttp.WithBaseURL("").Get(context.Background(), "/users")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, sttp.ErrInvalidArgument)
}

func TestWithBaseURLUnresolvableIsTransportError(t *testing.T) {
	resp, err := sttp.WithBaseURL("not a url").Get(context.Background(), "/users")

	assert.Nil(t, resp)
	var transportErr *sttp.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.NotErrorIs(t, err, sttp.ErrInvalidArgument)
}

func TestAsFormParams(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.AsFormParams().
		Post(context.Background(), server.URLFor("/form"), map[string]any{"name": "Super Charge", "age": 2})
	require.NoError(t, err)

	echo := decodeEcho(t, resp)
	assert.Equal(t, "application/x-www-form-urlencoded", echo.Headers["content-type"])
	assert.Equal(t, map[string]any{"name": "Super Charge", "age": "2"}, echo.Payload)
}

func TestHeadersAndAuth(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.WithHeaders(map[string]string{"X-Api-Key": "secret"}).
		AcceptJSON().
		WithBasicAuth("username", "password").
		Get(context.Background(), server.URLFor("/"))
	require.NoError(t, err)

	echo := decodeEcho(t, resp)
	assert.Equal(t, "secret", echo.Headers["x-api-key"])
	assert.Equal(t, "application/json", echo.Headers["accept"])
	assert.Equal(t, "Basic dXNlcm5hbWU6cGFzc3dvcmQ=", echo.Headers["authorization"])

	resp, err = sttp.WithToken("token").Get(context.Background(), server.URLFor("/"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", decodeEcho(t, resp).Headers["authorization"])
}

func TestRedirectsAreFollowed(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	resp, err := sttp.Get(context.Background(), server.URLFor("/redirect"))
	require.NoError(t, err)
	assert.Equal(t, "/redirected", decodeEcho(t, resp).Path)

	resp, err = sttp.WithOptions(map[string]any{"maxRedirects": 0}).
		Get(context.Background(), server.URLFor("/redirect"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status())
}

func TestTimeout(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	_, err := sttp.WithTimeout(50).Get(context.Background(), server.URLFor("/slow?delay=5s"))

	var transportErr *sttp.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout())
}

func TestUnreachableHost(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	resp, err := sttp.Get(context.Background(), "http://"+address)

	assert.Nil(t, resp)
	var transportErr *sttp.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Method)
}

func TestCreateIsReusable(t *testing.T) {
	server := testserver.New()
	defer server.Close()
	ctx := context.Background()

	req := sttp.Create().
		WithBaseURL(server.URL).
		WithHeader("X-Client", "sttp")

	first, err := req.Get(ctx, "/first", map[string]any{"page": 1})
	require.NoError(t, err)
	second, err := req.Post(ctx, "/second")
	require.NoError(t, err)

	firstEcho := decodeEcho(t, first)
	secondEcho := decodeEcho(t, second)

	assert.Equal(t, "/first", firstEcho.Path)
	assert.Equal(t, "/second", secondEcho.Path)
	assert.Equal(t, "sttp", firstEcho.Headers["x-client"])
	assert.Equal(t, "sttp", secondEcho.Headers["x-client"])
	assert.Equal(t, map[string]string{"page": "1"}, firstEcho.Query)
	assert.Empty(t, secondEcho.Query)
}

func TestEntryPointsReturnFreshBuilders(t *testing.T) {
	a := sttp.WithHeaders(map[string]string{"X-A": "1"})
	b := sttp.Create()

	assert.NotSame(t, a, b)
	assert.NotContains(t, b.RequestConfig().Headers, "X-A")
}
