package sttp

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_StatusPredicates(t *testing.T) {
	for code := 100; code <= 599; code++ {
		resp := NewResponse(code, nil, nil)

		assert.Equal(t, code, resp.Status())
		assert.Equal(t, code >= 200 && code <= 299, resp.IsSuccess(), "IsSuccess(%d)", code)
		assert.Equal(t, code >= 300 && code <= 399, resp.IsRedirect(), "IsRedirect(%d)", code)
		assert.Equal(t, code >= 400 && code <= 499, resp.IsClientError(), "IsClientError(%d)", code)
		assert.Equal(t, code >= 500, resp.IsServerError(), "IsServerError(%d)", code)
		assert.Equal(t, code >= 400, resp.IsError(), "IsError(%d)", code)
	}
}

func TestResponse_Teapot(t *testing.T) {
	resp := NewResponse(http.StatusTeapot, nil, nil)

	assert.True(t, resp.IsError())
	assert.True(t, resp.IsClientError())
	assert.False(t, resp.IsServerError())
	assert.Equal(t, "418 I'm a teapot", resp.StatusText())
}

func TestResponse_Payload(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected any
	}{
		{"object", `{"name":"Supercharge","age":2}`, map[string]any{"name": "Supercharge", "age": float64(2)}},
		{"array", `[1,"a"]`, []any{float64(1), "a"}},
		{"number", `42`, float64(42)},
		{"null", `null`, nil},
		{"plain text", `Hello Supercharge`, "Hello Supercharge"},
		{"broken JSON", `{"name":`, `{"name":`},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(http.StatusOK, nil, []byte(tt.body))
			assert.Equal(t, tt.expected, resp.Payload())
			assert.Equal(t, tt.expected, resp.Data())
			assert.Equal(t, tt.body, resp.String())
		})
	}
}

func TestResponse_IsImmutable(t *testing.T) {
	headers := http.Header{"X-Response": []string{"sttp"}}
	body := []byte(`{"ok":true}`)
	resp := NewResponse(http.StatusOK, headers, body)

	headers.Set("X-Response", "changed")
	body[1] = 'X'
	resp.Headers().Set("X-Response", "changed")
	resp.Bytes()[1] = 'X'

	assert.Equal(t, "sttp", resp.Header("x-response"))
	assert.Equal(t, `{"ok":true}`, resp.String())

	payload, ok := resp.Payload().(map[string]any)
	require.True(t, ok)
	payload["ok"] = "mutated"
	resp.Data().(map[string]any)["extra"] = 1

	assert.Equal(t, map[string]any{"ok": true}, resp.Payload())
	assert.Equal(t, map[string]any{"ok": true}, resp.Data())

	list := NewResponse(http.StatusOK, nil, []byte(`[1,2]`))
	list.Payload().([]any)[0] = "mutated"
	assert.Equal(t, []any{float64(1), float64(2)}, list.Data())
}

func TestResponse_Decode(t *testing.T) {
	resp := NewResponse(http.StatusOK, nil, []byte(`{"name":"Supercharge","tags":["a","b"]}`))

	var decoded struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, "Supercharge", decoded.Name)
	assert.Equal(t, []string{"a", "b"}, decoded.Tags)

	assert.Error(t, NewResponse(http.StatusOK, nil, []byte("nope")).Decode(&decoded))
}

func TestResponse_TimingGetters(t *testing.T) {
	resp := newResponse(&TransportResponse{
		StatusCode: http.StatusOK,
		Timing: TimingInfo{
			DNSLookupTime:       1 * time.Millisecond,
			TCPConnectTime:      2 * time.Millisecond,
			TLSHandshakeTime:    3 * time.Millisecond,
			TimeToFirstByte:     4 * time.Millisecond,
			ContentTransferTime: 5 * time.Millisecond,
			TotalTime:           15 * time.Millisecond,
		},
	})

	assert.Equal(t, int64(1), resp.GetDNSLookupTimeMillis())
	assert.Equal(t, int64(2), resp.GetTCPConnectTimeMillis())
	assert.Equal(t, int64(3), resp.GetTLSHandshakeTimeMillis())
	assert.Equal(t, int64(4), resp.GetTimeToFirstByteMillis())
	assert.Equal(t, int64(5), resp.GetContentTransferTimeMillis())
	assert.Equal(t, int64(15), resp.GetTotalTimeMillis())
}

func TestResponse_Get(t *testing.T) {
	resp := NewResponse(http.StatusOK, nil, []byte(`{
		"users": [{"name": "Marcus", "id": 1}, {"name": "Norman", "id": 2}],
		"meta": {"total": 2, "next": null},
		"odd key": "value"
	}`))

	tests := []struct {
		path     string
		expected string
	}{
		{"$.users[0].name", "Marcus"},
		{"users.1.name", "Norman"},
		{"$.meta.total", "2"},
		{"$.meta.next", "null"},
		{"$['odd key']", "value"},
		{"$.meta", `{"total": 2, "next": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			value, err := resp.Get(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, err := resp.Get("$.missing")
	assert.Error(t, err)

	_, err = resp.Get("")
	assert.Error(t, err)

	_, err = NewResponse(http.StatusNoContent, nil, nil).Get("$.id")
	assert.Error(t, err)
}

func TestResponse_GetAll(t *testing.T) {
	resp := NewResponse(http.StatusOK, nil, []byte(`{"id": 7, "name": "Supercharge"}`))

	values, err := resp.GetAll(map[string]string{"id": "$.id", "name": "$.name"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "7", "name": "Supercharge"}, values)

	values, err = resp.GetAll(map[string]string{"id": "$.id", "email": "$.email"})
	assert.Error(t, err)
	assert.Equal(t, map[string]string{"id": "7"}, values)
}

func TestConvertToGjsonPath(t *testing.T) {
	tests := map[string]string{
		"$":                  "@this",
		"$.name":             "name",
		"$.users[0].name":    "users.0.name",
		"$['users'][1]":      "users.1",
		`$["users"][2].name`: "users.2.name",
		"users.0":            "users.0",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, convertToGjsonPath(input), input)
	}
}

const userSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": "string", "minLength": 1}
	}
}`

func TestResponse_ValidateSchema(t *testing.T) {
	valid := NewResponse(http.StatusOK, nil, []byte(`{"id": 1, "name": "Supercharge"}`))
	assert.NoError(t, valid.ValidateSchema(userSchema))

	invalid := NewResponse(http.StatusOK, nil, []byte(`{"id": "one"}`))
	err := invalid.ValidateSchema(userSchema)
	require.Error(t, err)

	var validationErrs ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.NotEmpty(t, validationErrs)

	assert.ErrorContains(t, valid.ValidateSchema(`{"type": `), "invalid schema")
	assert.ErrorContains(t, NewResponse(http.StatusOK, nil, []byte("text")).ValidateSchema(userSchema), "invalid JSON body")
}
