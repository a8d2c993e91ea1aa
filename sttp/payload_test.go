package sttp

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Email *string  `json:"email"`
}

func TestEncodeFormParams(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		expected string
	}{
		{"nil", nil, ""},
		{"spaces", map[string]any{"name": "a b"}, "name=a%20b"},
		{"sorted keys", map[string]string{"b": "2", "a": "1"}, "a=1&b=2"},
		{"numbers and booleans", map[string]any{"age": 25, "admin": false}, "admin=false&age=25"},
		{"literal plus", map[string]any{"q": "a+b"}, "q=a%2Bb"},
		{"reserved characters", map[string]any{"a&b": "c=d"}, "a%26b=c%3Dd"},
		{"repeated keys", url.Values{"tag": {"x", "y"}}, "tag=x&tag=y"},
		{"slice values", map[string]any{"tag": []any{"x", 1}}, "tag=x&tag=1"},
		{"nil values are skipped", map[string]any{"a": nil, "b": "1"}, "b=1"},
		{"already encoded", "name=Supercharge", "name=Supercharge"},
		{"struct", signup{Name: "Supercharge", Tags: []string{"a", "b"}}, "name=Supercharge&tags=a&tags=b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFormParams(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, encoded)
		})
	}
}

func TestEncodeFormParams_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"array", []int{1, 2}},
		{"nested map", map[string]any{"filter": map[string]any{"a": 1}}},
		{"scalar", 42},
		{"unmarshalable", map[string]any{"ch": make(chan int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeFormParams(tt.payload)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestPrepareRequestPayload(t *testing.T) {
	payload := map[string]any{"name": "Supercharge"}

	data, err := prepareRequestPayload(FormatJSON, payload)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	data, err = prepareRequestPayload(FormatFormParams, payload)
	require.NoError(t, err)
	assert.Equal(t, "name=Supercharge", data)

	data, err = prepareRequestPayload(FormatFormParams, nil)
	require.NoError(t, err)
	assert.Equal(t, "", data)

	data, err = prepareRequestPayload(FormatJSON, nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}
