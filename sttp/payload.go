package sttp

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// prepareRequestPayload returns the request body handed to the transport.
// Form payloads are encoded here; JSON payloads pass through unchanged and
// are serialized by the transport.
func prepareRequestPayload(format PayloadFormat, payload any) (any, error) {
	if format != FormatFormParams {
		return payload, nil
	}
	if payload == nil {
		return "", nil
	}
	return EncodeFormParams(payload)
}

// EncodeFormParams serializes payload as key=value pairs joined with "&".
// Keys are sorted and both keys and values are percent-encoded, with spaces
// written as %20.
//
// Supported payloads are url.Values, map[string]string, map[string]any
// (slice values repeat the key), an already encoded string, and any value
// that marshals to a JSON object, whose top-level members become the pairs.
func EncodeFormParams(payload any) (string, error) {
	var values url.Values

	switch p := payload.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case url.Values:
		values = p
	case map[string]string:
		values = make(url.Values, len(p))
		for key, value := range p {
			values.Set(key, value)
		}
	case map[string]any:
		values = make(url.Values, len(p))
		for key, value := range p {
			formatted, err := formatParam(value)
			if err != nil {
				return "", invalidArgument("form parameter %q: %v", key, err)
			}
			values[key] = formatted
		}
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return "", invalidArgument("form payload of type %T: %v", payload, err)
		}
		result := gjson.ParseBytes(raw)
		if !result.IsObject() {
			return "", invalidArgument("form payload of type %T is not an object", payload)
		}
		values = make(url.Values)
		result.ForEach(func(key, value gjson.Result) bool {
			switch {
			case value.Type == gjson.Null:
			case value.IsArray():
				for _, item := range value.Array() {
					values.Add(key.String(), item.String())
				}
			default:
				values.Add(key.String(), value.String())
			}
			return true
		})
	}

	return encodeValues(values), nil
}

func encodeValues(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		for _, value := range values[key] {
			if buf.Len() > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(escapeFormComponent(key))
			buf.WriteByte('=')
			buf.WriteString(escapeFormComponent(value))
		}
	}
	return buf.String()
}

// escapeFormComponent percent-encodes s. QueryEscape already encodes a
// literal "+" as %2B, so every remaining "+" stands for a space.
func escapeFormComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
