// Package envelope parses inbound transport payloads into structured
// requests and renders correlated responses for the outbound channel.
package envelope

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Request is one parsed inbound wallet call. Header keys are lowercased at
// parse time; Body stays opaque until the dispatcher decodes it.
type Request struct {
	RequestID int64
	Path      string
	Headers   map[string]string
	Body      string
}

// Response is the correlated reply published on the outbound channel.
// Exactly one response is emitted per accepted request.
type Response struct {
	RequestID int64  `json:"request_id"`
	Status    int    `json:"status"`
	Body      string `json:"body"`
}

// ErrorBody renders the normalized failure body carried on error responses.
func ErrorBody(message, code string) string {
	encoded, err := json.Marshal(map[string]string{
		"message": message,
		"code":    code,
	})
	if err != nil {
		return message
	}
	return string(encoded)
}

type wireRequest struct {
	RequestID json.RawMessage `json:"request_id"`
	Path      string          `json:"path"`
	Headers   json.RawMessage `json:"headers"`
	Body      string          `json:"body"`
}

// ParseRequest turns a raw transport payload into a Request. It fails when
// the payload is empty, the JSON is malformed, or request_id is missing or
// not coercible to a finite number. On malformed JSON the returned error
// carries a best-effort request id recovered by scanning the raw text, so
// the failure can still be correlated. That recovery is heuristic, never
// authoritative.
func ParseRequest(raw []byte) (Request, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Request{}, parseError("request payload is empty", nil)
	}

	var wire wireRequest
	if err := json.Unmarshal(raw, &wire); err != nil {
		metadata := map[string]any{"parse_error": err.Error()}
		if id, ok := ScanRequestID(raw); ok {
			metadata["request_id"] = id
		}
		return Request{}, parseError("request payload is not valid JSON", metadata)
	}

	id, err := coerceRequestID(wire.RequestID)
	if err != nil {
		return Request{}, err
	}

	headers, err := parseHeaders(wire.Headers)
	if err != nil {
		return Request{}, err
	}

	return Request{
		RequestID: id,
		Path:      wire.Path,
		Headers:   headers,
		Body:      wire.Body,
	}, nil
}

func coerceRequestID(raw json.RawMessage) (int64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, parseError("request_id is required", nil)
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return finiteRequestID(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, parseErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if parseErr != nil {
			return 0, parseError("request_id is not a finite number", map[string]any{"request_id_raw": text})
		}
		return finiteRequestID(parsed)
	}

	return 0, parseError("request_id is not a finite number", map[string]any{"request_id_raw": trimmed})
}

func finiteRequestID(value float64) (int64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, parseError("request_id is not a finite number", nil)
	}
	return int64(value), nil
}

// parseHeaders accepts either an object or a list-of-pairs form. Keys are
// lowercased; in list form later duplicates win. Scalar values coerce to
// strings, anything else is skipped.
func parseHeaders(raw json.RawMessage) (map[string]string, error) {
	headers := map[string]string{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return headers, nil
	}

	var asObject map[string]any
	if err := json.Unmarshal(raw, &asObject); err == nil {
		for key, value := range asObject {
			text, ok := coerceHeaderValue(value)
			if !ok {
				continue
			}
			headers[strings.ToLower(key)] = text
		}
		return headers, nil
	}

	var asPairs []json.RawMessage
	if err := json.Unmarshal(raw, &asPairs); err == nil {
		for _, entry := range asPairs {
			var pair []any
			if err := json.Unmarshal(entry, &pair); err != nil || len(pair) == 0 {
				continue
			}
			key, ok := pair[0].(string)
			if !ok {
				continue
			}
			value := ""
			if len(pair) > 1 {
				if text, ok := coerceHeaderValue(pair[1]); ok {
					value = text
				}
			}
			headers[strings.ToLower(key)] = value
		}
		return headers, nil
	}

	return nil, parseError("headers must be an object or a list of pairs", nil)
}

func coerceHeaderValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// ScanRequestID recovers a numeric request_id from malformed JSON by plain
// text scanning. Quoted numeric literals count; anything else does not.
func ScanRequestID(raw []byte) (int64, bool) {
	text := string(raw)
	const key = `"request_id"`
	start := strings.Index(text, key)
	if start < 0 {
		return 0, false
	}
	rest := text[start+len(key):]
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, ":") {
		return 0, false
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	rest = strings.TrimPrefix(rest, `"`)

	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return int64(value), true
}
