package envelope

import (
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func TestParseRequest_ValidPayload(t *testing.T) {
	raw := []byte(`{
		"request_id": 42,
		"path": "/getVersion",
		"headers": {"Content-Type": "application/json", "Origin": "https://app.example.com"},
		"body": "{\"args\":{}}"
	}`)

	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	if req.RequestID != 42 {
		t.Fatalf("expected request id 42, got %d", req.RequestID)
	}
	if req.Path != "/getVersion" {
		t.Fatalf("expected path /getVersion, got %q", req.Path)
	}
	if req.Headers["content-type"] != "application/json" {
		t.Fatalf("expected lowercased content-type header, got %v", req.Headers)
	}
	if req.Headers["origin"] != "https://app.example.com" {
		t.Fatalf("expected origin header preserved, got %v", req.Headers)
	}
	if req.Body != `{"args":{}}` {
		t.Fatalf("expected body passthrough, got %q", req.Body)
	}
}

func TestParseRequest_RequestIDCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "integer", raw: `{"request_id": 7, "path": "/p"}`, want: 7},
		{name: "negative", raw: `{"request_id": -3, "path": "/p"}`, want: -3},
		{name: "fraction truncates", raw: `{"request_id": 12.9, "path": "/p"}`, want: 12},
		{name: "quoted number", raw: `{"request_id": "56", "path": "/p"}`, want: 56},
		{name: "quoted with spaces", raw: `{"request_id": "  8  ", "path": "/p"}`, want: 8},
		{name: "scientific", raw: `{"request_id": 1e2, "path": "/p"}`, want: 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tc.raw))
			if err != nil {
				t.Fatalf("expected parse to succeed, got %v", err)
			}
			if req.RequestID != tc.want {
				t.Fatalf("expected request id %d, got %d", tc.want, req.RequestID)
			}
		})
	}
}

func TestParseRequest_RejectsBadRequestID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "missing", raw: `{"path": "/p"}`},
		{name: "null", raw: `{"request_id": null, "path": "/p"}`},
		{name: "boolean", raw: `{"request_id": true, "path": "/p"}`},
		{name: "array", raw: `{"request_id": [1], "path": "/p"}`},
		{name: "object", raw: `{"request_id": {"v": 1}, "path": "/p"}`},
		{name: "non numeric string", raw: `{"request_id": "abc", "path": "/p"}`},
		{name: "quoted nan", raw: `{"request_id": "NaN", "path": "/p"}`},
		{name: "quoted infinity", raw: `{"request_id": "+Inf", "path": "/p"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}

			var richErr *goerrors.Error
			if !goerrors.As(err, &richErr) {
				t.Fatalf("expected rich error, got %T", err)
			}
			if richErr.Category != goerrors.CategoryBadInput {
				t.Fatalf("expected bad input category, got %v", richErr.Category)
			}
			if richErr.TextCode != core.BridgeErrorParseFailed {
				t.Fatalf("expected %s text code, got %s", core.BridgeErrorParseFailed, richErr.TextCode)
			}
		})
	}
}

func TestParseRequest_HeadersObjectForm(t *testing.T) {
	raw := []byte(`{
		"request_id": 1,
		"path": "/p",
		"headers": {"Content-Length": 128, "X-Retry": true, "X-Skip": null, "X-Nested": {"a": 1}}
	}`)

	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	if req.Headers["content-length"] != "128" {
		t.Fatalf("expected numeric header coerced to string, got %v", req.Headers)
	}
	if req.Headers["x-retry"] != "true" {
		t.Fatalf("expected boolean header coerced to string, got %v", req.Headers)
	}
	if _, ok := req.Headers["x-skip"]; ok {
		t.Fatalf("expected null header skipped, got %v", req.Headers)
	}
	if _, ok := req.Headers["x-nested"]; ok {
		t.Fatalf("expected non scalar header skipped, got %v", req.Headers)
	}
}

func TestParseRequest_HeadersPairsFormLaterWins(t *testing.T) {
	raw := []byte(`{
		"request_id": 1,
		"path": "/p",
		"headers": [["Accept", "text/plain"], ["ACCEPT", "application/json"], ["Solo"], [123, "dropped"], ["X-Extra", "kept", "ignored"]]
	}`)

	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	if req.Headers["accept"] != "application/json" {
		t.Fatalf("expected later duplicate to win, got %v", req.Headers)
	}
	if value, ok := req.Headers["solo"]; !ok || value != "" {
		t.Fatalf("expected key-only pair to keep empty value, got %v", req.Headers)
	}
	if _, ok := req.Headers["123"]; ok {
		t.Fatalf("expected non string key dropped, got %v", req.Headers)
	}
	if req.Headers["x-extra"] != "kept" {
		t.Fatalf("expected extra tuple entries ignored, got %v", req.Headers)
	}
}

func TestParseRequest_HeadersMissingOrNull(t *testing.T) {
	for _, raw := range []string{
		`{"request_id": 1, "path": "/p"}`,
		`{"request_id": 1, "path": "/p", "headers": null}`,
	} {
		req, err := ParseRequest([]byte(raw))
		if err != nil {
			t.Fatalf("expected parse to succeed, got %v", err)
		}
		if req.Headers == nil || len(req.Headers) != 0 {
			t.Fatalf("expected empty header map, got %v", req.Headers)
		}
	}
}

func TestParseRequest_HeadersRejectScalar(t *testing.T) {
	_, err := ParseRequest([]byte(`{"request_id": 1, "path": "/p", "headers": "nope"}`))
	if err == nil {
		t.Fatal("expected header shape error, got nil")
	}
	if !strings.Contains(err.Error(), "headers must be an object or a list of pairs") {
		t.Fatalf("expected header shape message, got %v", err)
	}
}

func TestParseRequest_EmptyPayload(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := ParseRequest([]byte(raw))
		if err == nil {
			t.Fatalf("expected empty payload error for %q, got nil", raw)
		}
	}
}

func TestParseRequest_MalformedJSONRecoversRequestID(t *testing.T) {
	_, err := ParseRequest([]byte(`{"request_id": 99, "path": "/p", "body": {`))
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}

	id, ok := RecoveredRequestID(err)
	if !ok {
		t.Fatalf("expected recovered request id, got %v", err)
	}
	if id != 99 {
		t.Fatalf("expected recovered id 99, got %d", id)
	}
}

func TestParseRequest_MalformedJSONWithoutID(t *testing.T) {
	_, err := ParseRequest([]byte(`{"path": "/p", "body": {`))
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if _, ok := RecoveredRequestID(err); ok {
		t.Fatal("expected no recovered id for payload without request_id")
	}
}

func TestScanRequestID(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   int64
		wantOK bool
	}{
		{name: "plain number", raw: `{"request_id": 12, "x": `, want: 12, wantOK: true},
		{name: "quoted number", raw: `{"request_id": "34",`, want: 34, wantOK: true},
		{name: "scientific", raw: `{"request_id":2e3!!!`, want: 2000, wantOK: true},
		{name: "negative", raw: `{"request_id": -5`, want: -5, wantOK: true},
		{name: "missing key", raw: `{"id": 12}`, wantOK: false},
		{name: "missing colon", raw: `{"request_id" 12}`, wantOK: false},
		{name: "non numeric", raw: `{"request_id": "abc"`, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ScanRequestID([]byte(tc.raw))
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if ok && got != tc.want {
				t.Fatalf("expected id %d, got %d", tc.want, got)
			}
		})
	}
}
