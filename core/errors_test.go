package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestBridgeErrorMapper_PassesThroughRichErrors(t *testing.T) {
	rich := goerrors.New("origin header is invalid", goerrors.CategoryBadInput).
		WithTextCode(BridgeErrorOriginInvalid)

	mapped := BridgeErrorMapper(rich)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != BridgeErrorOriginInvalid {
		t.Fatalf("expected text code %q, got %q", BridgeErrorOriginInvalid, mapped.TextCode)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", mapped.Code)
	}
}

func TestBridgeErrorMapper_ClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
		status   int
	}{
		{
			name:     "unknown operation",
			err:      errors.New("unknown operation: /fooBar"),
			category: goerrors.CategoryNotFound,
			textCode: BridgeErrorUnknownOperation,
			status:   http.StatusNotFound,
		},
		{
			name:     "queue full",
			err:      errors.New("admission queue is full"),
			category: goerrors.CategoryRateLimit,
			textCode: BridgeErrorQueueFull,
			status:   http.StatusTooManyRequests,
		},
		{
			name:     "superseded session",
			err:      errors.New("task superseded by newer session"),
			category: goerrors.CategoryConflict,
			textCode: BridgeErrorSessionSuperseded,
			status:   http.StatusConflict,
		},
		{
			name:     "origin failure",
			err:      errors.New("origin header missing"),
			category: goerrors.CategoryBadInput,
			textCode: BridgeErrorOriginInvalid,
			status:   http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := BridgeErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %v, got %v", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestBridgeHTTPStatus_KeepsCapabilityFailuresAt400(t *testing.T) {
	if got := BridgeHTTPStatus(goerrors.CategoryOperation); got != http.StatusBadRequest {
		t.Fatalf("expected operation failures to map to 400, got %d", got)
	}
	if got := BridgeHTTPStatus(goerrors.CategoryExternal); got != http.StatusBadRequest {
		t.Fatalf("expected external failures to map to 400, got %d", got)
	}
	if got := BridgeHTTPStatus(goerrors.CategoryInternal); got != http.StatusInternalServerError {
		t.Fatalf("expected internal failures to map to 500, got %d", got)
	}
}

func TestEnsureBridgeErrorEnvelope_FillsMissingFields(t *testing.T) {
	err := goerrors.New("", goerrors.CategoryInternal)
	err.Code = 0
	err.TextCode = ""

	ensured := EnsureBridgeErrorEnvelope(err)
	if ensured.Code != http.StatusInternalServerError {
		t.Fatalf("expected code 500, got %d", ensured.Code)
	}
	if ensured.TextCode != BridgeErrorInternal {
		t.Fatalf("expected text code %q, got %q", BridgeErrorInternal, ensured.TextCode)
	}
	if ensured.Message == "" {
		t.Fatalf("expected default internal message")
	}
}
