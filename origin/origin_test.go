package origin

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{name: "lowercases hostname", value: "https://Example.COM", want: "example.com"},
		{name: "drops https default port", value: "https://Example.com:443", want: "example.com"},
		{name: "drops http default port", value: "http://example.com:80", want: "example.com"},
		{name: "keeps custom port", value: "https://example.com:8443", want: "example.com:8443"},
		{name: "keeps http port on https", value: "https://example.com:80", want: "example.com:80"},
		{name: "scheme less host", value: "example.com", want: "example.com"},
		{name: "scheme less host with port", value: "example.com:3000", want: "example.com:3000"},
		{name: "ipv6 default port", value: "https://[::1]:443", want: "[::1]"},
		{name: "ipv6 custom port", value: "http://[2001:db8::1]:3000", want: "[2001:db8::1]:3000"},
		{name: "trims whitespace", value: "  https://example.com  ", want: "example.com"},
		{name: "unknown scheme keeps port", value: "ws://example.com:443", want: "example.com:443"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.value)
			if err != nil {
				t.Fatalf("expected canonicalize to succeed, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, value := range []string{
		"https://Example.com:443",
		"https://example.com:8443",
		"http://[::1]:3000",
		"example.com",
	} {
		first, err := Canonicalize(value)
		if err != nil {
			t.Fatalf("expected canonicalize to succeed for %q, got %v", value, err)
		}
		second, err := Canonicalize(first)
		if err != nil {
			t.Fatalf("expected canonical value %q to canonicalize, got %v", first, err)
		}
		if second != first {
			t.Fatalf("expected idempotent canonicalization, got %q then %q", first, second)
		}
	}
}

func TestCanonicalize_Rejects(t *testing.T) {
	for _, value := range []string{"", "   ", "not a url", "http://"} {
		if _, err := Canonicalize(value); err == nil {
			t.Fatalf("expected canonicalize to fail for %q", value)
		}
	}
}

func TestResolve_PrefersOriginHeader(t *testing.T) {
	got, err := Resolve(map[string]string{
		"origin":     "https://App.example.com",
		"originator": "other.example.com",
	})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if got != "app.example.com" {
		t.Fatalf("expected origin header to win, got %q", got)
	}
}

func TestResolve_FallsBackToOriginator(t *testing.T) {
	got, err := Resolve(map[string]string{"originator": "legacy.example.com:9000"})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if got != "legacy.example.com:9000" {
		t.Fatalf("expected originator fallback, got %q", got)
	}
}

func TestResolve_BadOriginFallsBackToOriginator(t *testing.T) {
	got, err := Resolve(map[string]string{
		"origin":     "not a url",
		"originator": "legacy.example.com",
	})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if got != "legacy.example.com" {
		t.Fatalf("expected originator fallback when origin is invalid, got %q", got)
	}
}

func TestResolve_FailsWithoutUsableHeaders(t *testing.T) {
	_, err := Resolve(map[string]string{"origin": "not a url"})
	if err == nil {
		t.Fatal("expected resolve to fail, got nil")
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if richErr.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %v", richErr.Category)
	}
	if richErr.TextCode != core.BridgeErrorOriginInvalid {
		t.Fatalf("expected %s text code, got %s", core.BridgeErrorOriginInvalid, richErr.TextCode)
	}
	if richErr.Code != 400 {
		t.Fatalf("expected 400 code, got %d", richErr.Code)
	}
}
