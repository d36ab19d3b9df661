// Package manifest proxies app manifest fetches for browser frontends that
// cannot cross CORS boundaries themselves. The fetcher is deliberately
// narrow: https only, manifest.json paths only, capped redirects and body
// size.
package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/core"
)

const (
	acceptHeader          = "application/json, */*;q=0.8"
	defaultRequestTimeout = 10 * time.Second
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result mirrors the proxied response: status, ordered header pairs, body
// text.
type Result struct {
	Status  int         `json:"status"`
	Headers [][2]string `json:"headers"`
	Body    string      `json:"body"`
}

type Option func(*Fetcher)

func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

type Fetcher struct {
	config core.ManifestConfig
	client HTTPDoer
	logger core.Logger
}

func New(cfg core.ManifestConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		config: cfg,
		logger: glog.Ensure(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout:       defaultRequestTimeout,
			CheckRedirect: redirectPolicy(cfg.MaxRedirects),
		}
	}
	return f
}

// Fetch retrieves rawURL if policy allows it. Policy refusals never issue a
// network request.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Result{}, policyError(fmt.Sprintf("invalid url: %v", err))
	}
	if parsed.Scheme != "https" {
		return Result{}, policyError("only https scheme is allowed")
	}
	if !strings.HasSuffix(strings.ToLower(parsed.Path), "/manifest.json") {
		return Result{}, policyError("only manifest.json paths are allowed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Result{}, fetchError(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", acceptHeader)
	if ua := strings.TrimSpace(f.config.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return Result{}, fetchError(err.Error())
	}
	defer res.Body.Close()

	maxBytes := f.config.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBytes+1))
	if err != nil {
		return Result{}, fetchError(fmt.Sprintf("read response: %v", err))
	}
	if int64(len(body)) > maxBytes {
		return Result{}, fetchError(fmt.Sprintf("response exceeds %d bytes", maxBytes))
	}

	f.logger.Info("manifest fetched",
		"url", parsed.String(),
		"status", res.StatusCode,
		"bytes", len(body),
	)
	return Result{
		Status:  res.StatusCode,
		Headers: headerPairs(res.Header),
		Body:    string(body),
	}, nil
}

func redirectPolicy(max int) func(req *http.Request, via []*http.Request) error {
	if max <= 0 {
		max = 5
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("manifest: stopped after %d redirects", max)
		}
		return nil
	}
}

func headerPairs(header http.Header) [][2]string {
	pairs := make([][2]string, 0, len(header))
	for _, key := range sortedKeys(header) {
		for _, value := range header[key] {
			pairs = append(pairs, [2]string{strings.ToLower(key), value})
		}
	}
	return pairs
}

func sortedKeys(header http.Header) []string {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func policyError(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.BridgeErrorManifestPolicy)
}

func fetchError(message string) error {
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.BridgeErrorManifestFetch)
}
