package httpingress

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/devkit"
	"github.com/goliatone/go-wallet-bridge/envelope"
	"github.com/goliatone/go-wallet-bridge/transport"
)

type servedResponse struct {
	code    int
	body    string
	headers http.Header
}

func newTestServer(t *testing.T, cfg core.IngressConfig, opts ...Option) (*Server, *devkit.CaptureTransport) {
	t.Helper()
	bus := devkit.NewCaptureTransport()
	server, err := New(cfg, bus, opts...)
	if err != nil {
		t.Fatalf("expected server to build, got %v", err)
	}
	return server, bus
}

func serveAsync(server *Server, req *http.Request) chan servedResponse {
	done := make(chan servedResponse, 1)
	go func() {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		done <- servedResponse{code: rec.Code, body: rec.Body.String(), headers: rec.Header()}
	}()
	return done
}

func waitForEvents(t *testing.T, bus *devkit.CaptureTransport, want int) []inboundEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		captured := bus.EmittedFor(transport.EventHTTPRequest)
		if len(captured) >= want {
			events := make([]inboundEvent, 0, len(captured))
			for _, raw := range captured {
				var event inboundEvent
				if err := json.Unmarshal(raw.Payload, &event); err != nil {
					t.Fatalf("expected decodable http-request event, got %v", err)
				}
				events = append(events, event)
			}
			return events
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d http-request events, got %d", want, len(captured))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForPending(t *testing.T, server *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for server.PendingCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d pending waiters, got %d", want, server.PendingCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitServed(t *testing.T, done chan servedResponse) servedResponse {
	t.Helper()
	select {
	case result := <-done:
		return result
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the handler to finish")
		return servedResponse{}
	}
}

func hasPair(pairs [][2]string, key, value string) bool {
	for _, pair := range pairs {
		if pair[0] == key && pair[1] == value {
			return true
		}
	}
	return false
}

func TestServer_OptionsAnswersLocally(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/anything", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Private-Network"); got != "true" {
		t.Fatalf("expected private network header, got %q", got)
	}
	if events := bus.EmittedFor(transport.EventHTTPRequest); len(events) != 0 {
		t.Fatalf("expected no bridge event for OPTIONS, got %d", len(events))
	}
}

func TestServer_RelaysRequestAndResponse(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	req := httptest.NewRequest(http.MethodPost, "/createAction?trace=1", strings.NewReader(`{"description":"pay"}`))
	req.Header.Set("Origin", "https://app.example.com")
	done := serveAsync(server, req)

	events := waitForEvents(t, bus, 1)
	event := events[0]
	if event.RequestID != 1 {
		t.Fatalf("expected the first id to be 1, got %d", event.RequestID)
	}
	if event.Method != http.MethodPost {
		t.Fatalf("expected POST, got %q", event.Method)
	}
	if event.Path != "/createAction?trace=1" {
		t.Fatalf("expected the full request uri, got %q", event.Path)
	}
	if event.Body != `{"description":"pay"}` {
		t.Fatalf("expected the request body, got %q", event.Body)
	}
	if !hasPair(event.Headers, "origin", "https://app.example.com") {
		t.Fatalf("expected the origin header pair, got %v", event.Headers)
	}
	if !hasPair(event.Headers, "host", "example.com") {
		t.Fatalf("expected the host pair, got %v", event.Headers)
	}

	server.Resolve(1, envelope.Response{RequestID: 1, Status: 201, Body: `{"txid":"abc"}`})

	result := waitServed(t, done)
	if result.code != 201 {
		t.Fatalf("expected 201, got %d", result.code)
	}
	if result.body != `{"txid":"abc"}` {
		t.Fatalf("expected the bridged body, got %q", result.body)
	}
	if got := result.headers.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS on the reply, got %q", got)
	}
	if got := server.PendingCount(); got != 0 {
		t.Fatalf("expected no pending waiters, got %d", got)
	}
}

func TestServer_InvalidStatusFallsBackTo200(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	done := serveAsync(server, httptest.NewRequest(http.MethodGet, "/getVersion", nil))
	waitForEvents(t, bus, 1)

	server.Resolve(1, envelope.Response{RequestID: 1, Status: 0, Body: "ok"})

	result := waitServed(t, done)
	if result.code != http.StatusOK {
		t.Fatalf("expected fallback 200, got %d", result.code)
	}
	if result.body != "ok" {
		t.Fatalf("expected the body to pass through, got %q", result.body)
	}
}

func TestServer_AllocatesSequentialIDs(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	first := serveAsync(server, httptest.NewRequest(http.MethodGet, "/getHeight", nil))
	waitForEvents(t, bus, 1)
	server.Resolve(1, envelope.Response{RequestID: 1, Status: 200, Body: "{}"})
	waitServed(t, first)

	second := serveAsync(server, httptest.NewRequest(http.MethodGet, "/getHeight", nil))
	events := waitForEvents(t, bus, 2)
	if events[1].RequestID != 2 {
		t.Fatalf("expected the second id to be 2, got %d", events[1].RequestID)
	}
	server.Resolve(2, envelope.Response{RequestID: 2, Status: 200, Body: "{}"})
	waitServed(t, second)
}

func TestServer_EmitFailureAnswers500(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})
	bus.FailEmitsWith(errors.New("bus unavailable"))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/getVersion", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Body.String() != "Internal Server Error" {
		t.Fatalf("expected the plain error body, got %q", rec.Body.String())
	}
	if got := server.PendingCount(); got != 0 {
		t.Fatalf("expected the pending entry to be removed, got %d", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestServer_BodyReadFailureAnswers400(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/createAction", failingReader{}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "Failed to read request body" {
		t.Fatalf("expected the body read error message, got %q", rec.Body.String())
	}
	if events := bus.EmittedFor(transport.EventHTTPRequest); len(events) != 0 {
		t.Fatalf("expected no bridge event, got %d", len(events))
	}
}

func TestServer_SweepAnswersGatewayTimeout(t *testing.T) {
	var mu sync.Mutex
	current := time.Unix(1_700_000_000, 0).UTC()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}

	cfg := core.IngressConfig{PendingMaxAgeSeconds: 60}
	server, bus := newTestServer(t, cfg, WithClock(clock))

	done := serveAsync(server, httptest.NewRequest(http.MethodGet, "/getVersion", nil))
	waitForEvents(t, bus, 1)
	waitForPending(t, server, 1)

	advance(2 * time.Minute)
	swept, err := server.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("expected sweep to succeed, got %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept waiter, got %d", swept)
	}

	result := waitServed(t, done)
	if result.code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", result.code)
	}
	if result.body != "Gateway Timeout" {
		t.Fatalf("expected the gateway timeout body, got %q", result.body)
	}
}

func TestServer_SweepKeepsFreshWaiters(t *testing.T) {
	cfg := core.IngressConfig{PendingMaxAgeSeconds: 3600}
	server, bus := newTestServer(t, cfg)

	done := serveAsync(server, httptest.NewRequest(http.MethodGet, "/getVersion", nil))
	waitForEvents(t, bus, 1)
	waitForPending(t, server, 1)

	swept, err := server.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("expected sweep to succeed, got %v", err)
	}
	if swept != 0 {
		t.Fatalf("expected no swept waiters, got %d", swept)
	}

	server.Resolve(1, envelope.Response{RequestID: 1, Status: 200, Body: "{}"})
	if result := waitServed(t, done); result.code != http.StatusOK {
		t.Fatalf("expected 200 after resolve, got %d", result.code)
	}
}

func TestServer_ClientDisconnectAbandonsWaiter(t *testing.T) {
	server, bus := newTestServer(t, core.IngressConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/getVersion", nil).WithContext(ctx)
	done := serveAsync(server, req)

	waitForEvents(t, bus, 1)
	waitForPending(t, server, 1)
	cancel()

	result := waitServed(t, done)
	if result.code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", result.code)
	}
	if got := server.PendingCount(); got != 0 {
		t.Fatalf("expected the waiter to be abandoned, got %d", got)
	}

	// A late response for the abandoned id is dropped without effect.
	server.Resolve(1, envelope.Response{RequestID: 1, Status: 200, Body: "{}"})
}

func TestServer_StartServesLoopback(t *testing.T) {
	cfg := core.IngressConfig{Enabled: true, HTTPAddr: "127.0.0.1:0"}
	server, bus := newTestServer(t, cfg)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	defer server.Stop(context.Background())

	addr := server.HTTPAddr()
	if addr == "" {
		t.Fatalf("expected a bound http address")
	}

	type clientResult struct {
		status int
		body   string
		err    error
	}
	got := make(chan clientResult, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/getVersion", addr))
		if err != nil {
			got <- clientResult{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		got <- clientResult{status: resp.StatusCode, body: string(body), err: err}
	}()

	events := waitForEvents(t, bus, 1)
	payload, err := json.Marshal(envelope.Response{RequestID: events[0].RequestID, Status: 200, Body: `{"version":"1.0"}`})
	if err != nil {
		t.Fatalf("expected response payload to marshal, got %v", err)
	}
	bus.Deliver(context.Background(), transport.EventTSResponse, payload)

	select {
	case result := <-got:
		if result.err != nil {
			t.Fatalf("expected the client call to succeed, got %v", result.err)
		}
		if result.status != 200 || result.body != `{"version":"1.0"}` {
			t.Fatalf("expected the bridged response, got %d %q", result.status, result.body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the client call to finish")
	}
}

func TestServer_ServesHTTPSWhenConfigured(t *testing.T) {
	cfg := core.IngressConfig{
		Enabled:   true,
		HTTPAddr:  "127.0.0.1:0",
		HTTPSAddr: "127.0.0.1:0",
		TLSDir:    t.TempDir(),
	}
	server, bus := newTestServer(t, cfg)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	defer server.Stop(context.Background())

	addr := server.HTTPSAddr()
	if addr == "" {
		t.Fatalf("expected a bound https address")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	type clientResult struct {
		status int
		err    error
	}
	got := make(chan clientResult, 1)
	go func() {
		resp, err := client.Get(fmt.Sprintf("https://%s/getVersion", addr))
		if err != nil {
			got <- clientResult{err: err}
			return
		}
		resp.Body.Close()
		got <- clientResult{status: resp.StatusCode}
	}()

	events := waitForEvents(t, bus, 1)
	payload, err := json.Marshal(envelope.Response{RequestID: events[0].RequestID, Status: 200, Body: "{}"})
	if err != nil {
		t.Fatalf("expected response payload to marshal, got %v", err)
	}
	bus.Deliver(context.Background(), transport.EventTSResponse, payload)

	select {
	case result := <-got:
		if result.err != nil {
			t.Fatalf("expected the https call to succeed, got %v", result.err)
		}
		if result.status != 200 {
			t.Fatalf("expected 200 over https, got %d", result.status)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the https call to finish")
	}
}

func TestServer_StopAbandonsInflightWaiters(t *testing.T) {
	cfg := core.IngressConfig{Enabled: true, HTTPAddr: "127.0.0.1:0"}
	server, bus := newTestServer(t, cfg)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	type clientResult struct {
		status int
		err    error
	}
	got := make(chan clientResult, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/getVersion", server.HTTPAddr()))
		if err != nil {
			got <- clientResult{err: err}
			return
		}
		resp.Body.Close()
		got <- clientResult{status: resp.StatusCode}
	}()

	waitForEvents(t, bus, 1)
	waitForPending(t, server, 1)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Stop(stopCtx); err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}

	select {
	case result := <-got:
		if result.err != nil {
			t.Fatalf("expected a response before shutdown finished, got %v", result.err)
		}
		if result.status != http.StatusGatewayTimeout {
			t.Fatalf("expected 504 for the abandoned waiter, got %d", result.status)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the client call to finish")
	}
}

func TestServer_StartRejectsSecondStart(t *testing.T) {
	cfg := core.IngressConfig{Enabled: true, HTTPAddr: "127.0.0.1:0"}
	server, _ := newTestServer(t, cfg)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	defer server.Stop(context.Background())

	if err := server.Start(context.Background()); err == nil {
		t.Fatalf("expected a second start to fail")
	}
}

func TestNew_RequiresTransport(t *testing.T) {
	if _, err := New(core.IngressConfig{}, nil); err == nil {
		t.Fatalf("expected an error without a transport")
	}
}
