// Package httpingress runs the loopback listeners that turn local HTTP
// traffic into correlated bridge events. Each request allocates an id,
// registers a waiter, emits an http-request event, and blocks until the
// matching ts-response arrives or the waiter is abandoned.
package httpingress

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/envelope"
	"github.com/goliatone/go-wallet-bridge/tlslocal"
	"github.com/goliatone/go-wallet-bridge/transport"
)

// inboundEvent is the http-request payload delivered to the bridge. Headers
// travel as ordered pairs.
type inboundEvent struct {
	Method    string      `json:"method"`
	Path      string      `json:"path"`
	Headers   [][2]string `json:"headers"`
	Body      string      `json:"body"`
	RequestID int64       `json:"request_id"`
}

type Option func(*Server)

func WithLogger(logger core.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTLSConfig overrides the certificate material for the HTTPS listener.
// Without it the listener provisions a localhost certificate via tlslocal.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// Server is the loopback ingress. One instance serves HTTP and, when
// configured, HTTPS with the same handler.
type Server struct {
	config    core.IngressConfig
	logger    core.Logger
	bus       core.Transport
	pending   *PendingMap
	counter   atomic.Int64
	tlsConfig *tls.Config
	now       func() time.Time

	mu        sync.Mutex
	started   bool
	detach    core.DetachFunc
	httpAddr  string
	httpsAddr string
	httpSrv   *http.Server
	httpsSrv  *http.Server
}

func New(cfg core.IngressConfig, bus core.Transport, opts ...Option) (*Server, error) {
	if bus == nil {
		return nil, fmt.Errorf("httpingress: transport is required")
	}
	s := &Server{
		config:  cfg,
		logger:  glog.Ensure(nil),
		bus:     bus,
		pending: NewPendingMap(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler exposes the bridge handler for direct mounting.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleBridgeRequest)
}

// Start subscribes to ts-response events and brings up the listeners. The
// HTTP listener is mandatory; HTTPS failures only disable the HTTPS surface.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("httpingress: server already started")
	}
	if strings.TrimSpace(s.config.HTTPAddr) == "" {
		return fmt.Errorf("httpingress: http listen address is required")
	}

	detach, err := s.bus.Subscribe(transport.EventTSResponse, s.handleResponseEvent)
	if err != nil {
		return fmt.Errorf("httpingress: subscribe ts-response: %w", err)
	}

	listenConfig := net.ListenConfig{}
	httpLn, err := listenConfig.Listen(ctx, "tcp", s.config.HTTPAddr)
	if err != nil {
		detach()
		return fmt.Errorf("httpingress: listen %s: %w", s.config.HTTPAddr, err)
	}
	s.httpAddr = httpLn.Addr().String()
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go s.serve(s.httpSrv, httpLn, "http")
	s.logger.Info("http ingress listening", "addr", s.httpAddr)

	if strings.TrimSpace(s.config.HTTPSAddr) != "" {
		s.startHTTPSLocked(ctx)
	}

	s.detach = detach
	s.started = true
	return nil
}

func (s *Server) startHTTPSLocked(ctx context.Context) {
	tlsConfig := s.tlsConfig
	if tlsConfig == nil {
		cert, err := tlslocal.Ensure(s.config.TLSDir)
		if err != nil {
			s.logger.Error("https ingress disabled", "error", err.Error())
			return
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	listenConfig := net.ListenConfig{}
	ln, err := listenConfig.Listen(ctx, "tcp", s.config.HTTPSAddr)
	if err != nil {
		s.logger.Error("https ingress disabled",
			"addr", s.config.HTTPSAddr,
			"error", err.Error(),
		)
		return
	}
	s.httpsAddr = ln.Addr().String()
	s.httpsSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConfig,
	}
	go s.serve(s.httpsSrv, tls.NewListener(ln, tlsConfig), "https")
	s.logger.Info("https ingress listening", "addr", s.httpsAddr)
}

func (s *Server) serve(srv *http.Server, ln net.Listener, scheme string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("ingress listener stopped",
			"scheme", scheme,
			"error", err.Error(),
		)
	}
}

// Stop abandons every waiter, then shuts the listeners down. Waiters answer
// 504 on the way out.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
	s.pending.Close()

	var firstErr error
	for _, srv := range []*http.Server{s.httpSrv, s.httpsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.httpSrv = nil
	s.httpsSrv = nil
	s.httpAddr = ""
	s.httpsAddr = ""
	s.started = false
	return firstErr
}

// HTTPAddr returns the bound HTTP address, empty before Start.
func (s *Server) HTTPAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpAddr
}

// HTTPSAddr returns the bound HTTPS address, empty before Start or when the
// HTTPS surface is disabled.
func (s *Server) HTTPSAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpsAddr
}

func (s *Server) PendingCount() int {
	return s.pending.Len()
}

// SweepPending expires waiters older than the configured max age. Their
// handlers answer 504.
func (s *Server) SweepPending(_ context.Context) (int, error) {
	maxAge := time.Duration(s.config.PendingMaxAgeSeconds) * time.Second
	if maxAge <= 0 {
		return 0, nil
	}
	swept := s.pending.Sweep(s.now().Add(-maxAge))
	if swept > 0 {
		s.logger.Info("swept expired ingress waiters", "count", swept)
	}
	return swept, nil
}

// Resolve hands a correlated response to its waiting handler. Unknown ids
// are logged and dropped.
func (s *Server) Resolve(requestID int64, resp envelope.Response) {
	if !s.pending.Resolve(requestID, resp) {
		s.logger.Error("ts-response for unknown request id", "request_id", requestID)
	}
}

func (s *Server) handleResponseEvent(_ context.Context, payload []byte) {
	var resp envelope.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger.Error("ts-response payload rejected", "error", err.Error())
		return
	}
	s.Resolve(resp.RequestID, resp)
}

func (s *Server) handleBridgeRequest(w http.ResponseWriter, r *http.Request) {
	applyCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := s.counter.Add(1)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("request body read failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "Failed to read request body")
		return
	}

	waiter := s.pending.Register(requestID, s.now())

	payload, err := json.Marshal(inboundEvent{
		Method:    r.Method,
		Path:      r.URL.RequestURI(),
		Headers:   headerPairs(r),
		Body:      string(body),
		RequestID: requestID,
	})
	if err != nil {
		s.pending.Abandon(requestID)
		s.logger.Error("request event serialization failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Internal Server Error")
		return
	}

	if err := s.bus.Emit(r.Context(), transport.EventHTTPRequest, payload); err != nil {
		s.pending.Abandon(requestID)
		s.logger.Error("request event emit failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Internal Server Error")
		return
	}

	select {
	case resp, ok := <-waiter:
		if !ok {
			s.writeGatewayTimeout(w, requestID)
			return
		}
		status := resp.Status
		if status < 100 || status > 999 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		io.WriteString(w, resp.Body)
	case <-r.Context().Done():
		s.pending.Abandon(requestID)
		s.writeGatewayTimeout(w, requestID)
	}
}

func (s *Server) writeGatewayTimeout(w http.ResponseWriter, requestID int64) {
	s.logger.Error("request abandoned before resolution", "request_id", requestID)
	w.WriteHeader(http.StatusGatewayTimeout)
	io.WriteString(w, "Gateway Timeout")
}

func applyCORSHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", "*")
	header.Set("Access-Control-Allow-Methods", "*")
	header.Set("Access-Control-Expose-Headers", "*")
	header.Set("Access-Control-Allow-Private-Network", "true")
}

// headerPairs snapshots request headers as ordered lowercase pairs, host
// first, one pair per value.
func headerPairs(r *http.Request) [][2]string {
	pairs := make([][2]string, 0, len(r.Header)+1)
	if r.Host != "" {
		pairs = append(pairs, [2]string{"host", r.Host})
	}
	keys := make([]string, 0, len(r.Header))
	for key := range r.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range r.Header[key] {
			pairs = append(pairs, [2]string{strings.ToLower(key), value})
		}
	}
	return pairs
}

var _ core.PendingSweeper = (*Server)(nil)
