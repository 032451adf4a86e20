// FILE: lixenwraith/logpipe/admin/server.go
// Package admin exposes operator endpoints for a running Dispatcher over fasthttp.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/compat"
)

// DateLayout is the accepted layout of the start and end query parameters
const DateLayout = "2006-01-02"

// Endpoint paths
const (
	PathArchive = "/archive"
	PathPurge   = "/purge"
	PathStatus  = "/status"
	PathMetrics = "/metrics"
	PathExit    = "/exit"
)

// Server serves the operator endpoints
type Server struct {
	d       *logpipe.Dispatcher
	srv     *fasthttp.Server
	metrics fasthttp.RequestHandler
	now     func() time.Time
	onExit  func(acked bool)
}

// Option customizes a Server
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
}

// WithClock sets the time source for default archive ranges
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithExitHook is called after /exit has shut the dispatcher down
func WithExitHook(fn func(acked bool)) Option {
	return func(s *Server) { s.onExit = fn }
}

// New returns a Server for d. Server diagnostics are logged through d.
func New(d *logpipe.Dispatcher, opts ...Option) *Server {
	s := &Server{
		d:       d,
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Logger:       compat.NewFastHTTPAdapter(d),
		Name:         "logpipe-admin",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// ListenAndServe serves on addr until Shutdown
func (s *Server) ListenAndServe(addr string) error {
	_ = s.d.Info("Admin", "ListenAndServe", fmt.Sprintf("Admin endpoint listening on %s", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for open ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes a request to its endpoint
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch path {
	case PathArchive:
		if requireMethod(ctx, fasthttp.MethodPost) {
			s.handleArchive(ctx)
		}
	case PathPurge:
		if requireMethod(ctx, fasthttp.MethodPost) {
			s.handlePurge(ctx)
		}
	case PathStatus:
		if requireMethod(ctx, fasthttp.MethodGet) {
			writeJSON(ctx, fasthttp.StatusOK, s.d.Stats())
		}
	case PathMetrics:
		if requireMethod(ctx, fasthttp.MethodGet) {
			s.metrics(ctx)
		}
	case PathExit:
		if requireMethod(ctx, fasthttp.MethodPost) {
			s.handleExit(ctx)
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, fmt.Errorf("unknown path %q", path))
	}
}

type archiveResponse struct {
	Start   time.Time               `json:"start"`
	End     time.Time               `json:"end"`
	Reports []logpipe.ArchiveReport `json:"reports"`
}

func (s *Server) handleArchive(ctx *fasthttp.RequestCtx) {
	args, err := s.archiveArgs(ctx.QueryArgs())
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	reports, err := s.d.Archive(args)
	if err != nil {
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, logpipe.ErrInvalidArchiveRange) {
			status = fasthttp.StatusBadRequest
		}
		writeError(ctx, status, err)
		return
	}
	if reports == nil {
		reports = []logpipe.ArchiveReport{}
	}
	writeJSON(ctx, fasthttp.StatusOK, archiveResponse{Start: args.Start, End: args.End, Reports: reports})
}

// archiveArgs parses start, end and max_bytes over the default three day window.
// end covers the whole named day.
func (s *Server) archiveArgs(q *fasthttp.Args) (logpipe.ArchiveArgs, error) {
	args := logpipe.DefaultArchiveArgs(s.now())
	loc := s.now().Location()

	if v := q.Peek("start"); len(v) > 0 {
		t, err := time.ParseInLocation(DateLayout, string(v), loc)
		if err != nil {
			return args, fmt.Errorf("invalid start: %w", err)
		}
		args.Start = t
	}
	if v := q.Peek("end"); len(v) > 0 {
		t, err := time.ParseInLocation(DateLayout, string(v), loc)
		if err != nil {
			return args, fmt.Errorf("invalid end: %w", err)
		}
		args.End = t.Add(24*time.Hour - time.Second)
	}
	if v := q.Peek("max_bytes"); len(v) > 0 {
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return args, fmt.Errorf("invalid max_bytes: %w", err)
		}
		args.MaxArchiveSizeBytes = n
	}
	return args, nil
}

func (s *Server) handlePurge(ctx *fasthttp.RequestCtx) {
	s.d.Purge()
	writeJSON(ctx, fasthttp.StatusAccepted, map[string]string{"status": "purge requested"})
}

func (s *Server) handleExit(ctx *fasthttp.RequestCtx) {
	var timeout time.Duration
	if v := ctx.QueryArgs().Peek("timeout_ms"); len(v) > 0 {
		ms, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil || ms < 0 {
			writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("invalid timeout_ms %q", v))
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	acked := s.d.Exit(timeout)
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"acknowledged": acked})
	if s.onExit != nil {
		s.onExit(acked)
	}
}

func requireMethod(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) == method {
		return true
	}
	ctx.Response.Header.Set(fasthttp.HeaderAllow, method)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", ctx.Method()))
	return false
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	writeJSON(ctx, status, map[string]string{"error": err.Error()})
}
