// Package httpapi serves the bot's observation surface: status and build
// info, Prometheus metrics, and a live reaction feed over WebSocket for
// stream overlays.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/you/babel-chat/internal/core"
)

// Status is the live snapshot reported by /status.
type Status struct {
	Stopped       bool             `json:"stopped"`
	QueueDepth    int              `json:"queue_depth"`
	AssignedUsers int              `json:"assigned_users"`
	UptimeSecs    int64            `json:"uptime_secs"`
	Platforms     map[string]int64 `json:"platforms,omitempty"`
	Config        json.RawMessage  `json:"config,omitempty"`
}

// FeedEvent is one presented message pushed to feed clients.
type FeedEvent struct {
	User      string          `json:"user"`
	Reactions []core.Reaction `json:"reactions"`
}

type Server struct {
	opts       Options
	httpServer *http.Server
	metrics    *Metrics
	limiter    *ipRateLimiter
	cors       *corsPolicy
	started    time.Time

	mu      sync.Mutex
	clients map[chan FeedEvent]struct{}
	closed  bool
}

type Options struct {
	Addr        string
	CORSOrigins []string
	RateRPS     int
	RateBurst   int
	Metrics     bool
	AccessLog   bool
	Build       BuildInfo
	// Status supplies the live snapshot for /status; nil reports zeroes.
	Status func() Status
	// QueueDepth feeds the speech queue gauge when metrics are enabled.
	QueueDepth func() float64
	// Mount registers extra routes (admin surface) on the mux.
	Mount func(mux *http.ServeMux)
}

func New(opts Options) *Server {
	srv := &Server{
		opts:    opts,
		limiter: newIPRateLimiter(opts.RateRPS, opts.RateBurst),
		cors:    newCORSPolicy(opts.CORSOrigins),
		started: time.Now(),
		clients: make(map[chan FeedEvent]struct{}),
	}
	if opts.Metrics {
		srv.metrics = newMetrics(opts.QueueDepth)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.wrap("/healthz", srv.handleHealthz))
	mux.HandleFunc("/status", srv.wrap("/status", srv.handleStatus))
	mux.HandleFunc("/info", srv.wrap("/info", srv.handleInfo))
	mux.HandleFunc("/feed", srv.wrap("/feed", srv.handleFeed))
	if srv.metrics != nil {
		mux.Handle("/metrics", srv.metrics.Handler())
	}
	if opts.Mount != nil {
		opts.Mount(mux)
	}

	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// wrap applies the middleware chain: per-IP rate limit, CORS, gzip, and the
// access log / request metrics recorder.
func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newResponseRecorder(w)

		if !s.limiter.Allow(remoteIP(r)) {
			s.metrics.IncRateLimited()
			http.Error(rec, "too many requests", http.StatusTooManyRequests)
			s.finish(route, r, rec, start)
			return
		}

		if handled, _ := s.cors.handlePreflight(rec, r); handled {
			s.finish(route, r, rec, start)
			return
		}
		if !s.cors.applyHeaders(rec, r) {
			http.Error(rec, "origin not allowed", http.StatusForbidden)
			s.finish(route, r, rec, start)
			return
		}

		if gz, ok := maybeGzip(rec, r); ok {
			defer gz.Close()
		}

		next(rec, r)
		s.finish(route, r, rec, start)
	}
}

func (s *Server) finish(route string, r *http.Request, rec *responseRecorder, start time.Time) {
	dur := time.Since(start)
	s.metrics.ObserveRequest(route, r.Method, rec.Status(), dur)
	if s.opts.AccessLog {
		log.Printf("http %s %s %d %dB %s %s", r.Method, route, rec.Status(), rec.Bytes(), dur.Round(time.Millisecond), remoteIP(r))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var status Status
	if s.opts.Status != nil {
		status = s.opts.Status()
	}
	status.UptimeSecs = int64(time.Since(s.started).Seconds())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(status)
}

// handleFeed upgrades to WebSocket and streams feed events until the
// client goes away. Slow clients lose events rather than stalling the
// pipeline.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(baseWriter(w), r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.CORSOrigins,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	clientCh := make(chan FeedEvent, 64)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.clients[clientCh] = struct{}{}
	s.mu.Unlock()
	s.metrics.IncFeedClients(1)

	defer func() {
		s.mu.Lock()
		delete(s.clients, clientCh)
		s.mu.Unlock()
		s.metrics.IncFeedClients(-1)
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-clientCh:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Present pushes one handled message to all feed clients, so the server
// can sit next to the console presenter in the pipeline.
func (s *Server) Present(user string, reactions []core.Reaction) {
	ev := FeedEvent{User: user, Reactions: reactions}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- ev:
		default:
			s.metrics.IncFeedDrops()
		}
	}
}

// PipelineMetrics exposes the collectors the pipeline and speech worker
// report into; nil when metrics are disabled.
func (s *Server) PipelineMetrics() *Metrics {
	return s.metrics
}

func (s *Server) Start() error {
	log.Printf("http api listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for ch := range s.clients {
		close(ch)
	}
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}
