package axon

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minerd/internal/backend"
	"minerd/internal/miner"
	"minerd/pkg/types"
)

// Defaults applied when corresponding Options fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// Options encapsulates all tunables for Server construction.
type Options struct {
	Model         string
	Device        string
	MaxQueueDepth int
	MaxWait       time.Duration
	Ready         func() bool
	Events        miner.EventPublisher
}

// Server is the serving shim between the network layer and one miner. It
// dispatches each incoming synapse call through the miner's blacklist and
// priority hooks, then its forward, and maps errors to HTTP statuses.
type Server struct {
	kind    string
	h       miner.Handlers
	model   string
	device  string
	ready   func() bool
	pub     miner.EventPublisher
	maxWait time.Duration

	queueCh chan struct{}
	genCh   chan struct{}

	startTime   time.Time
	served      atomic.Uint64
	blacklisted atomic.Uint64

	mu      sync.Mutex
	lastErr string
}

// New constructs a Server for the given handler record.
func New(h miner.Handlers, opts Options) *Server {
	h = h.Normalized()
	depth := opts.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	wait := opts.MaxWait
	if wait <= 0 {
		wait = defaultMaxWait
	}
	ready := opts.Ready
	if ready == nil {
		ready = func() bool { return true }
	}
	pub := opts.Events
	if pub == nil {
		pub = miner.NoopPublisher{}
	}
	return &Server{
		kind:      h.Kind(),
		h:         h,
		model:     opts.Model,
		device:    opts.Device,
		ready:     ready,
		pub:       pub,
		maxWait:   wait,
		queueCh:   make(chan struct{}, depth),
		genCh:     make(chan struct{}, 1),
		startTime: time.Now(),
	}
}

// Status reports the current serving state.
func (s *Server) Status() types.StatusResponse {
	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()
	now := time.Now()
	return types.StatusResponse{
		Miner:            s.kind,
		Model:            s.model,
		Device:           s.device,
		QueueLen:         s.QueueLen(),
		Inflight:         s.Inflight(),
		MaxQueueDepth:    cap(s.queueCh),
		ServedTotal:      s.served.Load(),
		BlacklistedTotal: s.blacklisted.Load(),
		UptimeSeconds:    int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix:   now.Unix(),
		LastError:        lastErr,
	}
}

func (s *Server) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

// Routes builds the HTTP handler for this server. Only the synapse route
// matching the handler record's kind is registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	switch s.kind {
	case miner.KindPrompt:
		r.Post("/synapse/prompt", s.handlePrompt)
	case miner.KindEmbed:
		r.Post("/synapse/embed", s.handleEmbed)
	case miner.KindVideo:
		r.Post("/synapse/video", s.handleVideo)
	}
	r.Post("/synapse/backward", s.handleBackward)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// decodeJSON enforces the content type and body limit, then decodes into v.
// A false return means an error response was already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// admit runs the blacklist and priority hooks. A false return means the
// request was refused and a response was already written.
func (s *Server) admit(w http.ResponseWriter, r *http.Request) (miner.Call, float64, bool) {
	call := miner.Call{
		Kind:     s.kind,
		Hotkey:   r.Header.Get("X-Hotkey"),
		RemoteIP: r.RemoteAddr,
		Size:     r.ContentLength,
	}
	if reject, reason := s.h.Blacklist(call); reject {
		s.blacklisted.Add(1)
		blacklistTotal.WithLabelValues(s.kind).Inc()
		s.pub.Publish(miner.Event{Name: "blacklisted", Kind: s.kind, Fields: map[string]any{"reason": reason}})
		if reason == "" {
			reason = "request refused"
		}
		writeJSONError(w, http.StatusForbidden, reason)
		return call, 0, false
	}
	prio := s.h.Priority(call)
	priorityObserved.WithLabelValues(s.kind).Observe(prio)
	return call, prio, true
}

// finishForward maps a forward error to an HTTP status, or returns true when
// the caller may write the success response.
func (s *Server) finishForward(w http.ResponseWriter, r *http.Request, lvl LogLevel, start time.Time, err error) bool {
	forwardDuration.WithLabelValues(s.kind).Observe(time.Since(start).Seconds())
	if err == nil {
		s.served.Add(1)
		s.pub.Publish(miner.Event{Name: "forward_ok", Kind: s.kind})
		if lvl >= LevelInfo {
			z := zlog.Info().Str("kind", s.kind).Int("status", http.StatusOK).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("forward end")
		}
		return true
	}
	// Client disconnect or shutdown: nothing useful to write.
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return false
	}
	s.setLastError(err)
	s.pub.Publish(miner.Event{Name: "forward_err", Kind: s.kind, Fields: map[string]any{"error": err.Error()}})
	status := http.StatusInternalServerError
	switch {
	case miner.IsInvalidRequest(err):
		status = http.StatusBadRequest
	case backend.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	case IsTooBusy(err):
		status = http.StatusTooManyRequests
		backpressureTotal.WithLabelValues(s.kind).Inc()
	default:
		if he, ok := err.(HTTPError); ok {
			status = he.StatusCode()
		}
	}
	writeJSONError(w, status, err.Error())
	if lvl >= LevelInfo {
		z := zlog.Info().Str("kind", s.kind).Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Err(err).Msg("forward end")
	}
	return false
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, prio, ok := s.admit(w, r)
	if !ok {
		return
	}
	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		zlog.Info().Str("kind", s.kind).Int("messages", len(req.Messages)).Float64("priority", prio).Msg("forward start")
	}
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	start := time.Now()
	release, err := s.beginForward(joinedCtx)
	if err == nil {
		defer release()
	}
	var completion string
	if err == nil {
		completion, err = s.h.ForwardPrompt(joinedCtx, req.Messages)
	}
	if !s.finishForward(w, r, lvl, start, err) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.PromptResponse{
		Completion: completion,
		ElapsedMS:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req types.EmbeddingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, prio, ok := s.admit(w, r)
	if !ok {
		return
	}
	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		zlog.Info().Str("kind", s.kind).Int("inputs", len(req.Text)).Float64("priority", prio).Msg("forward start")
	}
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	start := time.Now()
	release, err := s.beginForward(joinedCtx)
	if err == nil {
		defer release()
	}
	var vectors [][]float32
	if err == nil {
		vectors, err = s.h.ForwardEmbed(joinedCtx, req.Text)
	}
	if !s.finishForward(w, r, lvl, start, err) {
		return
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.EmbeddingResponse{Embeddings: vectors, Dim: dim})
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var req types.VideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, prio, ok := s.admit(w, r)
	if !ok {
		return
	}
	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		zlog.Info().Str("kind", s.kind).Int("frames", req.NumFrames).Float64("priority", prio).Msg("forward start")
	}
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	start := time.Now()
	release, err := s.beginForward(joinedCtx)
	if err == nil {
		defer release()
	}
	var video []byte
	if err == nil {
		video, err = s.h.ForwardVideo(joinedCtx, req.Text, req.NumInferenceSteps, req.NumFrames, req.FPS)
	}
	if !s.finishForward(w, r, lvl, start, err) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.VideoResponse{
		Video:     video,
		ElapsedMS: time.Since(start).Milliseconds(),
	})
}

// handleBackward acknowledges reward backpropagation calls. Generation miners
// do not learn online; the call is accepted and dropped.
func (s *Server) handleBackward(w http.ResponseWriter, r *http.Request) {
	if err := s.h.Backward(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
