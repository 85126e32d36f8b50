package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"

	"github.com/skobkin/ryzenmon/internal/api"
	"github.com/skobkin/ryzenmon/internal/config"
	"github.com/skobkin/ryzenmon/internal/history"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/sampler"
	"github.com/skobkin/ryzenmon/internal/version"
)

const (
	readHeaderTimeout = 5 * time.Second
	wsSendQueueSize   = 16
)

// Deps are the data sources the HTTP surface reads from.
type Deps struct {
	Hub *sampler.Hub
	// Registry resolves layouts for /api/schema; nil means the built-in layouts.
	Registry *pmtable.Registry
	System   api.System
	// Version is the layout the monitor was started with; used until the
	// first frame arrives.
	Version uint32
	// History is optional; /api/history answers 404 without it.
	History *history.Window
}

// Server wraps the HTTP surface area of the application.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	httpServer *http.Server
	hub        *sampler.Hub
	registry   *pmtable.Registry
	system     api.System
	version    uint32
	history    *history.Window

	maxWSClients int64
	wsActive     atomic.Int64
	wsTotal      atomic.Uint64
	wsRejected   atomic.Uint64
	wsSent       atomic.Uint64
	wsDropped    atomic.Uint64
	wsConnIDs    atomic.Uint64
	requestIDs   atomic.Uint64
}

// New assembles a Server with its handlers.
func New(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      deps.Hub,
		registry: deps.Registry,
		system:   deps.System,
		version:  deps.Version,
		history:  deps.History,
	}
	if s.registry == nil {
		s.registry = pmtable.Builtin()
	}

	if cfg.WS.MaxClients > 0 {
		s.maxWSClients = int64(cfg.WS.MaxClients)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/api/readyz", s.handleReadyz)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/schema", s.handleSchema)
	mux.HandleFunc("/api/system", s.handleSystem)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWS)

	if cfg.EnablePrometheus {
		s.registerPrometheus(mux)
	}
	if cfg.EnablePprof {
		registerPprof(mux)
	}

	handler := s.withRequestLogging(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Start begins serving HTTP until shutdown is requested.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("listener stopped")
	return nil
}

// Shutdown attempts a graceful shutdown within the supplied context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	info := s.readiness()
	logger := s.loggerFromContext(r.Context())

	statusCode := http.StatusOK
	if info.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Error("failed to encode readyz response", "err", err)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.writeJSON(w, r, version.Current())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	sample, ok := s.latest()
	if !ok {
		http.Error(w, "no sample available", http.StatusServiceUnavailable)
		return
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(sample.Document); err != nil {
		logger.Warn("failed to write snapshot response", "err", err)
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	v := s.version
	if sample, ok := s.latest(); ok {
		v = sample.Version
	}
	schema, err := s.registry.Lookup(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	table, err := pmtable.Bind(schema, pmtable.NewBuffer(schema))
	if err != nil {
		s.loggerFromContext(r.Context()).Error("failed to bind schema", "version", schema, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, api.NewSchemaResponse(schema, table.Aliases()))
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.writeJSON(w, r, s.system)
}

// handleHistory serves the in-memory window as a mebo blob, or decoded
// series when format=json is requested.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	data, err := s.history.Encode()
	if errors.Is(err, history.ErrNoData) {
		http.Error(w, "no history available", http.StatusServiceUnavailable)
		return
	}
	logger := s.loggerFromContext(r.Context())
	if err != nil {
		logger.Error("failed to encode history", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		names := s.history.Names()
		if filter := r.URL.Query().Get("metric"); filter != "" {
			names = strings.Split(filter, ",")
		}
		series, err := history.Decode(data, names)
		if err != nil {
			logger.Error("failed to decode history", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, r, series)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		logger.Warn("failed to write history response", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) latest() (sampler.Sample, bool) {
	if s.hub == nil {
		return sampler.Sample{}, false
	}
	return s.hub.Latest()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	reqLogger := s.loggerFromContext(r.Context())
	if !allowGet(w, r) {
		return
	}

	if !s.reserveWS() {
		reqLogger.Warn("websocket rejected", "reason", "capacity")
		http.Error(w, "websocket capacity reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseWS()

	opts := &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.cfg.AllowedOrigins),
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		reqLogger.Warn("websocket accept failed", "err", err)
		return
	}
	defer closeWebsocket(reqLogger, conn)

	connID := s.wsConnIDs.Add(1)
	s.wsTotal.Add(1)
	logger := reqLogger.With("ws_id", connID)

	outbound := newWSOutbound(wsSendQueueSize, &s.wsDropped)

	features := map[string]bool{
		"history":    s.history != nil,
		"prometheus": s.cfg.EnablePrometheus,
	}
	currentVersion := s.version
	if sample, ok := s.latest(); ok {
		currentVersion = sample.Version
	}
	hello := api.NewHelloMessage(
		int(s.cfg.Interval/time.Millisecond),
		currentVersion,
		s.system,
		features,
	)

	ctx, cancel := context.WithCancel(r.Context())

	writerDone := make(chan struct{})
	go s.wsWriter(ctx, conn, outbound, cancel, logger, writerDone)

	var (
		subCh       <-chan sampler.Sample
		unsubscribe func()
	)

	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
		outbound.close()
		cancel()
		<-writerDone
	}()

	if !s.enqueueMessage(outbound, hello, logger) {
		return
	}

	if s.hub == nil {
		_ = s.enqueueError(outbound, "frame stream unavailable", logger)
	} else {
		subCh, unsubscribe, err = s.hub.Subscribe()
		if err != nil {
			logger.Warn("failed to subscribe to frames", "err", err)
			_ = s.enqueueError(outbound, "frame stream unavailable", logger)
		}
	}

	messageCh := make(chan []byte, 8)
	readErrCh := make(chan error, 1)
	go s.readMessages(ctx, conn, messageCh, readErrCh)

	for {
		select {
		case sample, ok := <-subCh:
			if !ok {
				subCh = nil
				continue
			}
			if !s.enqueueMessage(outbound, api.NewFrameMessage(sample.Version, sample.Document), logger) {
				return
			}
		case data, ok := <-messageCh:
			if !ok {
				messageCh = nil
				continue
			}
			if !s.handleClientMessage(outbound, data, logger) {
				return
			}
		case err := <-readErrCh:
			if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logger.Warn("websocket read error", "err", err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) readMessages(ctx context.Context, conn *websocket.Conn, out chan<- []byte, errCh chan<- error) {
	defer close(out)
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			errCh <- err
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		select {
		case out <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleClientMessage(outbound *wsOutbound, data []byte, logger *slog.Logger) bool {
	var envelope api.ClientMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		logger.Debug("invalid client message", "err", err)
		return true
	}

	switch envelope.Type {
	case "ping":
		return s.enqueueMessage(outbound, api.PongMessage{Type: "pong"}, logger)
	default:
		logger.Debug("unknown message type", "type", envelope.Type)
	}
	return true
}

func (s *Server) wsWriter(ctx context.Context, conn *websocket.Conn, outbound *wsOutbound, cancel context.CancelFunc, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-outbound.channel():
			if !ok {
				return
			}
			if err := s.writeRaw(ctx, conn, msg); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					logger.Warn("websocket write failed", "err", err)
				}
				cancel()
				return
			}
			s.wsSent.Add(1)
		}
	}
}

func (s *Server) writeRaw(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.WS.WriteTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, s.cfg.WS.WriteTimeout)
	}
	if cancel != nil {
		defer cancel()
	}
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (s *Server) enqueueMessage(outbound *wsOutbound, payload any, logger *slog.Logger) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal websocket payload", "err", err)
		return false
	}
	if !outbound.enqueue(data) {
		logger.Warn("websocket outbound queue unavailable")
		return false
	}
	return true
}

func (s *Server) enqueueError(outbound *wsOutbound, msg string, logger *slog.Logger) bool {
	return s.enqueueMessage(outbound, api.ErrorMessage{Type: "error", Message: msg}, logger)
}

func (s *Server) reserveWS() bool {
	if s.maxWSClients <= 0 {
		s.wsActive.Add(1)
		return true
	}

	for {
		current := s.wsActive.Load()
		if current >= s.maxWSClients {
			s.wsRejected.Add(1)
			return false
		}
		if s.wsActive.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (s *Server) releaseWS() {
	s.wsActive.Add(-1)
}

func (s *Server) registerPrometheus(mux *http.ServeMux) {
	registry := prometheus.NewRegistry()
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "active_connections",
			Help:      "Current number of active WebSocket clients.",
		}, func() float64 {
			return float64(s.wsActive.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted since start.",
		}, func() float64 {
			return float64(s.wsTotal.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "rejected_total",
			Help:      "Total WebSocket connection attempts rejected due to capacity.",
		}, func() float64 {
			return float64(s.wsRejected.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total WebSocket messages sent to clients.",
		}, func() float64 {
			return float64(s.wsSent.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "messages_dropped_total",
			Help:      "Total WebSocket messages dropped due to backpressure.",
		}, func() float64 {
			return float64(s.wsDropped.Load())
		}),
	}

	if frameCollector := newFrameCollector(s.hub, s.registry); frameCollector != nil {
		collectors = append(collectors, frameCollector)
	}

	for _, collector := range collectors {
		registry.MustRegister(collector)
	}

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func registerPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func originPatterns(origins []string) []string {
	for _, origin := range origins {
		if origin == "*" {
			return nil
		}
	}
	dst := make([]string, len(origins))
	copy(dst, origins)
	return dst
}

func (s *Server) readiness() readyResponse {
	if s.hub == nil {
		return readyResponse{Status: "degraded", Reason: "hub_not_configured"}
	}

	resp := readyResponse{
		Frames:      s.hub.Published(),
		Subscribers: s.hub.Subscribers(),
	}
	if s.hub.Ready() {
		resp.Status = "ok"
		return resp
	}

	resp.Status = "initializing"
	resp.Reason = "waiting_for_samples"
	return resp
}

type readyResponse struct {
	Status      string `json:"status"`
	Frames      uint64 `json:"frames"`
	Subscribers int    `json:"subscribers"`
	Reason      string `json:"reason,omitempty"`
}

type wsOutbound struct {
	ch     chan []byte
	closed atomic.Bool
	drops  *atomic.Uint64
}

func newWSOutbound(size int, dropCounter *atomic.Uint64) *wsOutbound {
	if size <= 0 {
		size = 1
	}
	return &wsOutbound{
		ch:    make(chan []byte, size),
		drops: dropCounter,
	}
}

func (o *wsOutbound) enqueue(msg []byte) bool {
	if o.closed.Load() {
		o.countDrop()
		return false
	}

	select {
	case o.ch <- msg:
		return true
	default:
	}

	droppedOld := false
	select {
	case <-o.ch:
		droppedOld = true
	default:
	}
	if droppedOld {
		o.countDrop()
	}

	if o.closed.Load() {
		o.countDrop()
		return false
	}

	select {
	case o.ch <- msg:
		return true
	default:
		o.countDrop()
		return false
	}
}

func (o *wsOutbound) close() {
	if o.closed.CompareAndSwap(false, true) {
		close(o.ch)
	}
}

func (o *wsOutbound) channel() <-chan []byte {
	return o.ch
}

func (o *wsOutbound) countDrop() {
	if o.drops != nil {
		o.drops.Add(1)
	}
}
