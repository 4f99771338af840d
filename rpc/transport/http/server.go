package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler transport.ServerHandleFunc
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	Logger.Infof("Starting HTTP server on %s", config.Endpoint)
	return http.ListenAndServe(config.Endpoint, t.Router(config))
}

// Router returns the routes served by Listen:
//
//	POST /{shardId}  one serialized request, answered with one serialized response
//	GET  /metrics    Prometheus text format, only if config.Metrics is set
func (t *httpServerTransport) Router(config common.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if config.LogLevel == "debug" {
		r.Use(requestLogger)
	}

	r.Post("/{shardId}", t.handleRequest)
	if config.Metrics {
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
	}
	return r
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleRequest passes the body to the registered handler and writes its response
func (t *httpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	shardID, err := strconv.ParseUint(chi.URLParam(r, "shardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shardId", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}

	if t.handler == nil {
		http.Error(w, "No handler registered", http.StatusServiceUnavailable)
		return
	}

	if _, err = w.Write(t.handler(shardID, body)); err != nil {
		Logger.Warningf("failed to write response: %v", err)
	}
}

// requestLogger logs method, path, status and duration of every request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
