package httpserver

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"
)

type contextKey string

const requestLoggerKey contextKey = "httpserver.request.logger"

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (lrw *loggingResponseWriter) WriteHeader(status int) {
	lrw.status = status
	lrw.ResponseWriter.WriteHeader(status)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytes += int64(n)
	return n, err
}

func (lrw *loggingResponseWriter) Status() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

func (lrw *loggingResponseWriter) Bytes() int64 {
	return lrw.bytes
}

func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := lrw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("httpserver: response writer does not support hijacking")
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := s.requestIDs.Add(1)
		logger := s.logger.With(
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
		)
		if remote := r.RemoteAddr; remote != "" {
			logger = logger.With("remote_addr", remote)
		}

		ctx := context.WithValue(r.Context(), requestLoggerKey, logger)
		lrw := &loggingResponseWriter{ResponseWriter: w}
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic", "panic", rec, "stack", string(debug.Stack()))
				if lrw.status == 0 {
					http.Error(lrw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}
			logger.Log(r.Context(), requestLogLevel(r.URL.Path, lrw.Status()), "request complete",
				"status", lrw.Status(),
				"duration", time.Since(start),
				"bytes", lrw.Bytes(),
			)
		}()

		next.ServeHTTP(lrw, r.WithContext(ctx))
	})
}

// requestLogLevel keeps probes and scrapes at debug unless a handler broke.
func requestLogLevel(path string, status int) slog.Level {
	switch {
	case status == http.StatusInternalServerError:
		return slog.LevelError
	case quietPath(path):
		return slog.LevelDebug
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// quietPath reports probe and scrape endpoints polled often enough to flood the log.
func quietPath(path string) bool {
	switch path {
	case "/healthz", "/api/healthz", "/readyz", "/api/readyz", "/metrics":
		return true
	}
	return false
}

func (s *Server) loggerFromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return s.logger
}
