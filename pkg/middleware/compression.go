package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// GzipConfig controls response compression
type GzipConfig struct {
	Level int
	// ExcludedPrefixes are never compressed; websocket routes must be listed
	// here or sent with an Upgrade header
	ExcludedPrefixes []string
	Compressible     []string
}

// DefaultGzipConfig compresses JSON and text at the default level
func DefaultGzipConfig() *GzipConfig {
	return &GzipConfig{
		Level:            gzip.DefaultCompression,
		ExcludedPrefixes: []string{"/ws/"},
		Compressible:     []string{"application/json", "text/"},
	}
}

// gzipResponseWriter starts compressing on the first body write, so bodiless
// responses (204, 304) pass through untouched
type gzipResponseWriter struct {
	http.ResponseWriter
	pool       *sync.Pool
	gz         *gzip.Writer
	types      []string
	statusCode int
	decided    bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	if statusCode == http.StatusNoContent || statusCode == http.StatusNotModified {
		w.decided = true
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}
	w.decide()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.decided {
		w.decide()
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true
	if !compressible(w.Header().Get("Content-Type"), w.types) {
		return
	}

	h := w.Header()
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")

	w.gz = w.pool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)
}

func (w *gzipResponseWriter) close() error {
	if w.gz == nil {
		return nil
	}
	err := w.gz.Close()
	w.pool.Put(w.gz)
	w.gz = nil
	return err
}

// Gzip compresses responses for clients that accept it
func Gzip(cfg *GzipConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = DefaultGzipConfig()
	}
	pool := &sync.Pool{
		New: func() interface{} {
			w, err := gzip.NewWriterLevel(io.Discard, cfg.Level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Header.Get("Upgrade") != "" || excluded(r.URL.Path, cfg.ExcludedPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{ResponseWriter: w, pool: pool, types: cfg.Compressible}
			defer func() {
				if err := gw.close(); err != nil && logger != nil {
					logger.Debug("gzip close failed",
						zap.String("path", r.URL.Path),
						zap.Error(err))
				}
			}()
			next.ServeHTTP(gw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func excluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// compressible matches the content type against the configured prefixes
func compressible(contentType string, types []string) bool {
	if contentType == "" {
		return false
	}
	for _, prefix := range types {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
