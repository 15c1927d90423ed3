package api

import (
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// DefaultRequestLogger constructs a middleware that writes an access log to
// the operating systems standard error output.
func DefaultRequestLogger() func(http.Handler) http.Handler {
	return NewRequestLogger(os.Stderr)
}

// NewRequestLogger constructs a middleware that writes one access log line
// per handled request to the specified writer. The line carries the method,
// the path, the response status and size and the handling time.
func NewRequestLogger(out io.Writer) func(http.Handler) http.Handler {
	logger := log.New(out, "", log.LstdFlags)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// track status and size
			tw := &trackingWriter{ResponseWriter: w, status: http.StatusOK}

			// measure handling time
			start := time.Now()
			next.ServeHTTP(tw, r)

			// write line
			logger.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, tw.status, tw.size, time.Since(start))
		})
	}
}

type trackingWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *trackingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.size += n
	return n, err
}
