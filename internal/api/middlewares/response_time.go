package middlewares

import (
	"log"
	"net/http"
	"time"
)

// timedWriter stamps X-Response-Time just before the header goes out.
type timedWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
}

func (w *timedWriter) stamp(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.Header().Set("X-Response-Time", time.Since(w.start).String())
}

func (w *timedWriter) WriteHeader(code int) {
	w.stamp(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

// ResponseTime sets X-Response-Time and writes one access log line per
// request.
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timedWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		tw.stamp(http.StatusOK)
		log.Printf("[http] %s %s %d %s rid=%s", r.Method, r.URL.Path, tw.status, time.Since(tw.start), GetRequestID(r))
	})
}
