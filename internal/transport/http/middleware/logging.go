package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mborders/logmatic"
)

// RequestLogger logs one line per request once the response is written.
func RequestLogger(log *logmatic.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("%s %s %d %s req=%s", r.Method, r.URL.Path, status, time.Since(start), chimw.GetReqID(r.Context()))
		})
	}
}
