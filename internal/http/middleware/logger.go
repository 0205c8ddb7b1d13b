package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mwantia/evtrec/pkg/log"
)

// RequestLogger logs one line per request with status, size and duration.
func RequestLogger(logger log.LoggerService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				msg := "%s %s -> %d (%d bytes, %s) [%s]"
				args := []any{r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start).Round(time.Microsecond), chimw.GetReqID(r.Context())}
				switch {
				case status >= 500:
					logger.Error(msg, args...)
				case status >= 400:
					logger.Warn(msg, args...)
				default:
					logger.Debug(msg, args...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
