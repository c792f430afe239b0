package logger

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware registra cada requisição e injeta no contexto um logger com request_id.
func Middleware(base *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			reqLog := base.With(FieldRequestID, id)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(IntoContext(r.Context(), reqLog)))

			attrs := []any{
				FieldMethod, r.Method,
				FieldPath, r.URL.Path,
				FieldStatus, rec.status,
				FieldDurationMS, time.Since(start).Milliseconds(),
			}
			switch {
			case rec.status >= 500:
				reqLog.Error("requisição", attrs...)
			case rec.status >= 400:
				reqLog.Warn("requisição", attrs...)
			default:
				reqLog.Info("requisição", attrs...)
			}
		})
	}
}
