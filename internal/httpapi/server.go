package httpapi

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r *mux.Router)
}

func NewRouter(log logger.ZapLogger, handlers ...Registrar) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	for _, h := range handlers {
		h.Register(api)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Use(requestLogger(log))
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log logger.ZapLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
