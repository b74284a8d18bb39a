package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthTimeout = 500 * time.Millisecond

func MetricsHandler() http.Handler { return promhttp.Handler() }

// HealthHandler answers 200 while health succeeds and 503 otherwise.
func HealthHandler(health func(context.Context) error, l *zap.Logger) http.Handler {
	l = OrNop(l)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := health(ctx); err != nil {
			l.Warn("health check failed", zap.Error(err))
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
}

// StartOpsServer serves /metrics and /healthz on addr in the background.
// Callers own shutdown of the returned server.
func StartOpsServer(addr string, health func(context.Context) error, l *zap.Logger) *http.Server {
	l = OrNop(l)
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.Handle("/healthz", HealthHandler(health, l))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      3 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	go func() {
		l.Info("ops server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("ops server", zap.Error(err))
		}
	}()
	return srv
}
