package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpsServer exposes liveness and metrics endpoints while a run is in flight.
type OpsServer struct {
	logger *logger.Logger
	server *http.Server
}

func NewOpsServer(addr string, logg *logger.Logger) *OpsServer {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return &OpsServer{
		logger: logg,
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until Shutdown is called.
func (s *OpsServer) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "ops server listening on "+s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(ctx, "ops server stopped", err)
		}
	}()
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
