package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/history"
	"github.com/itohio/aquanode/pkg/station"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Timeout bounds slow clients, in seconds.
const Timeout = 5

// Source is the station state served by the API.
type Source interface {
	Status() station.Status
	History() *history.Window
}

// Server exposes the station state over HTTP.
type Server struct {
	cfg      *config.Config
	src      Source
	gatherer prometheus.Gatherer
	log      *zap.Logger
	srv      *http.Server
}

// New returns a server listening on cfg.Status.Addr once Run is called.
func New(cfg *config.Config, src Source, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		src:      src,
		gatherer: gatherer,
		log:      logger.Named("status"),
	}
	s.srv = &http.Server{
		Addr:         cfg.Status.Addr,
		Handler:      s.Router(),
		ReadTimeout:  Timeout * time.Second,
		WriteTimeout: 2 * Timeout * time.Second,
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/readings/latest", s.latest).Methods(http.MethodGet)
	r.HandleFunc("/api/readings", s.readings).Methods(http.MethodGet)
	r.HandleFunc("/api/trend", s.trend).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.config).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.Use(requestID)
	r.Use(logging(s.log))

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting status server", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("stopping status server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), Timeout*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
