package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/api/account"
	"github.com/kilianp07/evroute/api/assistant"
	"github.com/kilianp07/evroute/api/predict"
	"github.com/kilianp07/evroute/auth"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/history"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	coremon "github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/users"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/infra/metrics"
	"github.com/kilianp07/evroute/infra/monitoring"
	"github.com/kilianp07/evroute/infra/userdb"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "ev-route-planner-backend"

// Service wires the prediction history, the HTTP routes and the metrics
// pipeline together.
type Service struct {
	cfg      *config.Config
	clock    clock.Clock
	store    *history.Store
	bus      *eventbus.Bus[history.Event]
	sink     coremetrics.MetricsSink
	users    users.Store
	monitor  coremon.Monitor
	gatherer prometheus.Gatherer
	handler  http.Handler
	log      logger.Logger

	ready chan struct{} // closed once Run is listening
	bound net.Addr
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the system clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithGatherer selects the registry exposed on /metrics. The global
// Prometheus registry is used by default.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Service) { s.gatherer = g }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:   cfg,
		clock: clock.System{},
		log:   logger.New("service"),
		ready: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	loc, err := cfg.History.Location()
	if err != nil {
		return nil, err
	}
	s.bus = eventbus.NewWithBuffer[history.Event](cfg.Metrics.BusBuffer)
	s.store = history.NewStore(
		history.WithCapacity(cfg.History.Capacity),
		history.WithClock(s.clock),
		history.WithLocation(loc),
		history.WithPublisher(s.bus),
	)

	s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	s.users, err = newUserStore(cfg.Auth, s.clock)
	if err != nil {
		_ = coremetrics.Close(s.sink)
		return nil, fmt.Errorf("user store: %w", err)
	}
	s.monitor, err = monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		s.log.Warnf("sentry disabled: %v", err)
		s.monitor = coremon.NopMonitor{}
	}
	responder, err := assistant.NewResponder(cfg.Assistant)
	if err != nil {
		_ = s.closeResources()
		return nil, fmt.Errorf("assistant: %w", err)
	}

	s.handler = s.routes(responder)
	return s, nil
}

func newUserStore(conf auth.Conf, clk clock.Clock) (users.Store, error) {
	if conf.UserStore != auth.StoreSQLite {
		return users.NewMemoryStore(clk), nil
	}
	if dir := filepath.Dir(conf.UserStorePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return userdb.NewSQLiteStore(ctx, conf.UserStorePath, clk)
}

func (s *Service) routes(responder assistant.Responder) http.Handler {
	mux := http.NewServeMux()
	tokens := auth.NewTokenService(s.cfg.Auth, s.clock)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
	})
	mux.Handle("GET /metrics", metrics.Handler(s.gatherer))

	var guard []func(http.Handler) http.Handler
	if s.cfg.Auth.ProtectPredictions {
		guard = append(guard, account.RequireToken(tokens))
	}
	predict.NewHandler(s.store, s.clock, logger.New("predict")).Register(mux, guard...)
	account.NewHandler(s.users, tokens, logger.New("auth")).Register(mux)
	assistant.NewHandler(responder, s.cfg.Assistant, logger.New("assistant")).Register(mux)

	var h http.Handler = mux
	h = requestMetrics(s.sink, h)
	h = coremon.Recoverer(s.monitor, logger.New("http"))(h)
	if s.cfg.Logging.AccessLogEnabled() {
		h = accessLog(logger.NewZerolog("http"), h)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(h)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Service) Handler() http.Handler { return s.handler }

// Store returns the prediction history.
func (s *Service) Store() *history.Store { return s.store }

// Addr blocks until Run is listening and returns the bound address.
func (s *Service) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		return s.bound, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run serves HTTP and forwards history events to the metrics sinks until the
// context is canceled, then shuts the server down gracefully. It must be
// called at most once.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Address, err)
	}
	s.bound = ln.Addr()
	close(s.ready)

	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("collector"))
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.gatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout(),
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Infof("listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	<-collected
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d history events were not forwarded to metrics sinks", n)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	err := s.closeResources()
	s.monitor.Flush(2 * time.Second)
	return err
}

func (s *Service) closeResources() error {
	var errs []error
	errs = append(errs, coremetrics.Close(s.sink))
	if c, ok := s.users.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
