package server

import (
	"context"
	"fmt"
	"net/http"

	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/invoke"
	"github.com/storacha/sizetracker/internal/metrics"
	"github.com/storacha/sizetracker/internal/plotter"
	"github.com/storacha/sizetracker/web"
)

var log = logging.Logger("server")

type config struct {
	metricsEndpointToken string
	adminUser            string
	adminPassword        string
}

type Option func(*config)

func WithMetricsEndpoint(authToken string) Option {
	return func(c *config) {
		c.metricsEndpointToken = authToken
	}
}

func WithAdminCreds(user, password string) Option {
	return func(c *config) {
		c.adminUser = user
		c.adminPassword = password
	}
}

type Sampler interface {
	Sample(ctx context.Context) (sizehistory.SizeSample, error)
}

type Plotter interface {
	RenderPlot(ctx context.Context) (*plotter.PlotResult, error)
	Snapshot(ctx context.Context) (*plotter.Snapshot, error)
}

type Server struct {
	cfg      *config
	sampler  Sampler
	plotter  Plotter
	handlers *invoke.Handlers
}

func New(sampler Sampler, plotter Plotter, opts ...Option) (*Server, error) {
	if sampler == nil || plotter == nil {
		return nil, fmt.Errorf("sampler and plotter are required")
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Server{
		cfg:      cfg,
		sampler:  sampler,
		plotter:  plotter,
		handlers: invoke.New(sampler, plotter),
	}, nil
}

// Handler builds the routes served by ListenAndServe.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.getRootHandler())
	mux.HandleFunc("POST /sample", s.postSampleHandler())
	mux.HandleFunc("GET /plot", s.getPlotHandler())

	if s.cfg.adminUser != "" {
		mux.HandleFunc("GET /admin", web.BasicAuthMiddleware(web.AdminHandler(s.plotter), s.cfg.adminUser, s.cfg.adminPassword))
	} else {
		log.Warnf("Admin dashboard is disabled")
	}

	if s.cfg.metricsEndpointToken != "" {
		if err := metrics.Init(); err != nil {
			return nil, fmt.Errorf("initializing metrics: %w", err)
		}

		mux.Handle("GET /metrics", s.getMetricsHandler())
	} else {
		log.Warnf("Metrics endpoint is disabled")
	}

	return mux, nil
}

func (s *Server) ListenAndServe(addr string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	log.Infof("Listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
