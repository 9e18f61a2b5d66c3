package main

import (
	"maps"
	"slices"
	"time"

	"github.com/JaimeStill/strongbox/internal/config"
	"github.com/JaimeStill/strongbox/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"translation", cfg.Translation.Enabled(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go s.reportReadiness()

	return nil
}

// reportReadiness logs each readiness check once startup hooks finish.
func (s *Server) reportReadiness() {
	s.infra.Lifecycle.WaitForStartup()

	status := s.infra.Lifecycle.Status()
	for _, name := range slices.Sorted(maps.Keys(status)) {
		if !status[name] {
			s.infra.Logger.Warn("subsystem not ready", "subsystem", name)
			continue
		}
		s.infra.Logger.Info("subsystem ready", "subsystem", name)
	}
	s.infra.Logger.Info("startup complete", "ready", s.infra.Lifecycle.Ready())
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
