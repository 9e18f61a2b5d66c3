package main

import (
	"net/http"

	"github.com/JaimeStill/strongbox/internal/api"
	"github.com/JaimeStill/strongbox/internal/config"
	"github.com/JaimeStill/strongbox/internal/infrastructure"
	"github.com/JaimeStill/strongbox/pkg/handlers"
	"github.com/JaimeStill/strongbox/pkg/lifecycle"
	"github.com/JaimeStill/strongbox/pkg/metrics"
	"github.com/JaimeStill/strongbox/pkg/middleware"
	"github.com/JaimeStill/strongbox/pkg/module"
)

// Modules holds the prefixed handlers mounted on the root router.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

// buildRouter creates the root router with the probe and metrics endpoints.
// Probes sit outside the API module, so they skip authentication.
func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()
	router.Use(middleware.Recover(infra.Logger))

	router.HandleNative("GET /healthz", healthz(version))
	router.HandleNative("GET /readyz", readyz(infra.Lifecycle))
	router.HandleNative("GET /metrics", metrics.Handler())

	return router
}

type probeBody struct {
	Status     string          `json:"status"`
	Version    string          `json:"version,omitempty"`
	Subsystems map[string]bool `json:"subsystems,omitempty"`
}

func healthz(version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, probeBody{Status: "ok", Version: version})
	})
}

func readyz(lc *lifecycle.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := probeBody{Status: "ready", Subsystems: lc.Status()}
		status := http.StatusOK
		if !lc.Ready() {
			body.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
		handlers.RespondJSON(w, status, body)
	})
}
