// Package api assembles the API module with all domain systems, event
// consumers and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/strongbox/internal/config"
	"github.com/JaimeStill/strongbox/internal/infrastructure"
	"github.com/JaimeStill/strongbox/internal/processing"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/metrics"
	"github.com/JaimeStill/strongbox/pkg/middleware"
	"github.com/JaimeStill/strongbox/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and subscribes the post-processing consumers to the event dispatcher.
// It must run before infra.Start.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	subscribe(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime.Logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(metrics.Middleware())
	m.Use(auth.Middleware(&cfg.Auth, runtime.Logger))

	return m, nil
}

func subscribe(cfg *config.Config, runtime *Runtime) {
	var preview processing.Previewer
	if !cfg.Processing.DisablePDF {
		preview = processing.NewPreviewer(&cfg.Processing)
	}

	db := runtime.Database.Connection()
	runtime.Events.Subscribe(
		processing.NewProcessor(&cfg.Processing, db, runtime.Blobs, preview, runtime.Logger),
		processing.NewCleanup(db, runtime.Blobs, runtime.Logger),
	)
}
