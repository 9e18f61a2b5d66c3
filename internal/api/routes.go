package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/strongbox/internal/config"
	"github.com/JaimeStill/strongbox/pkg/routes"
)

// Groups returns the route groups served by the API module.
func Groups(domain *Domain, cfg *config.Config) []routes.Group {
	return []routes.Group{
		domain.Files.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	}
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	logger *slog.Logger,
) {
	groups := Groups(domain, cfg)
	routes.Register(mux, groups...)
	logger.Debug("routes registered", "patterns", routes.Patterns(groups...))
}
