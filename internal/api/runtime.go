package api

import (
	"fmt"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/config"
	"github.com/JaimeStill/strongbox/internal/documents"
	"github.com/JaimeStill/strongbox/internal/infrastructure"
	"github.com/JaimeStill/strongbox/internal/keys"
	"github.com/JaimeStill/strongbox/internal/translation"
)

// Runtime extends Infrastructure with the shared services the API domain
// systems are built from.
type Runtime struct {
	*infrastructure.Infrastructure
	Keys      keys.Ring
	Blobs     blobs.System
	ACL       acl.Evaluator
	Documents documents.System
	// Translator is nil when no provider credentials are configured.
	Translator *translation.Translator
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")
	db := infra.Database.Connection()

	ring := keys.New(keys.NewPostgresSource(db), &cfg.Keys, logger)

	rt := &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Events:    infra.Events,
		},
		Keys:      ring,
		Blobs:     blobs.New(infra.Storage, ring, logger),
		ACL:       acl.NewPostgres(db),
		Documents: documents.New(db, logger),
	}

	if cfg.Translation.Enabled() {
		client := translation.NewClient(&cfg.Translation, nil)
		t, err := translation.New(&cfg.Translation, client, logger)
		if err != nil {
			return nil, fmt.Errorf("translation init failed: %w", err)
		}
		rt.Translator = t
	}

	return rt, nil
}
