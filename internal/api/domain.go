package api

import (
	"github.com/JaimeStill/strongbox/internal/files"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Files files.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	deps := files.Deps{
		DB:        runtime.Database.Connection(),
		Blobs:     runtime.Blobs,
		Documents: runtime.Documents,
		ACL:       runtime.ACL,
		Events:    runtime.Events,
		Tracker:   runtime.Events,
	}
	if runtime.Translator != nil {
		deps.Translator = runtime.Translator
	}

	return &Domain{
		Files: files.New(deps, runtime.Logger),
	}
}
