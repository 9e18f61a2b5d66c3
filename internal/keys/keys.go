// Package keys resolves a file owner's encryption master key.
//
// The master key is derived with Argon2id from the owner's stored secret,
// salted with the owner id, so the same owner always yields the same key.
// Derived keys are cached for a bounded time.
package keys

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/argon2"

	"github.com/JaimeStill/strongbox/pkg/crypt"
)

// Key is an owner's master key.
type Key struct {
	Owner    string
	Material []byte
}

// Source returns the stored secret for an owner.
// Implementations return ErrUnknownOwner when the owner does not exist.
type Source interface {
	Secret(ctx context.Context, owner string) (string, error)
}

// Ring resolves owners to master keys.
type Ring interface {
	Key(ctx context.Context, owner string) (Key, error)
}

type ring struct {
	source Source
	cfg    Config
	cache  *expirable.LRU[string, Key]
	logger *slog.Logger
}

// New creates a Ring deriving keys from source secrets.
func New(source Source, cfg *Config, logger *slog.Logger) Ring {
	r := &ring{
		source: source,
		cfg:    *cfg,
		logger: logger.With("system", "keys"),
	}
	if cfg.CacheSize > 0 {
		r.cache = expirable.NewLRU[string, Key](cfg.CacheSize, nil, cfg.CacheTTLDuration())
	}
	return r
}

func (r *ring) Key(ctx context.Context, owner string) (Key, error) {
	if owner == "" {
		return Key{}, ErrUnknownOwner
	}

	if r.cache != nil {
		if k, ok := r.cache.Get(owner); ok {
			return k, nil
		}
	}

	secret, err := r.source.Secret(ctx, owner)
	if err != nil {
		return Key{}, fmt.Errorf("load secret for %s: %w", owner, err)
	}
	if secret == "" {
		return Key{}, ErrEmptySecret
	}

	k := Key{
		Owner:    owner,
		Material: Derive(secret, owner, &r.cfg),
	}

	if r.cache != nil {
		r.cache.Add(owner, k)
	}
	r.logger.Debug("derived master key", "owner", owner)

	return k, nil
}

// Derive computes the master key for owner from secret.
func Derive(secret, owner string, cfg *Config) []byte {
	return argon2.IDKey([]byte(secret), []byte(owner), cfg.ArgonTime, cfg.ArgonMemoryKiB, cfg.ArgonThreads, crypt.KeySize)
}
