// Package auth resolves the caller of a request into a Principal from an
// HS256 bearer token and an optional share token.
package auth

import "context"

// Principal identifies the caller. A zero UserID means anonymous.
type Principal struct {
	UserID     string
	Groups     []string
	ShareToken string
}

// Authenticated reports whether the principal carries a verified user id.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Targets returns the identifiers access rules are matched against:
// user id, group ids, then the share token.
func (p Principal) Targets() []string {
	targets := make([]string, 0, len(p.Groups)+2)
	if p.UserID != "" {
		targets = append(targets, p.UserID)
	}
	for _, g := range p.Groups {
		if g != "" {
			targets = append(targets, g)
		}
	}
	if p.ShareToken != "" {
		targets = append(targets, p.ShareToken)
	}
	return targets
}

// WithoutShare returns a copy of the principal without its share token.
func (p Principal) WithoutShare() Principal {
	p.ShareToken = ""
	return p
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or an anonymous principal.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(contextKey{}).(Principal)
	return p
}
