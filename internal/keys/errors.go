package keys

import "errors"

var (
	// ErrUnknownOwner indicates no active user holds the requested key material.
	ErrUnknownOwner = errors.New("unknown key owner")
	// ErrEmptySecret indicates the owner exists but has no stored secret.
	ErrEmptySecret = errors.New("owner has no key secret")
)
