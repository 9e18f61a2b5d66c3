package crypt

import "errors"

var (
	// ErrInvalidHeader indicates the stream does not start with a valid header.
	ErrInvalidHeader = errors.New("crypt: invalid header")
	// ErrAuthentication indicates a chunk failed authentication: wrong key,
	// corrupted, reordered or truncated ciphertext.
	ErrAuthentication = errors.New("crypt: message authentication failed")
	// ErrTruncated indicates the stream ended before its final chunk.
	ErrTruncated = errors.New("crypt: ciphertext truncated")
	// ErrKeySize indicates a master key of the wrong length.
	ErrKeySize = errors.New("crypt: master key must be 32 bytes")
	// ErrClosed indicates a write after Close.
	ErrClosed = errors.New("crypt: write to closed writer")
)
