package crypt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

type reader struct {
	src    *bufio.Reader
	seal   *sealer
	sealed []byte
	plain  []byte
	pos    int
	final  bool
	err    error
}

// NewReader returns a Reader that decrypts src. The header and the first chunk
// are read and authenticated before NewReader returns, so a wrong key or a
// corrupted stream is reported here rather than on the first Read.
func NewReader(src io.Reader, masterKey []byte) (io.Reader, error) {
	br := bufio.NewReader(src)

	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(br, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	aead, err := h.aead(masterKey)
	if err != nil {
		return nil, err
	}

	r := &reader{
		src:    br,
		seal:   newSealer(h, aead),
		sealed: make([]byte, h.chunkSize()+aead.Overhead()),
	}

	if err := r.next(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *reader) Read(p []byte) (int, error) {
	for r.pos == len(r.plain) {
		if r.err != nil {
			return 0, r.err
		}
		if r.final {
			return 0, io.EOF
		}
		if err := r.next(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n := copy(p, r.plain[r.pos:])
	r.pos += n
	return n, nil
}

// next reads and opens one sealed chunk. A short chunk, or a full chunk with
// nothing after it, must carry the final flag.
func (r *reader) next() error {
	n, err := io.ReadFull(r.src, r.sealed)
	final := false

	switch {
	case errors.Is(err, io.EOF):
		return ErrTruncated
	case errors.Is(err, io.ErrUnexpectedEOF):
		final = true
	case err != nil:
		return fmt.Errorf("read chunk: %w", err)
	default:
		if _, perr := r.src.Peek(1); perr != nil {
			if !errors.Is(perr, io.EOF) {
				return fmt.Errorf("read chunk: %w", perr)
			}
			final = true
		}
	}

	r.seal.next(final)
	plain, err := r.seal.aead.Open(r.plain[:0], r.seal.nonce, r.sealed[:n], r.seal.ad)
	if err != nil {
		return ErrAuthentication
	}

	r.plain = plain
	r.pos = 0
	r.final = final
	return nil
}
