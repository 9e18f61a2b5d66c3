package crypt

import (
	"fmt"
	"io"
)

type writer struct {
	dst    io.Writer
	seal   *sealer
	buf    []byte
	out    []byte
	chunk  int
	closed bool
	err    error
}

// NewWriter returns a WriteCloser that encrypts everything written to it into dst.
// The header is written immediately. Close must be called to emit the final chunk;
// it does not close dst.
func NewWriter(dst io.Writer, masterKey []byte) (io.WriteCloser, error) {
	return NewWriterSize(dst, masterKey, DefaultChunkExponent)
}

// NewWriterSize is NewWriter with chunks of 1<<exponent plaintext bytes.
func NewWriterSize(dst io.Writer, masterKey []byte, exponent byte) (io.WriteCloser, error) {
	h, err := newHeader(exponent)
	if err != nil {
		return nil, err
	}

	aead, err := h.aead(masterKey)
	if err != nil {
		return nil, err
	}

	if _, err := dst.Write(h.raw); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	chunk := h.chunkSize()
	return &writer{
		dst:   dst,
		seal:  newSealer(h, aead),
		buf:   make([]byte, 0, chunk),
		out:   make([]byte, 0, chunk+aead.Overhead()),
		chunk: chunk,
	}, nil
}

// Write buffers p and seals full chunks. A full buffer is only sealed once more
// data arrives, so the final chunk is never mistaken for an intermediate one.
func (w *writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, ErrClosed
	}

	n := 0
	for len(p) > 0 {
		if len(w.buf) == w.chunk {
			if err := w.flush(false); err != nil {
				w.err = err
				return n, err
			}
		}

		k := copy(w.buf[len(w.buf):w.chunk], p)
		w.buf = w.buf[:len(w.buf)+k]
		p = p[k:]
		n += k
	}

	return n, nil
}

// Close seals the remaining buffer as the final chunk, which may be empty.
func (w *writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	if w.err != nil {
		return w.err
	}

	w.err = w.flush(true)
	return w.err
}

func (w *writer) flush(final bool) error {
	w.seal.next(final)
	w.out = w.seal.aead.Seal(w.out[:0], w.seal.nonce, w.buf, w.seal.ad)
	w.buf = w.buf[:0]

	if _, err := w.dst.Write(w.out); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	return nil
}
