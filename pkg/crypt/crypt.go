// Package crypt implements the chunked authenticated encryption format used for
// blobs at rest.
//
// A stream starts with a fixed header:
//
//	magic "SBX1" | version | chunk size exponent | 16-byte salt | 16-byte nonce prefix
//
// followed by XChaCha20-Poly1305 sealed chunks. Each chunk carries at most
// 1<<exponent plaintext bytes. The nonce of chunk n is the prefix followed by n
// as a big-endian uint64, and the additional data is the header followed by a
// flag byte that is 1 only for the last chunk. The per-stream key is derived from
// the caller's master key and the salt with HKDF-SHA256.
package crypt

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required master key length.
	KeySize = 32

	// DefaultChunkExponent gives 64 KiB plaintext chunks.
	DefaultChunkExponent = 16

	minChunkExponent = 10
	maxChunkExponent = 24

	version    byte = 1
	saltSize        = 16
	prefixSize      = chacha20poly1305.NonceSizeX - 8
	headerSize      = len(magic) + 2 + saltSize + prefixSize
)

const magic = "SBX1"

var kdfInfo = []byte("strongbox blob key v1")

type header struct {
	raw      []byte
	exponent byte
	salt     []byte
	prefix   []byte
}

func newHeader(exponent byte) (*header, error) {
	raw := make([]byte, headerSize)
	copy(raw, magic)
	raw[4] = version
	raw[5] = exponent

	if _, err := rand.Read(raw[6:]); err != nil {
		return nil, fmt.Errorf("generate header randomness: %w", err)
	}

	return parseHeader(raw)
}

func parseHeader(raw []byte) (*header, error) {
	if len(raw) != headerSize || !bytes.Equal(raw[:4], []byte(magic)) {
		return nil, ErrInvalidHeader
	}
	if raw[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, raw[4])
	}

	exp := raw[5]
	if exp < minChunkExponent || exp > maxChunkExponent {
		return nil, fmt.Errorf("%w: chunk exponent %d out of range", ErrInvalidHeader, exp)
	}

	return &header{
		raw:      raw,
		exponent: exp,
		salt:     raw[6 : 6+saltSize],
		prefix:   raw[6+saltSize:],
	}, nil
}

func (h *header) chunkSize() int {
	return 1 << h.exponent
}

func (h *header) aead(masterKey []byte) (cipher.AEAD, error) {
	if len(masterKey) != KeySize {
		return nil, ErrKeySize
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, masterKey, h.salt, kdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive stream key: %w", err)
	}

	return chacha20poly1305.NewX(key)
}

// sealer holds the per-chunk nonce and additional data buffers shared by the
// reader and writer.
type sealer struct {
	aead    cipher.AEAD
	nonce   []byte
	ad      []byte
	counter uint64
}

func newSealer(h *header, aead cipher.AEAD) *sealer {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	copy(nonce, h.prefix)

	ad := make([]byte, headerSize+1)
	copy(ad, h.raw)

	return &sealer{aead: aead, nonce: nonce, ad: ad}
}

func (s *sealer) next(final bool) {
	binary.BigEndian.PutUint64(s.nonce[prefixSize:], s.counter)
	s.ad[headerSize] = 0
	if final {
		s.ad[headerSize] = 1
	}
	s.counter++
}

// Encrypt seals plaintext in a single call.
func Encrypt(masterKey, plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, masterKey)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decrypt opens a complete ciphertext in a single call.
func Decrypt(masterKey, ciphertext []byte) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(ciphertext), masterKey)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// CiphertextSize returns the ciphertext size for a plaintext of n bytes with the
// default chunk size.
func CiphertextSize(n int64) int64 {
	chunk := int64(1) << DefaultChunkExponent
	chunks := (n + chunk - 1) / chunk
	if chunks == 0 {
		chunks = 1
	}
	return int64(headerSize) + n + chunks*chacha20poly1305.Overhead
}
