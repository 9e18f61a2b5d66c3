package crypt_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/JaimeStill/strongbox/pkg/crypt"
)

const testExponent = 10

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, crypt.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return key
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func seal(t *testing.T, key, plaintext []byte, exponent byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := crypt.NewWriterSize(&buf, key, exponent)
	if err != nil {
		t.Fatalf("NewWriterSize: %v", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)
	chunk := 1 << testExponent

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"single byte", 1},
		{"just under chunk", chunk - 1},
		{"exact chunk", chunk},
		{"chunk plus one", chunk + 1},
		{"several chunks", 3*chunk + 17},
		{"exact multiple", 4 * chunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := randomBytes(t, tt.size)
			ciphertext := seal(t, key, plaintext, testExponent)

			r, err := crypt.NewReader(bytes.NewReader(ciphertext), key)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("plaintext mismatch: got %d bytes, want %d", len(got), len(plaintext))
			}
		})
	}
}

func TestWriteInSmallPieces(t *testing.T) {
	key := testKey(t)
	plaintext := randomBytes(t, 5000)

	var buf bytes.Buffer
	w, err := crypt.NewWriterSize(&buf, key, testExponent)
	if err != nil {
		t.Fatalf("NewWriterSize: %v", err)
	}
	for i := 0; i < len(plaintext); i += 7 {
		end := min(i+7, len(plaintext))
		if _, err := w.Write(plaintext[i:end]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := crypt.Decrypt(key, buf.Bytes())
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("plaintext mismatch")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("quarterly report")

	ciphertext, err := crypt.Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Error("ciphertext contains plaintext")
	}
	if got, want := int64(len(ciphertext)), crypt.CiphertextSize(int64(len(plaintext))); got != want {
		t.Errorf("ciphertext size = %d, want %d", got, want)
	}

	got, err := crypt.Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestCiphertextSize(t *testing.T) {
	key := testKey(t)
	for _, n := range []int{0, 1, 1 << 16, 1<<16 + 1, 3 << 16} {
		ciphertext, err := crypt.Encrypt(key, make([]byte, n))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if got, want := int64(len(ciphertext)), crypt.CiphertextSize(int64(n)); got != want {
			t.Errorf("size(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestWrongKey(t *testing.T) {
	ciphertext := seal(t, testKey(t), randomBytes(t, 100), testExponent)

	_, err := crypt.NewReader(bytes.NewReader(ciphertext), testKey(t))
	if !errors.Is(err, crypt.ErrAuthentication) {
		t.Errorf("err = %v, want ErrAuthentication", err)
	}
}

func TestKeySize(t *testing.T) {
	if _, err := crypt.NewWriter(io.Discard, []byte("short")); !errors.Is(err, crypt.ErrKeySize) {
		t.Errorf("writer err = %v, want ErrKeySize", err)
	}

	ciphertext := seal(t, testKey(t), []byte("x"), testExponent)
	if _, err := crypt.NewReader(bytes.NewReader(ciphertext), nil); !errors.Is(err, crypt.ErrKeySize) {
		t.Errorf("reader err = %v, want ErrKeySize", err)
	}
}

func TestTampering(t *testing.T) {
	key := testKey(t)
	chunk := 1 << testExponent
	sealedChunk := chunk + 16
	headerLen := 38
	plaintext := randomBytes(t, 3*chunk-100)
	ciphertext := seal(t, key, plaintext, testExponent)

	readAll := func(data []byte) error {
		r, err := crypt.NewReader(bytes.NewReader(data), key)
		if err != nil {
			return err
		}
		_, err = io.ReadAll(r)
		return err
	}

	t.Run("flipped bit in later chunk", func(t *testing.T) {
		data := bytes.Clone(ciphertext)
		data[headerLen+sealedChunk+5] ^= 0x01
		if err := readAll(data); !errors.Is(err, crypt.ErrAuthentication) {
			t.Errorf("err = %v, want ErrAuthentication", err)
		}
	})

	t.Run("truncated at chunk boundary", func(t *testing.T) {
		data := ciphertext[:headerLen+2*sealedChunk]
		if err := readAll(data); !errors.Is(err, crypt.ErrAuthentication) {
			t.Errorf("err = %v, want ErrAuthentication", err)
		}
	})

	t.Run("truncated mid chunk", func(t *testing.T) {
		data := ciphertext[:headerLen+sealedChunk+10]
		if err := readAll(data); !errors.Is(err, crypt.ErrAuthentication) {
			t.Errorf("err = %v, want ErrAuthentication", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		data := ciphertext[:headerLen]
		if err := readAll(data); !errors.Is(err, crypt.ErrTruncated) {
			t.Errorf("err = %v, want ErrTruncated", err)
		}
	})

	t.Run("reordered chunks", func(t *testing.T) {
		data := bytes.Clone(ciphertext)
		first := bytes.Clone(data[headerLen : headerLen+sealedChunk])
		second := bytes.Clone(data[headerLen+sealedChunk : headerLen+2*sealedChunk])
		copy(data[headerLen:], second)
		copy(data[headerLen+sealedChunk:], first)
		if err := readAll(data); !errors.Is(err, crypt.ErrAuthentication) {
			t.Errorf("err = %v, want ErrAuthentication", err)
		}
	})

	t.Run("modified header", func(t *testing.T) {
		data := bytes.Clone(ciphertext)
		data[10] ^= 0xff
		if err := readAll(data); !errors.Is(err, crypt.ErrAuthentication) {
			t.Errorf("err = %v, want ErrAuthentication", err)
		}
	})
}

func TestInvalidHeader(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("SBX1")},
		{"wrong magic", append([]byte("ZIP!"), make([]byte, 34)...)},
		{"bad version", append([]byte("SBX1\x09\x10"), make([]byte, 32)...)},
		{"bad exponent", append([]byte("SBX1\x01\x02"), make([]byte, 32)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := crypt.NewReader(bytes.NewReader(tt.data), key)
			if !errors.Is(err, crypt.ErrInvalidHeader) {
				t.Errorf("err = %v, want ErrInvalidHeader", err)
			}
		})
	}
}

func TestWriteAfterClose(t *testing.T) {
	w, err := crypt.NewWriter(io.Discard, testKey(t))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Write([]byte("x")); !errors.Is(err, crypt.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
