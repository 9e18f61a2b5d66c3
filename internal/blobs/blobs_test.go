package blobs_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/keys"
	"github.com/JaimeStill/strongbox/pkg/lifecycle"
	"github.com/JaimeStill/strongbox/pkg/logging"
	"github.com/JaimeStill/strongbox/pkg/storage"
)

type staticRing map[string]byte

func (r staticRing) Key(_ context.Context, owner string) (keys.Key, error) {
	b, ok := r[owner]
	if !ok {
		return keys.Key{}, keys.ErrUnknownOwner
	}
	return keys.Key{Owner: owner, Material: bytes.Repeat([]byte{b}, 32)}, nil
}

func newStore(t *testing.T) (blobs.System, string) {
	t.Helper()
	dir := t.TempDir()

	st, err := storage.New(&storage.Config{
		Backend:    storage.BackendFilesystem,
		Filesystem: storage.FilesystemConfig{BasePath: dir},
	}, logging.Discard())
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}
	lc := lifecycle.New()
	st.Start(lc)
	lc.WaitForStartup()

	ring := staticRing{"alice": 1, "bob": 2}
	return blobs.New(st, ring, logging.Discard()), dir
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	return b
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	h := blobs.Handle{ID: uuid.New(), Owner: "alice"}
	plaintext := bytes.Repeat([]byte("strongbox "), 20000)

	n, err := s.Store(ctx, h, bytes.NewReader(plaintext))
	if err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if n != int64(len(plaintext)) {
		t.Errorf("stored = %d, want %d", n, len(plaintext))
	}

	raw, err := os.ReadFile(filepath.Join(dir, h.ID.String()))
	if err != nil {
		t.Fatalf("read raw blob: %v", err)
	}
	if bytes.Contains(raw, []byte("strongbox strongbox")) {
		t.Error("blob at rest contains plaintext")
	}

	rc, err := s.Load(ctx, h)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := readAll(t, rc); !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(plaintext))
	}
}

func TestLoadUnavailable(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	if _, err := s.Store(ctx, blobs.Handle{ID: id, Owner: "alice"}, strings.NewReader("secret")); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	tests := []struct {
		name string
		h    blobs.Handle
	}{
		{"missing blob", blobs.Handle{ID: uuid.New(), Owner: "alice"}},
		{"wrong owner key", blobs.Handle{ID: id, Owner: "bob"}},
		{"unknown owner", blobs.Handle{ID: id, Owner: "ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := s.Load(ctx, tt.h)
			if !errors.Is(err, blobs.ErrUnavailable) {
				t.Errorf("err = %v, want ErrUnavailable", err)
			}
			if rc != nil {
				t.Error("no stream may be returned on failure")
			}
		})
	}
}

func TestStoreSourceError(t *testing.T) {
	s, dir := newStore(t)
	h := blobs.Handle{ID: uuid.New(), Owner: "alice"}
	failure := errors.New("client went away")

	src := io.MultiReader(strings.NewReader("partial"), errReader{failure})
	if _, err := s.Store(context.Background(), h, src); !errors.Is(err, failure) {
		t.Errorf("err = %v, want %v", err, failure)
	}
	if _, err := os.Stat(filepath.Join(dir, h.ID.String())); !os.IsNotExist(err) {
		t.Errorf("partial blob left behind: %v", err)
	}
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestLoadVariant(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	h := blobs.Handle{ID: uuid.New(), Owner: "alice"}

	t.Run("missing image variants fall back to placeholders", func(t *testing.T) {
		for _, kind := range []blobs.Kind{blobs.Web, blobs.Thumb} {
			r, err := s.LoadVariant(ctx, h, kind)
			if err != nil {
				t.Fatalf("LoadVariant(%s) error: %v", kind, err)
			}
			if !r.Placeholder || r.ContentType != "image/png" {
				t.Errorf("%s: placeholder=%v type=%q, want placeholder png", kind, r.Placeholder, r.ContentType)
			}
			if _, err := png.Decode(bytes.NewReader(readAll(t, r.Body))); err != nil {
				t.Errorf("%s placeholder is not a png: %v", kind, err)
			}
		}
	})

	t.Run("missing content is empty text", func(t *testing.T) {
		r, err := s.LoadVariant(ctx, h, blobs.Content)
		if err != nil {
			t.Fatalf("LoadVariant error: %v", err)
		}
		if r.Placeholder || r.ContentType != "text/plain; charset=utf-8" {
			t.Errorf("placeholder=%v type=%q", r.Placeholder, r.ContentType)
		}
		if got := readAll(t, r.Body); len(got) != 0 {
			t.Errorf("body = %q, want empty", got)
		}
	})

	t.Run("stored variants decrypt", func(t *testing.T) {
		if err := s.StoreVariant(ctx, h, blobs.Thumb, []byte("jpeg bytes")); err != nil {
			t.Fatalf("StoreVariant error: %v", err)
		}
		r, err := s.LoadVariant(ctx, h, blobs.Thumb)
		if err != nil {
			t.Fatalf("LoadVariant error: %v", err)
		}
		if r.Placeholder || r.ContentType != "image/jpeg" {
			t.Errorf("placeholder=%v type=%q", r.Placeholder, r.ContentType)
		}
		if got := readAll(t, r.Body); string(got) != "jpeg bytes" {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("corrupt content is unavailable", func(t *testing.T) {
		path := filepath.Join(dir, h.Key(blobs.Content))
		if err := os.WriteFile(path, []byte("not a sealed blob at all, but long enough"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadVariant(ctx, h, blobs.Content); !errors.Is(err, blobs.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("original variant rejected on store", func(t *testing.T) {
		if err := s.StoreVariant(ctx, h, blobs.Original, nil); !errors.Is(err, blobs.ErrInvalidKind) {
			t.Errorf("err = %v, want ErrInvalidKind", err)
		}
	})
}

func TestDelete(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	target := blobs.Handle{ID: uuid.New(), Owner: "alice"}
	other := blobs.Handle{ID: uuid.New(), Owner: "alice"}

	for _, h := range []blobs.Handle{target, other} {
		if _, err := s.Store(ctx, h, strings.NewReader("data")); err != nil {
			t.Fatalf("Store error: %v", err)
		}
		if err := s.StoreVariant(ctx, h, blobs.Web, []byte("web")); err != nil {
			t.Fatalf("StoreVariant error: %v", err)
		}
	}

	if err := s.Delete(ctx, target); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	for _, kind := range []blobs.Kind{blobs.Original, blobs.Web} {
		if _, err := os.Stat(filepath.Join(dir, target.Key(kind))); !os.IsNotExist(err) {
			t.Errorf("%s still present", target.Key(kind))
		}
		if _, err := os.Stat(filepath.Join(dir, other.Key(kind))); err != nil {
			t.Errorf("other file blob %s removed: %v", other.Key(kind), err)
		}
	}

	if err := s.Delete(ctx, target); err != nil {
		t.Errorf("second Delete error = %v, want nil", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    blobs.Kind
		wantErr bool
	}{
		{"", blobs.Original, false},
		{"web", blobs.Web, false},
		{"thumb", blobs.Thumb, false},
		{"content", blobs.Content, false},
		{"huge", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := blobs.ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleKey(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	h := blobs.Handle{ID: id}

	if got := h.Key(blobs.Original); got != id.String() {
		t.Errorf("original key = %q", got)
	}
	if got := h.Key(blobs.Thumb); got != id.String()+"_thumb" {
		t.Errorf("thumb key = %q", got)
	}
}
